package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"

	"github.com/OIRNOIR/oproxy-go/internal/metrics"
)

func TestLogging_RecordsCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	client := &http.Client{Transport: Logging(logger, http.DefaultTransport)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	_ = resp.Body.Close()

	out := buf.String()
	if !strings.Contains(out, "relay call") {
		t.Errorf("log output missing relay call entry: %s", out)
	}
	if !strings.Contains(out, "status=202") {
		t.Errorf("log output missing status field: %s", out)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	client := &http.Client{Transport: Logging(logger, http.DefaultTransport)}
	if _, err := client.Get("http://127.0.0.1:1/"); err == nil {
		t.Fatal("Get() expected error for unreachable host, got nil")
	}

	if !strings.Contains(buf.String(), "relay call failed") {
		t.Errorf("log output missing failure entry: %s", buf.String())
	}
}

func TestMetrics_CountsResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := metrics.New()
	client := &http.Client{Transport: Metrics(m, http.DefaultTransport)}

	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		_ = resp.Body.Close()
	}

	got := testutil.ToFloat64(m.RelayResponses.WithLabelValues("GET", "200"))
	if got != 3 {
		t.Errorf("relay responses counter = %v, want 3", got)
	}
	if inflight := testutil.ToFloat64(m.RelayInFlight); inflight != 0 {
		t.Errorf("in-flight gauge = %v, want 0 after calls complete", inflight)
	}
}

func TestRateLimit_HonorsContextCancellation(t *testing.T) {
	// A zero-rate limiter never grants a token, so the wait must end with
	// the context instead.
	limiter := rate.NewLimiter(0, 0)
	rt := RateLimit(limiter, http.DefaultTransport)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com/", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("RoundTrip() expected error from limiter wait, got nil")
	}
}

func TestRateLimit_PassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Inf, 1)
	client := &http.Client{Transport: RateLimit(limiter, http.DefaultTransport)}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
