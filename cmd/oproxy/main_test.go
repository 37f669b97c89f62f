package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/OIRNOIR/oproxy-go/internal/timex"
)

func TestBuildOptions(t *testing.T) {
	keepalive := true
	cmd := &fetchCmd{
		Method:    "POST",
		Header:    []string{"Content-Type: application/json", "X-A:1"},
		Data:      `{"k":"v"}`,
		Redirect:  "error",
		Keepalive: &keepalive,
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		t.Fatalf("buildOptions() error = %v", err)
	}

	if opts.Method != "POST" {
		t.Errorf("Method = %q, want POST", opts.Method)
	}
	if opts.Redirect != "error" {
		t.Errorf("Redirect = %q, want error", opts.Redirect)
	}
	if opts.Keepalive == nil || !*opts.Keepalive {
		t.Error("Keepalive not carried through")
	}
	if got := opts.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := opts.Header.Get("X-A"); got != "1" {
		t.Errorf("X-A = %q, want 1", got)
	}
	if opts.Body == nil {
		t.Error("Body = nil, want reader over --data value")
	}
}

func TestBuildOptions_LeavesUnsetAlone(t *testing.T) {
	opts, err := buildOptions(&fetchCmd{})
	if err != nil {
		t.Fatalf("buildOptions() error = %v", err)
	}

	if opts.Method != "" || opts.Mode != "" || opts.Redirect != "" {
		t.Errorf("unset flags mapped to non-zero options: %+v", opts)
	}
	if opts.Keepalive != nil {
		t.Errorf("Keepalive = %v, want nil for unset flag", *opts.Keepalive)
	}
	if opts.Header != nil {
		t.Errorf("Header = %v, want nil when no -H given", opts.Header)
	}
	if opts.Body != nil {
		t.Error("Body non-nil without --data")
	}
}

func TestBuildOptions_MalformedHeader(t *testing.T) {
	if _, err := buildOptions(&fetchCmd{Header: []string{"no-colon-here"}}); err == nil {
		t.Fatal("buildOptions() expected error for malformed header, got nil")
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", timex.ErrTimeout, "timed out"},
		{"canceled", context.Canceled, "interrupted"},
		{"deadline", context.DeadlineExceeded, "deadline"},
		{"other", errors.New("connection refused"), "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("mapError(%v) = %q, want mention of %q", tt.err, got, tt.want)
			}
		})
	}
}
