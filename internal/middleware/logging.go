// Package middleware provides http.RoundTripper wrappers for the relay transport.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging returns a RoundTripper that logs each relay call with slog.
func Logging(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()

		resp, err := next.RoundTrip(req)

		if err != nil {
			logger.Error("relay call failed",
				"method", req.Method,
				"host", req.URL.Host,
				"duration_ms", time.Since(start).Milliseconds(),
				"err", err,
			)
			return nil, err
		}

		logger.Info("relay call",
			"method", req.Method,
			"host", req.URL.Host,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		return resp, nil
	})
}

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
