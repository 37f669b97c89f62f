package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit returns a RoundTripper that blocks until the limiter grants a
// token before each relay call. Waiting respects the request context, so a
// canceled or expired context surfaces as the transport error it would be
// anywhere else in the call.
func RateLimit(limiter *rate.Limiter, next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if err := limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
		return next.RoundTrip(req)
	})
}
