package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/OIRNOIR/oproxy-go/internal/metrics"
)

// Metrics returns a RoundTripper that records Prometheus metrics for each
// relay call. Failed calls are observed in the duration histogram but not in
// the response counter, since there is no status code to label them with.
func Metrics(m *metrics.Metrics, next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		m.RelayInFlight.Inc()
		defer m.RelayInFlight.Dec()

		start := time.Now()

		resp, err := next.RoundTrip(req)

		duration := time.Since(start).Seconds()
		method := metrics.NormalizeMethod(req.Method)
		m.RelayDuration.WithLabelValues(method).Observe(duration)

		if err != nil {
			return nil, err
		}

		m.RelayResponses.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
		return resp, nil
	})
}
