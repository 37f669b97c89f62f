// Package metrics provides Prometheus metrics for the tunnel client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for relay call latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metric collectors for the tunnel client.
type Metrics struct {
	Registry *prometheus.Registry

	RelayDuration  *prometheus.HistogramVec
	RelayResponses *prometheus.CounterVec
	RelayInFlight  prometheus.Gauge
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RelayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oproxy_relay_request_duration_seconds",
			Help:    "Relay call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method"}),

		RelayResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oproxy_relay_responses_total",
			Help: "Total relay responses by method and transport status code.",
		}, []string{"method", "status_code"}),

		RelayInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oproxy_relay_requests_in_flight",
			Help: "Number of relay calls currently in flight.",
		}),
	}

	reg.MustRegister(
		m.RelayDuration,
		m.RelayResponses,
		m.RelayInFlight,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}
