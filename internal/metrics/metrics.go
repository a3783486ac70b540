package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "takopi",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "takopi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "takopi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	meshyCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "takopi",
			Subsystem: "meshy",
			Name:      "calls_total",
			Help:      "Total number of Meshy API calls by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	meshyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "takopi",
			Subsystem: "meshy",
			Name:      "call_duration_seconds",
			Help:      "Duration of Meshy API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms to ~6s
		},
		[]string{"endpoint"},
	)

	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "takopi",
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Total number of transactional e-mails by template and outcome.",
		},
		[]string{"template", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		meshyCalls,
		meshyDuration,
		emailsSent,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest tracks one handled request. path should be the route template, not the raw URL.
func RecordHTTPRequest(method, path, status string, d time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func RecordMeshyCall(endpoint string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	meshyCalls.WithLabelValues(endpoint, outcome).Inc()
	meshyDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func RecordEmail(template string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	emailsSent.WithLabelValues(template, outcome).Inc()
}
