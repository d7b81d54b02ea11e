package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oohlalaa",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "oohlalaa",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	prometheus.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// Observe records one finished request for a handler.
func (m *ServerMetrics) Observe(handler, status string, start time.Time) {
	m.Requests.WithLabelValues(handler, status).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
}

// JobMetrics counts runs of a periodic job and the entities it touched.
type JobMetrics struct {
	Runs      *prometheus.CounterVec
	Processed prometheus.Counter
}

func NewJobMetrics(service, job string) *JobMetrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oohlalaa",
		Subsystem: service,
		Name:      job + "_runs_total",
		Help:      "Total runs of the " + job + " job.",
	}, []string{"status"})
	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "oohlalaa",
		Subsystem: service,
		Name:      job + "_processed_total",
		Help:      "Entities processed by the " + job + " job.",
	})
	prometheus.MustRegister(runs, processed)
	return &JobMetrics{Runs: runs, Processed: processed}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
