package loadgen

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus instruments of one run
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	targetQPS       prometheus.Gauge
}

// NewMetrics registers the loadgen instruments on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vend_loadgen",
			Name:      "requests_total",
			Help:      "Requests sent by the load generator.",
		}, []string{"operation", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vend_loadgen",
			Name:      "request_duration_seconds",
			Help:      "Latency of load generator requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vend_loadgen",
			Name:      "in_flight_requests",
			Help:      "Requests awaiting a response.",
		}),
		targetQPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vend_loadgen",
			Name:      "target_qps",
			Help:      "Configured request rate.",
		}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.inFlight, m.targetQPS)
	return m
}

// Observe records one finished request. status 0 means a transport error.
func (m *Metrics) Observe(operation string, status int, d time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	m.requestsTotal.WithLabelValues(operation, label).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
