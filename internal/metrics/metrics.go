// Package metrics exposes Prometheus instrumentation for calibration runs and
// the HTTP service. Every Collector owns its own registry, so several can
// coexist in one process (tests, embedded servers).
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storagecast"

// Run outcomes recorded by RecordRun.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// Collector groups the application's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry
	handler  http.Handler

	runs           *prometheus.CounterVec
	requests       *prometheus.CounterVec
	activeRequests prometheus.Gauge
	fits           prometheus.Counter
	evaluations    prometheus.Counter
	fitDuration    prometheus.Histogram
}

// NewCollector creates a Collector with a private registry that also carries
// the Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Calibration runs by outcome.",
		}, []string{"status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "code"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "HTTP requests currently being served.",
		}),
		fits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Completed growth-rate fits.",
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_evaluations_total",
			Help:      "Logistic evaluations performed by the grid search.",
		}),
		fitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Wall time of a single growth-rate fit.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.runs, c.requests, c.activeRequests, c.fits, c.evaluations, c.fitDuration,
	)
	c.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return c
}

// ObserveFit records one completed fit. It satisfies calibration.Observer.
func (c *Collector) ObserveFit(_ float64, evaluations int, elapsed time.Duration) {
	c.fits.Inc()
	c.evaluations.Add(float64(evaluations))
	c.fitDuration.Observe(elapsed.Seconds())
}

// RecordRun counts a finished run under status.
func (c *Collector) RecordRun(status string) {
	c.runs.WithLabelValues(status).Inc()
}

// RecordRequest counts a served HTTP request.
func (c *Collector) RecordRequest(path string, code int) {
	c.requests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// IncrementActiveRequests marks the start of a request.
func (c *Collector) IncrementActiveRequests() { c.activeRequests.Inc() }

// DecrementActiveRequests marks the end of a request.
func (c *Collector) DecrementActiveRequests() { c.activeRequests.Dec() }

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// WritePrometheus serves the metrics in the Prometheus text format.
func (c *Collector) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}
