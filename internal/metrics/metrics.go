// Package metrics exposes Prometheus collectors for pickup checks.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder owns a registry and implements pickup.Observer.
type Recorder struct {
	registry *prometheus.Registry

	rows          *prometheus.CounterVec
	availableRows *prometheus.CounterVec
	errors        *prometheus.CounterVec
	notifications prometheus.Counter
	runs          *prometheus.CounterVec
	runDuration   prometheus.Gauge
	lastRun       prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ pickup.Observer = (*Recorder)(nil)

// New registers every collector on a fresh registry. When withRuntime is
// set the Go and process collectors are registered as well.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickup_rows_total",
			Help: "Store rows extracted, labeled by zip.",
		}, []string{"zip"}),
		availableRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickup_available_rows_total",
			Help: "Store rows reporting availability, labeled by zip.",
		}, []string{"zip"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickup_errors_total",
			Help: "Errors recorded in reports, labeled by stage.",
		}, []string{"stage"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pickup_notifications_total",
			Help: "Availability notifications dispatched.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickup_runs_total",
			Help: "Completed runs, labeled by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pickup_last_run_duration_seconds",
			Help: "Wall time of the most recent run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pickup_last_run_timestamp_seconds",
			Help: "Unix time the most recent run finished.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		r.rows, r.availableRows, r.errors, r.notifications,
		r.runs, r.runDuration, r.lastRun,
		r.httpRequests, r.httpDuration,
	)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveZip counts rows extracted for zip.
func (r *Recorder) ObserveZip(zip string, rows, available int) {
	r.rows.WithLabelValues(zip).Add(float64(rows))
	r.availableRows.WithLabelValues(zip).Add(float64(available))
}

// ObserveError counts a recorded error.
func (r *Recorder) ObserveError(stage string) {
	r.errors.WithLabelValues(stage).Inc()
}

// ObserveNotification counts a dispatched notification.
func (r *Recorder) ObserveNotification() {
	r.notifications.Inc()
}

// ObserveRun records the outcome and wall time of a finished run.
func (r *Recorder) ObserveRun(outcome string, d time.Duration) {
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.Set(d.Seconds())
	r.lastRun.SetToCurrentTime()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func (r *Recorder) ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Push sends the registry to a Pushgateway. One-shot runs exit before a
// scrape could happen, so this is how they report.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
