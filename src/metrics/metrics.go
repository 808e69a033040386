package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the collectors exported on /metrics. Each instance has its
// own registry so tests can build as many as they need.
type Recorder struct {
	registry          *prometheus.Registry
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	statusTransitions *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fundledger",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "operations_total",
			Help:      "Service operations by name and result.",
		}, []string{"operation", "result"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fundledger",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "investment_status_transitions_total",
			Help:      "Investment status changes made by the exit workflows.",
		}, []string{"status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundledger",
			Name:      "dashboard_cache_lookups_total",
			Help:      "Dashboard cache lookups by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.operations,
		r.operationDuration,
		r.statusTransitions,
		r.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records a service operation outcome.
func (r *Recorder) Observe(operation string, success bool, duration time.Duration) {
	if r == nil || operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.operations.WithLabelValues(operation, result).Inc()
	r.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveHTTP records one served request.
func (r *Recorder) ObserveHTTP(method, route string, code int, duration time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// StatusTransition counts an investment moved to status by an exit workflow.
func (r *Recorder) StatusTransition(status string) {
	if r == nil {
		return
	}
	r.statusTransitions.WithLabelValues(status).Inc()
}

func (r *Recorder) CacheHit() {
	if r != nil {
		r.cacheLookups.WithLabelValues("hit").Inc()
	}
}

func (r *Recorder) CacheMiss() {
	if r != nil {
		r.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the registry for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
