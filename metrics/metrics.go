// Package metrics publishes Prometheus metrics for cache and network
// activity. A nil Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes.
const (
	LookupHit  = "hit"
	LookupMiss = "miss"
)

// Recorder publishes Prometheus metrics for client activity.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	cacheLookups *prometheus.CounterVec
	cacheStores  prometheus.Counter
	cacheDrops   prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpErrors   *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a
// dedicated registry is created so multiple recorders can coexist without
// conflicting with the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apicache",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by outcome.",
	}, []string{"outcome"})

	cacheStores := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "apicache",
		Subsystem: "cache",
		Name:      "stores_total",
		Help:      "Responses stored in the cache.",
	})

	cacheDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "apicache",
		Subsystem: "cache",
		Name:      "drops_total",
		Help:      "Cache entries removed by invalidation.",
	})

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apicache",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Completed transport calls by method and status code.",
	}, []string{"method", "status_code"})

	httpErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apicache",
		Subsystem: "http",
		Name:      "errors_total",
		Help:      "Failed transport calls by method.",
	}, []string{"method"})

	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "apicache",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for transport calls.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method"})

	reg.MustRegister(cacheLookups, cacheStores, cacheDrops, httpRequests, httpErrors, httpLatency)

	return &Recorder{
		gatherer:     reg,
		handler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		cacheLookups: cacheLookups,
		cacheStores:  cacheStores,
		cacheDrops:   cacheDrops,
		httpRequests: httpRequests,
		httpErrors:   httpErrors,
		httpLatency:  httpLatency,
	}
}

// Lookup records a cache lookup with the given outcome.
func (r *Recorder) Lookup(outcome string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(outcome).Inc()
}

// Store records a response stored in the cache.
func (r *Recorder) Store() {
	if r == nil {
		return
	}
	r.cacheStores.Inc()
}

// Drop records n cache entries removed by invalidation.
func (r *Recorder) Drop(n int) {
	if r == nil {
		return
	}
	r.cacheDrops.Add(float64(n))
}

// HTTPRequest records a completed transport call.
func (r *Recorder) HTTPRequest(method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// HTTPError records a failed transport call.
func (r *Recorder) HTTPError(method string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpErrors.WithLabelValues(method).Inc()
	r.httpLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler exposes the recorder's registry over HTTP.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return r.handler
}

// Gatherer returns the underlying registry for test inspection.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return nil
	}
	return r.gatherer
}
