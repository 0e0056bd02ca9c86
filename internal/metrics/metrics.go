// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements service.SearchRecorder and records HTTP traffic.
type Collector struct {
	searchLatency  prometheus.Histogram
	sourceResults  *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookfinder_search_duration_seconds",
			Help:    "Wall time of a merged book search.",
			Buckets: prometheus.DefBuckets,
		}),
		sourceResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookfinder_search_source_results_total",
			Help: "Results contributed by each search source.",
		}, []string{"source"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookfinder_search_source_failures_total",
			Help: "Search source lookups that failed and were dropped.",
		}, []string{"source"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookfinder_http_requests_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookfinder_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.searchLatency,
		c.sourceResults,
		c.sourceFailures,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// ObserveSearch records the duration of one merged search.
func (c *Collector) ObserveSearch(elapsed time.Duration) {
	c.searchLatency.Observe(elapsed.Seconds())
}

// ObserveSource records one source's outcome within a search.
func (c *Collector) ObserveSource(source string, results int, err error) {
	if err != nil {
		c.sourceFailures.WithLabelValues(source).Inc()
		return
	}
	c.sourceResults.WithLabelValues(source).Add(float64(results))
}

// RecordHTTP records one served request.
func (c *Collector) RecordHTTP(method string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpLatency.Observe(elapsed.Seconds())
}

// Middleware records every request passing through it.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.RecordHTTP(r.Method, status, time.Since(start))
	})
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
