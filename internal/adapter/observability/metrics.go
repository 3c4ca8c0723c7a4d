package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	JobsDispatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "litscan_jobs_dispatched_total",
			Help: "Total number of jobs handed to consumers",
		},
	)
	DispatchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "litscan_dispatch_failures_total",
			Help: "Total number of failed dispatch attempts",
		},
	)
	JobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litscan_jobs_finished_total",
			Help: "Total number of jobs finished by outcome",
		},
		[]string{"status"},
	)
	ArticlesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litscan_articles_processed_total",
			Help: "Total number of articles processed by outcome (saved, unavailable, skipped, duplicate, error)",
		},
		[]string{"outcome"},
	)
	LiteratureRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litscan_literature_requests_total",
			Help: "Total number of requests to the literature API by operation",
		},
		[]string{"operation"},
	)
)

// InitMetrics registers all metrics once per process.
func InitMetrics() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		JobsDispatchedTotal,
		DispatchFailuresTotal,
		JobsFinishedTotal,
		ArticlesProcessedTotal,
		LiteratureRequestsTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
