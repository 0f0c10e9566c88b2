// Package middleware contains HTTP middleware for the API.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPMetrics records request-level metrics.
type HTTPMetrics interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
	IncHTTPRequestsInProgress(method, path string)
	DecHTTPRequestsInProgress(method, path string)
}

// MetricsMiddleware records Prometheus metrics for every request.
type MetricsMiddleware struct {
	metrics HTTPMetrics
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(metrics HTTPMetrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// Metrics observes request durations and in-progress counts, labelled by the
// matched route pattern rather than the raw URL to keep cardinality bounded.
func (m *MetricsMiddleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		m.metrics.IncHTTPRequestsInProgress(r.Method, r.URL.Path)
		next.ServeHTTP(rw, r)
		m.metrics.DecHTTPRequestsInProgress(r.Method, r.URL.Path)

		path := r.URL.Path
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		m.metrics.ObserveHTTPRequest(r.Method, path, rw.statusCode, time.Since(start))
	})
}
