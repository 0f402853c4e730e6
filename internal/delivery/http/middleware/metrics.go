package middleware

import (
	"net/http"
	"time"

	"referralrewards/internal/metrics"
)

// MetricsMiddleware observes request latency labelled by the matched route
// pattern. It must wrap the ServeMux so that r.Pattern is set once next returns.
func MetricsMiddleware(m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		m.ObserveRequest(r.Method, r.Pattern, wrapped.status, time.Since(start))
	})
}
