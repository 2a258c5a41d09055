package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/prometheus"
)

// RequestMetrics returns middleware recording request count, duration, and
// body sizes per method and route.  The matched chi route pattern is used as
// the path label so that parameterised routes do not explode label
// cardinality.  A nil metrics value disables recording entirely.
func RequestMetrics(metrics *prometheus.AppMetrics) func(http.Handler) http.Handler {
	if metrics == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newWrappedResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			reqSize := r.ContentLength
			if reqSize < 0 {
				reqSize = 0
			}

			prometheus.RecordHTTPRequest(metrics, r.Method, path, wrapped.statusCode,
				time.Since(start), reqSize, wrapped.bytesWritten)
		})
	}
}
