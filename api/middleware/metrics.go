package middleware

import (
	"net/http"
	"time"

	"github.com/sbpremium/gifts-backend/pkg/metrics"
)

// Metrics observes request latency keyed by the matched chi route pattern.
func Metrics(m *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			route := routePattern(r)
			if route == r.URL.Path && rec.status == http.StatusNotFound {
				route = "unmatched"
			}
			m.Observe(r.Method, route, rec.status, time.Since(start))
		})
	}
}
