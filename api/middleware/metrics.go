package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cartside/cartside-backend/pkg/metrics"
)

// Metrics records request count and latency per route pattern.
func Metrics(httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpMetrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			httpMetrics.Observe(r.Method, routePattern(r), strconv.Itoa(rec.status), time.Since(start))
		})
	}
}
