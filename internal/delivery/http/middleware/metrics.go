package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rfidtags/internal/metrics"
)

// Metrics records request count, latency and in-flight requests.
// Labels are kept low-cardinality by using the matched mux pattern.
func Metrics(m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		wrapped := newResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(wrapped.status),
		}
		m.HTTPRequests.With(labels).Inc()
		m.HTTPDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}
