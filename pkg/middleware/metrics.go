package middleware

import (
	"net/http"
	"time"

	"github.com/weavenet/weave-api/pkg/metrics"
)

// Metrics records request duration and in-flight count. Requests are labelled
// by the ServeMux pattern that matched, so path ids do not create new series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		// ServeMux sets r.Pattern on the request it was handed.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(r.Method, route, wrapped.statusCode, time.Since(start))
	})
}
