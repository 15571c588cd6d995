package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/andrescamacho/flowtrading-go/internal/adapters/metrics"
)

// RequestMetrics records one metrics.RecordRequest observation per
// completed request, labeled by the matched chi route pattern rather
// than the raw path so that path-parameterized routes (e.g.
// "/demand/{id}") don't blow up metric cardinality.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.RecordRequest(r.Method, pattern, ww.Status(), time.Since(start).Seconds())
	})
}
