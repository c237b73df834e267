package mw

import (
	"net/http"
	"strings"
	"time"

	"github.com/clipstream-go/clipstream/pkg/gateway/metrics"
)

// Metrics records request counts and latency labeled by the matched mux
// pattern, keeping label cardinality bounded.
func Metrics(m *metrics.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if i := strings.IndexByte(route, ' '); i >= 0 {
			route = route[i+1:]
		}
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(r.Method, route, sw.status, time.Since(start))
	})
}
