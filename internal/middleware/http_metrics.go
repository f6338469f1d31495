package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FindPrinterPath is the route of the printer ranking endpoint.
const FindPrinterPath = "/api/spk-printer/find-printer"

// knownRoutes are recorded under their own path label.
var knownRoutes = map[string]bool{
	"/":             true,
	FindPrinterPath: true,
	"/health":       true,
	"/ready":        true,
	"/metrics":      true,
}

// normalizePath maps a request path to a bounded set of metric labels so that
// scanners probing random URLs cannot blow up label cardinality.
func normalizePath(path string) string {
	if knownRoutes[path] {
		return path
	}
	if trimmed := strings.TrimSuffix(path, "/"); trimmed != path && knownRoutes[trimmed] {
		return trimmed
	}
	if strings.HasPrefix(path, "/debug/pprof") {
		return "/debug/pprof"
	}
	return "other"
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	if !mrw.wroteHeader {
		mrw.WriteHeader(http.StatusOK)
	}
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (mrw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return mrw.ResponseWriter
}

// HTTPMetrics is a middleware that records HTTP request metrics: duration,
// request and response sizes, request counts, and requests in flight.
// Health check endpoints (/health, /ready) are not recorded.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			metrics.httpInFlight.Inc()
			defer metrics.httpInFlight.Dec()

			mrw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(mrw, r)

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				mrw.size,
			)
		})
	}
}
