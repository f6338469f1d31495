package middleware

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

// ProfilingConfig configures the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether /debug/pprof/* is exposed. Development only.
	Enabled bool

	// Environment is checked again here; production never gets profiling.
	Environment string
}

// Profiling returns middleware that serves pprof endpoints under /debug/pprof/
// and passes every other request through.
func Profiling(config ProfilingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}
		if config.Environment == "production" || config.Environment == "prod" {
			slog.Error("profiling cannot be enabled in production environment",
				"environment", config.Environment,
			)
			return next
		}

		slog.Warn("profiling endpoints enabled - DEVELOPMENT ONLY",
			"environment", config.Environment,
			"endpoints", "/debug/pprof/*",
		)

		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/debug/pprof/") {
				mux.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
