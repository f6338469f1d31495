package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds the configuration for CORS middleware.
type CORSConfig struct {
	AllowedOrigins   []string // Allowed origins; no wildcards. Empty disables CORS.
	AllowedMethods   []string // Defaults to POST, GET, OPTIONS
	AllowedHeaders   []string // Defaults to Content-Type, X-Request-ID
	ExposedHeaders   []string // Defaults to the request ID and rate limit headers
	AllowCredentials bool
	MaxAge           int // Preflight cache duration in seconds
}

func (c CORSConfig) withDefaults() CORSConfig {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{http.MethodPost, http.MethodGet, http.MethodOptions}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", RequestIDHeader}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	}
	return c
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing.
// Only explicitly listed origins are allowed; other cross-origin requests are
// rejected with 403. Requests without an Origin header pass through untouched.
// Preflight OPTIONS requests are answered with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			allowed[origin] = true
		}
	}

	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if !allowed[origin] {
				writeJSONError(w, http.StatusForbidden, "forbidden", "Origin not allowed")
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			w.Header().Set("Access-Control-Expose-Headers", exposed)
			next.ServeHTTP(w, r)
		})
	}
}
