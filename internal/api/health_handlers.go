package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readinessTimeout bounds all dependency checks of one readiness probe.
const readinessTimeout = 5 * time.Second

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlers provides health and readiness check endpoints for Kubernetes probes.
type HealthHandlers struct {
	// checkers are keyed by the name reported in the checks map.
	checkers map[string]HealthChecker
	// calibration describes the active tie-break order, reported by /ready.
	calibration string
}

// HealthHandlersConfig configures the health check handlers.
type HealthHandlersConfig struct {
	// RedisChecker checks the shared rate limit store; nil when rate limiting is in-memory.
	RedisChecker HealthChecker
	// Calibration is a human-readable summary of the tie-break order.
	Calibration string
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	h := &HealthHandlers{
		checkers:    make(map[string]HealthChecker),
		calibration: config.Calibration,
	}
	if config.RedisChecker != nil {
		h.checkers["redis"] = config.RedisChecker
	}
	return h
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	Calibration string            `json:"calibration,omitempty"`
	Timestamp   string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
// Returns 200 whenever the process can serve requests.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, r, "GET, HEAD")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe).
// Returns 503 if any configured dependency fails its check.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, r, "GET, HEAD")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"ranking": "ok"}
	healthy := true
	for name, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			checks[name] = "error"
			healthy = false
			slog.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, r.Context(), code, HealthResponse{
		Status:      status,
		Checks:      checks,
		Calibration: h.calibration,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}
