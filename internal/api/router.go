package api

import (
	"net/http"

	"github.com/onnwee/spk/internal/middleware"
)

// RouterConfig lists the handlers mounted by NewRouter.
type RouterConfig struct {
	Printers *PrinterHandlers
	Health   *HealthHandlers
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter mounts the service routes on a new ServeMux.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(middleware.FindPrinterPath, cfg.Printers.FindPrinter)
	mux.HandleFunc("/health", cfg.Health.Health)
	mux.HandleFunc("/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			NotFound(w, r)
			return
		}
		writeJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": "spk",
			"find":    middleware.FindPrinterPath,
		})
	})
	return mux
}
