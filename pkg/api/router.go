package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/ssdsim/pkg/api/handlers"
	"github.com/marmos91/ssdsim/pkg/api/middleware"
	"github.com/marmos91/ssdsim/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET  /health                - Liveness probe
//   - GET  /health/ready          - Readiness probe (media and map consistency)
//   - GET  /api/v1/device         - Device stats
//   - GET  /api/v1/device/data    - Host read
//   - PUT  /api/v1/device/data    - Host write
//   - POST /api/v1/device/format  - Format to a new logical size
//   - GET  /metrics               - Prometheus metrics, when enabled
func NewRouter(device handlers.Device, config APIConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	if config.WriteTimeout > 0 {
		r.Use(chimw.Timeout(config.WriteTimeout))
	}

	healthHandler := handlers.NewHealthHandler(device)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	if device != nil {
		deviceHandler := handlers.NewDeviceHandler(device)
		r.Route("/api/v1/device", func(r chi.Router) {
			r.Use(chimw.RequestSize(int64(config.MaxBodySize)))
			r.Get("/", deviceHandler.Stats)
			r.Get("/data", deviceHandler.Read)
			r.Put("/data", deviceHandler.Write)
			r.Post("/format", deviceHandler.Format)
		})
	}

	if metrics.IsEnabled() {
		r.Handle("/metrics", metrics.Handler())
	}

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}
