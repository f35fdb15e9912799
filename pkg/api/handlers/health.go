package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports whether the device can serve requests.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
//
// Health endpoints provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the media reachable and are the maps consistent?
type HealthHandler struct {
	device HealthChecker
}

// NewHealthHandler creates a new health handler.
//
// The device may be nil, in which case readiness reports unhealthy.
func NewHealthHandler(device HealthChecker) *HealthHandler {
	return &HealthHandler{device: device}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "ssdsim",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Runs the device health check with a 5 second budget. Returns 503 Service
// Unavailable when the media backend fails or the maps are inconsistent.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.device == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("device not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.device.HealthCheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"latency": time.Since(start).String(),
	}))
}
