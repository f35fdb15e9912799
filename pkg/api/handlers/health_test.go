package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "expected Data to be a map, got %T", resp.Data)
	assert.Equal(t, "ssdsim", data["service"])
}

func TestReadiness(t *testing.T) {
	t.Run("NoDevice", func(t *testing.T) {
		handler := NewHealthHandler(nil)
		w := httptest.NewRecorder()

		handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "device not initialized", resp.Error)
	})

	t.Run("Healthy", func(t *testing.T) {
		device, _ := newTestDevice(t)
		handler := NewHealthHandler(device)
		w := httptest.NewRecorder()

		handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Status)
	})

	t.Run("MediaClosed", func(t *testing.T) {
		device, store := newTestDevice(t)
		require.NoError(t, store.Close())
		handler := NewHealthHandler(device)
		w := httptest.NewRecorder()

		handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Contains(t, resp.Error, "media unavailable")
	})
}
