package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/marmos91/ssdsim/internal/bytesize"
	"github.com/marmos91/ssdsim/pkg/ftl"
)

// Device is the part of the FTL exposed over HTTP.
type Device interface {
	HealthChecker
	Read(ctx context.Context, offset uint64, length int) ([]byte, error)
	Write(ctx context.Context, offset uint64, data []byte) (int, error)
	Format(ctx context.Context, size uint64) error
	Stats() ftl.Stats
}

// ReadResponse is the body of GET /api/v1/device/data.
type ReadResponse struct {
	Offset uint64 `json:"offset"`
	Length int    `json:"length"`
	Data   []byte `json:"data"`
}

// WriteRequest is the body of PUT /api/v1/device/data.
type WriteRequest struct {
	Offset uint64 `json:"offset"`
	Data   []byte `json:"data"`
}

// WriteResponse is returned after a successful write.
type WriteResponse struct {
	Written     int    `json:"written"`
	LogicalSize uint64 `json:"logical_size"`
}

// FormatRequest is the body of POST /api/v1/device/format.
type FormatRequest struct {
	Size bytesize.ByteSize `json:"size"`
}

// DeviceHandler serves host I/O against the simulated device.
type DeviceHandler struct {
	device Device
}

// NewDeviceHandler creates a new device handler.
func NewDeviceHandler(device Device) *DeviceHandler {
	return &DeviceHandler{device: device}
}

// Stats handles GET /api/v1/device.
func (h *DeviceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.device.Stats())
}

// Read handles GET /api/v1/device/data?offset=N&length=M.
//
// The returned data is clamped to the logical size, so Length may be
// smaller than requested.
func (h *DeviceHandler) Read(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	offset, err := strconv.ParseUint(q.Get("offset"), 10, 64)
	if err != nil {
		BadRequest(w, "offset must be a non-negative integer")
		return
	}
	length, err := strconv.Atoi(q.Get("length"))
	if err != nil || length < 0 {
		BadRequest(w, "length must be a non-negative integer")
		return
	}

	data, err := h.device.Read(r.Context(), offset, length)
	if err != nil {
		WriteDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ReadResponse{
		Offset: offset,
		Length: len(data),
		Data:   data,
	})
}

// Write handles PUT /api/v1/device/data.
func (h *DeviceHandler) Write(w http.ResponseWriter, r *http.Request) {
	var req WriteRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	n, err := h.device.Write(r.Context(), req.Offset, req.Data)
	if err != nil {
		WriteDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, WriteResponse{
		Written:     n,
		LogicalSize: h.device.Stats().LogicalSize,
	})
}

// Format handles POST /api/v1/device/format.
func (h *DeviceHandler) Format(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.device.Format(r.Context(), req.Size.Uint64()); err != nil {
		WriteDeviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.device.Stats())
}
