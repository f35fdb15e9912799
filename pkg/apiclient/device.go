package apiclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/marmos91/ssdsim/pkg/ftl"
)

// ReadResult is the data returned by a device read.
type ReadResult struct {
	Offset uint64 `json:"offset"`
	Length int    `json:"length"`
	Data   []byte `json:"data"`
}

// WriteResult reports an accepted write.
type WriteResult struct {
	Written     int    `json:"written"`
	LogicalSize uint64 `json:"logical_size"`
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type writeRequest struct {
	Offset uint64 `json:"offset"`
	Data   []byte `json:"data"`
}

type formatRequest struct {
	Size uint64 `json:"size"`
}

// Stats returns the device counters and block states.
func (c *Client) Stats(ctx context.Context) (*ftl.Stats, error) {
	var stats ftl.Stats
	if err := c.get(ctx, "/api/v1/device", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Read reads up to length bytes at offset. The server clamps the result to
// the logical size.
func (c *Client) Read(ctx context.Context, offset uint64, length int) (*ReadResult, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatUint(offset, 10))
	q.Set("length", strconv.Itoa(length))

	var result ReadResult
	if err := c.get(ctx, "/api/v1/device/data?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Write stores data at offset.
func (c *Client) Write(ctx context.Context, offset uint64, data []byte) (*WriteResult, error) {
	var result WriteResult
	if err := c.put(ctx, "/api/v1/device/data", writeRequest{Offset: offset, Data: data}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Format drops every mapping and sets the logical size.
func (c *Client) Format(ctx context.Context, size uint64) (*ftl.Stats, error) {
	var stats ftl.Stats
	if err := c.post(ctx, "/api/v1/device/format", formatRequest{Size: size}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health calls the readiness probe. An unhealthy device is reported as an
// *APIError whose Title carries the server's reason.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.get(ctx, "/health/ready", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
