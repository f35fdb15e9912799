package apiclient

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/api"
	"github.com/marmos91/ssdsim/pkg/ftl"
	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/memory"
)

func newTestServer(t *testing.T) (*Client, *ftl.FTL) {
	t.Helper()
	geom := nand.Geometry{PageSize: 512, PagesPerBlock: 10, PhysicalBlocks: 4, LogicalBlocks: 3}
	store, err := memory.New(geom)
	require.NoError(t, err)
	device, err := ftl.New(store, ftl.Config{Geometry: geom, Backend: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })

	var cfg api.APIConfig
	cfg.ApplyDefaults()
	srv := httptest.NewServer(api.NewRouter(device, cfg))
	t.Cleanup(srv.Close)
	return New(srv.URL), device
}

func TestDeviceRoundTrip(t *testing.T) {
	client, device := newTestServer(t)
	ctx := t.Context()

	payload := bytes.Repeat([]byte("ssd"), 300)
	wr, err := client.Write(ctx, 256, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), wr.Written)
	assert.Equal(t, uint64(256+len(payload)), wr.LogicalSize)

	rr, err := client.Read(ctx, 256, len(payload)+100)
	require.NoError(t, err)
	assert.Equal(t, payload, rr.Data)

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, device.Capacity(), stats.Capacity)
	assert.Equal(t, uint64(3), stats.PhysicalPagesWritten)
	assert.Equal(t, ftl.Live(3), stats.Blocks[0])
	require.NotNil(t, stats.WriteAmplification)

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	stats, err = client.Format(ctx, 1024)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), stats.LogicalSize)
	assert.Zero(t, stats.MappedPages)
}

func TestDeviceErrors(t *testing.T) {
	client, device := newTestServer(t)

	_, err := client.Write(t.Context(), device.Capacity(), []byte{1})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsCapacityExceeded())

	_, err = client.Read(t.Context(), 0, -1)
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsValidationError())
}
