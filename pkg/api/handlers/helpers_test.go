package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/ftl"
	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/memory"
)

// testGeometry is a 4-block device with 10 pages of 512 bytes.
func testGeometry() nand.Geometry {
	return nand.Geometry{PageSize: 512, PagesPerBlock: 10, PhysicalBlocks: 4, LogicalBlocks: 3}
}

func newTestDevice(t *testing.T) (*ftl.FTL, *memory.Store) {
	t.Helper()
	geom := testGeometry()
	store, err := memory.New(geom)
	require.NoError(t, err)

	device, err := ftl.New(store, ftl.Config{Geometry: geom, Backend: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })
	return device, store
}
