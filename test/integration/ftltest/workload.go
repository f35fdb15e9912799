// Package ftltest drives an FTL over a real backend for integration tests.
package ftltest

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/ftl"
	"github.com/marmos91/ssdsim/pkg/nand"
)

// Geometry is small enough that a few dozen writes force GC.
func Geometry() nand.Geometry {
	return nand.Geometry{PageSize: 512, PagesPerBlock: 4, PhysicalBlocks: 5, LogicalBlocks: 3}
}

// RunWorkload provisions store, builds an FTL on it and checks random
// overwrites against a flat oracle until GC has run several times.
func RunWorkload(t *testing.T, store nand.Store, backend string) {
	t.Helper()
	ctx := t.Context()
	geom := store.Geometry()

	require.NoError(t, store.Provision(ctx))
	device, err := ftl.New(store, ftl.Config{Geometry: geom, Backend: backend})
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })

	capacity := int(device.Capacity())
	oracle := make([]byte, capacity)
	rng := rand.New(rand.NewPCG(7, 11))

	for i := range 120 {
		offset := rng.IntN(capacity)
		length := 1 + rng.IntN(min(3*geom.PageSize, capacity-offset))
		data := make([]byte, length)
		for j := range data {
			data[j] = byte(rng.IntN(256))
		}

		n, err := device.Write(ctx, uint64(offset), data)
		require.NoError(t, err, "write %d at %d+%d", i, offset, length)
		require.Equal(t, length, n)
		copy(oracle[offset:], data)
	}

	require.NoError(t, device.CheckConsistency())
	require.NoError(t, device.HealthCheck(ctx))

	size := int(device.LogicalSize())
	got, err := device.Read(ctx, 0, size)
	require.NoError(t, err)
	require.True(t, bytes.Equal(oracle[:size], got), "device content diverged from oracle")

	stats := device.Stats()
	require.Positive(t, stats.GCCycles)
	require.NotNil(t, stats.WriteAmplification)
	require.GreaterOrEqual(t, *stats.WriteAmplification, 1.0)
}
