package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/ftl"
	"github.com/marmos91/ssdsim/pkg/metrics"
	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/memory"
)

func TestFTLMetrics_Operations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFTLMetrics(reg)

	m.ObserveOperation("write", time.Millisecond, nil)
	m.ObserveOperation("write", time.Millisecond, errors.New("boom"))
	m.ObserveMedia("erase", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("write", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("write", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mediaTotal.WithLabelValues("erase", "success")))
}

func TestFTLMetrics_Programs(t *testing.T) {
	m := NewFTLMetrics(prometheus.NewRegistry())

	m.RecordPageProgram(512, false)
	m.RecordPageProgram(512, true)
	m.RecordPageProgram(512, true)
	m.RecordHostBytes(700)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.programmedPages.WithLabelValues("host")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.programmedPages.WithLabelValues("gc")))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.programmedBytes.WithLabelValues("gc")))
	assert.Equal(t, 700.0, testutil.ToFloat64(m.hostBytes))
}

func TestFTLMetrics_NilSafe(t *testing.T) {
	var m *ftlMetrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("read", time.Second, nil)
		m.ObserveMedia("read_page", time.Second, nil)
		m.RecordHostBytes(1)
		m.RecordPageProgram(1, true)
		m.RecordGC(1, time.Second)
		m.RecordEraseFailure()
		m.SetFreeBlocks(1)
		m.SetWriteAmplification(1)
	})
}

func TestNewFTLMetrics_Registry(t *testing.T) {
	metrics.Reset()
	t.Cleanup(metrics.Reset)
	assert.Nil(t, metrics.NewFTLMetrics(), "disabled until the registry exists")

	reg := metrics.InitRegistry()
	m := metrics.NewFTLMetrics()
	require.NotNil(t, m)

	geom := nand.Geometry{PageSize: 512, PagesPerBlock: 4, PhysicalBlocks: 5, LogicalBlocks: 3}
	store, err := memory.New(geom)
	require.NoError(t, err)
	device, err := ftl.New(store, ftl.Config{Geometry: geom, Backend: "memory"}, ftl.WithMetrics(m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })

	// Fill the logical space, then rewrite it to force GC.
	for round := range 2 {
		for lba := range 12 {
			_, err := device.Write(t.Context(), uint64(lba*512), make([]byte, 512))
			require.NoError(t, err, "round %d lba %d", round, lba)
		}
	}

	count, err := testutil.GatherAndCount(reg,
		"ssdsim_operations_total",
		"ssdsim_gc_cycles_total",
		"ssdsim_free_blocks",
		"ssdsim_write_amplification",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 24.0, testutil.ToFloat64(m.(*ftlMetrics).operationsTotal.WithLabelValues("write", "success")))
	assert.Positive(t, testutil.ToFloat64(m.(*ftlMetrics).gcCycles))
}
