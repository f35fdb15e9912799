package ftl

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/memory"
)

func TestNew(t *testing.T) {
	t.Run("InvalidGeometry", func(t *testing.T) {
		store, err := memory.New(nand.DefaultGeometry())
		require.NoError(t, err)

		_, err = New(store, Config{Geometry: nand.Geometry{PageSize: 512}})
		assert.True(t, errors.Is(err, ErrInvalidGeometry))
	})

	t.Run("GeometryMismatch", func(t *testing.T) {
		store, err := memory.New(nand.DefaultGeometry())
		require.NoError(t, err)

		_, err = New(store, Config{Geometry: smallGeometry()})
		assert.True(t, errors.Is(err, ErrInvalidGeometry))
	})

	t.Run("InitialSizeAboveCapacity", func(t *testing.T) {
		geom := smallGeometry()
		store, err := memory.New(geom)
		require.NoError(t, err)

		_, err = New(store, Config{Geometry: geom, InitialSize: geom.Capacity() + 1})
		assert.True(t, errors.Is(err, ErrCapacityExceeded))
	})

	t.Run("FreshDevice", func(t *testing.T) {
		f, _ := newTestFTL(t, smallGeometry())
		stats := f.Stats()

		assert.NotEmpty(t, stats.DeviceID)
		assert.Equal(t, "memory", stats.Backend)
		assert.Equal(t, uint64(0), stats.LogicalSize)
		assert.Equal(t, uint64(15360), stats.Capacity)
		assert.Equal(t, 4, stats.FreeBlocks)
		assert.Equal(t, uint32(3), stats.StagingBlock)
		assert.Nil(t, stats.ActiveBlock)
		assert.Nil(t, stats.WriteAmplification)
		assert.True(t, math.IsNaN(f.WriteAmplification()))
	})
}

func TestRoundTrip_LastWriterWins(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())

	_, err := f.Write(t.Context(), 0, bytes.Repeat([]byte{'a'}, 2000))
	require.NoError(t, err)
	_, err = f.Write(t.Context(), 300, bytes.Repeat([]byte{'b'}, 700))
	require.NoError(t, err)
	_, err = f.Write(t.Context(), 900, []byte("cc"))
	require.NoError(t, err)

	want := bytes.Repeat([]byte{'a'}, 2000)
	copy(want[300:], bytes.Repeat([]byte{'b'}, 700))
	copy(want[900:], "cc")

	got, err := f.Read(t.Context(), 0, 2000)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	requireConsistent(t, f)
}

func TestRead_UnmappedIsZero(t *testing.T) {
	metrics := newRecordingMetrics()
	f, store := newTestFTL(t, smallGeometry(), WithMetrics(metrics))

	require.NoError(t, f.Format(t.Context(), 4096))

	// Unmapped pages never touch media, even when it is unavailable.
	store.SetUnavailable(0, true)
	got, err := f.Read(t.Context(), 0, 4096)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 4096), got)
	assert.Equal(t, 1, metrics.ops["read"])
}

func TestRead_Clamping(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())
	_, err := f.Write(t.Context(), 0, []byte("hello"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset uint64
		length int
		want   []byte
	}{
		{"within size", 1, 3, []byte("ell")},
		{"clamped to size", 3, 100, []byte("lo")},
		{"at size", 5, 10, []byte{}},
		{"beyond size", 100, 10, []byte{}},
		{"zero length", 0, 0, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Read(t.Context(), tt.offset, tt.length)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrite_PartialPages(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())

	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i%250 + 1)
	}
	n, err := f.Write(t.Context(), 100, payload)
	require.NoError(t, err)
	assert.Equal(t, 600, n)
	assert.Equal(t, uint64(700), f.LogicalSize())
	assert.Equal(t, uint64(2), f.PhysicalPagesWritten(), "pages 0 and 1 programmed once each")

	got, err := f.Read(t.Context(), 0, 700)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 100), got[:100])
	assert.Equal(t, payload, got[100:700])

	// The rest of page 1 was never written and reads as zero.
	_, err = f.Write(t.Context(), 1023, []byte{0xFF})
	require.NoError(t, err)
	got, err = f.Read(t.Context(), 700, 323)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 323), got)
}

func TestWrite_ZeroLength(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())

	n, err := f.Write(t.Context(), 4000, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(0), f.LogicalSize())
	assert.Equal(t, uint64(0), f.HostBytesWritten())
}

func TestWrite_CapacityExceeded(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())
	writePage(t, f, 0, 1)

	capacity := f.Capacity()
	n, err := f.Write(t.Context(), capacity-1, []byte{1, 2})
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	_, err = f.Write(t.Context(), math.MaxUint64, []byte{1})
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	assert.Equal(t, uint64(512), f.LogicalSize())
	assert.Equal(t, uint64(512), f.HostBytesWritten(), "rejected writes are not counted")
	assert.Equal(t, uint64(1), f.PhysicalPagesWritten())

	n, err = f.Write(t.Context(), capacity-1, []byte{9})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, capacity, f.LogicalSize())
}

func TestWrite_NeverInPlace(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())

	seen := make(map[PCA]bool)
	for i := range 25 {
		writePage(t, f, 3, i)
		pca, ok := f.tr.LookupForward(3)
		require.True(t, ok)

		if f.Stats().GCCycles == 0 {
			assert.False(t, seen[pca], "pca %s reused before any erase", pca)
		}
		seen[pca] = true
		assert.Equal(t, pageOf(512, i), readPage(t, f, 3))
		requireConsistent(t, f)
	}
}

func TestLogicalSize_Monotonic(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())

	_, err := f.Write(t.Context(), 5000, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, uint64(5001), f.LogicalSize())

	_, err = f.Write(t.Context(), 10, []byte("y"))
	require.NoError(t, err)
	assert.Equal(t, uint64(5001), f.LogicalSize())

	require.NoError(t, f.Format(t.Context(), 100))
	assert.Equal(t, uint64(100), f.LogicalSize())
}

func TestScenario_BlockRotation(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())

	for lba := range 9 {
		writePage(t, f, lba, lba)
	}
	writePage(t, f, 9, 9)

	for lba := range 10 {
		assert.Equal(t, pageOf(512, lba), readPage(t, f, lba))
	}
	assert.Equal(t, uint64(10), f.PhysicalPagesWritten())
	assert.Equal(t, uint64(0), f.Stats().GCCycles)

	// The eleventh page opens the next block without GC.
	writePage(t, f, 10, 10)
	stats := f.Stats()
	require.NotNil(t, stats.ActiveBlock)
	assert.Equal(t, uint32(1), *stats.ActiveBlock)
	assert.Equal(t, 2, stats.FreeBlocks)
	assert.Equal(t, uint64(0), stats.GCCycles)
	requireConsistent(t, f)
}

func TestScenario_ForcedGC(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())
	fillForGC(t, f)

	want := make(map[int][]byte)
	for lba := range 25 {
		want[lba] = readPage(t, f, lba)
	}
	waBefore := f.WriteAmplification()

	writePage(t, f, 25, 25)
	want[25] = pageOf(512, 25)

	assert.Equal(t, uint64(1), f.Stats().GCCycles)
	assert.Greater(t, f.WriteAmplification(), waBefore)
	for lba, data := range want {
		assert.Equal(t, data, readPage(t, f, lba), "lba %d", lba)
	}
	requireConsistent(t, f)
}

func TestWriteAmplification(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())
	assert.True(t, math.IsNaN(f.WriteAmplification()))

	writePage(t, f, 0, 0)
	assert.Equal(t, 1.0, f.WriteAmplification())

	// Sub-page writes program a whole page each.
	_, err := f.Write(t.Context(), 0, make([]byte, 128))
	require.NoError(t, err)
	assert.Equal(t, 1024.0/640.0, f.WriteAmplification())

	f.hostBytes = 0
	assert.True(t, math.IsInf(f.WriteAmplification(), 1))
}

func TestFormat(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())
	for lba := range 15 {
		writePage(t, f, lba, lba)
	}
	pagesBefore := f.PhysicalPagesWritten()

	err := f.Format(t.Context(), f.Capacity()+1)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.Equal(t, pageOf(512, 3), readPage(t, f, 3), "rejected format leaves tables untouched")

	require.NoError(t, f.Format(t.Context(), 8192))

	stats := f.Stats()
	assert.Equal(t, uint64(8192), stats.LogicalSize)
	assert.Equal(t, 4, stats.FreeBlocks)
	assert.Equal(t, uint32(3), stats.StagingBlock)
	assert.Nil(t, stats.ActiveBlock)
	assert.Equal(t, 0, stats.MappedPages)
	assert.Equal(t, pagesBefore, stats.PhysicalPagesWritten, "lifetime counters survive format")
	assert.Equal(t, make([]byte, 512), readPage(t, f, 3))

	writePage(t, f, 2, 42)
	pca, ok := f.tr.LookupForward(2)
	require.True(t, ok)
	assert.Equal(t, makePCA(0, 0), pca, "allocation restarts at block 0")
	requireConsistent(t, f)
}

func TestMediaUnavailable(t *testing.T) {
	f, store := newTestFTL(t, smallGeometry())
	writePage(t, f, 0, 1)
	writePage(t, f, 1, 2)

	store.SetUnavailable(0, true)

	_, err := f.Read(t.Context(), 0, 512)
	assert.True(t, errors.Is(err, ErrMediaUnavailable))
	assert.True(t, errors.Is(err, nand.ErrBlockUnavailable))

	var opErr *OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, makePCA(0, 0), opErr.PCA)

	n, err := f.Write(t.Context(), 0, []byte("x"))
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, ErrMediaUnavailable))
	requireConsistent(t, f)

	store.SetUnavailable(0, false)
	assert.Equal(t, pageOf(512, 1), readPage(t, f, 0))
}

func TestWrite_PartialFailureKeepsCommittedPages(t *testing.T) {
	f, store := newTestFTL(t, smallGeometry())
	for lba := range 9 {
		writePage(t, f, lba, lba)
	}

	// Page 9 of block 0 is free; the next block is 1. Make block 1 fail so a
	// two-page write commits its first page and fails on the second.
	store.SetUnavailable(1, true)
	n, err := f.Write(t.Context(), 9*512, bytes.Repeat([]byte{0xAB}, 1024))
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, ErrMediaUnavailable))

	store.SetUnavailable(1, false)
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 512), readPage(t, f, 9))
	assert.Equal(t, make([]byte, 512), readPage(t, f, 10))
	assert.Equal(t, uint64(11*512), f.LogicalSize(), "size grew before the failure")
	requireConsistent(t, f)
}

func TestClosed(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err := f.Read(t.Context(), 0, 1)
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = f.Write(t.Context(), 0, []byte{1})
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(f.Format(t.Context(), 0), ErrClosed))
	assert.True(t, errors.Is(f.HealthCheck(t.Context()), ErrClosed))
}

func TestHealthCheck(t *testing.T) {
	f, _ := newTestFTL(t, smallGeometry())
	writePage(t, f, 0, 0)
	assert.NoError(t, f.HealthCheck(t.Context()))

	// Corrupt the live counts behind the FTL's back.
	f.blocks.states[0] = Live(7)
	assert.Error(t, f.HealthCheck(t.Context()))
}

func TestConcurrentWriters(t *testing.T) {
	f, _ := newTestFTL(t, nand.DefaultGeometry())

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 25 {
				lba := w*25 + i
				_, err := f.Write(t.Context(), uint64(lba*512), pageOf(512, lba))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for lba := range 100 {
		assert.Equal(t, pageOf(512, lba), readPage(t, f, lba))
	}
	requireConsistent(t, f)
}

func TestMetrics(t *testing.T) {
	metrics := newRecordingMetrics()
	f, _ := newTestFTL(t, smallGeometry(), WithMetrics(metrics))

	assert.Equal(t, 4, metrics.freeBlocks)

	writePage(t, f, 0, 0)
	_, _ = f.Read(t.Context(), 0, 10)
	_, err := f.Write(t.Context(), f.Capacity(), []byte{1})
	require.Error(t, err)

	assert.Equal(t, 2, metrics.ops["write"])
	assert.Equal(t, 1, metrics.failedOps["write"])
	assert.Equal(t, 1, metrics.ops["read"])
	assert.Equal(t, 512, metrics.hostBytes)
	assert.Equal(t, 1, metrics.pagePrograms)
	assert.Equal(t, 1, metrics.mediaOps["write_page"])
	assert.Equal(t, 1, metrics.mediaOps["read_page"])
	assert.Equal(t, 3, metrics.freeBlocks)
	assert.Equal(t, 1.0, metrics.wa)
}
