package ftl

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/memory"
)

// smallGeometry is a 4-block device with 10 pages per block.
func smallGeometry() nand.Geometry {
	return nand.Geometry{PageSize: 512, PagesPerBlock: 10, PhysicalBlocks: 4, LogicalBlocks: 3}
}

func newTestFTL(t *testing.T, geom nand.Geometry, opts ...Option) (*FTL, *memory.Store) {
	t.Helper()
	store, err := memory.New(geom)
	require.NoError(t, err)

	f, err := New(store, Config{Geometry: geom, Backend: "memory"}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, store
}

// pageOf returns a full page whose bytes all derive from seed.
func pageOf(size int, seed int) []byte {
	return bytes.Repeat([]byte{byte(seed*7 + 1)}, size)
}

func writePage(t *testing.T, f *FTL, lba int, seed int) {
	t.Helper()
	size := f.geom.PageSize
	n, err := f.Write(t.Context(), uint64(lba*size), pageOf(size, seed))
	require.NoError(t, err)
	require.Equal(t, size, n)
}

func readPage(t *testing.T, f *FTL, lba int) []byte {
	t.Helper()
	size := f.geom.PageSize
	data, err := f.Read(t.Context(), uint64(lba*size), size)
	require.NoError(t, err)
	return data
}

func requireConsistent(t *testing.T, f *FTL) {
	t.Helper()
	require.NoError(t, f.CheckConsistency())
}

// recordingMetrics captures every metrics call.
type recordingMetrics struct {
	mu            sync.Mutex
	ops           map[string]int
	failedOps     map[string]int
	mediaOps      map[string]int
	mediaErrors   map[string]int
	hostBytes     int
	pagePrograms  int
	gcPrograms    int
	gcCycles      int
	migrated      int
	eraseFailures int
	freeBlocks    int
	wa            float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		ops:         make(map[string]int),
		failedOps:   make(map[string]int),
		mediaOps:    make(map[string]int),
		mediaErrors: make(map[string]int),
	}
}

func (m *recordingMetrics) ObserveOperation(op string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op]++
	if err != nil {
		m.failedOps[op]++
	}
}

func (m *recordingMetrics) ObserveMedia(op string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mediaOps[op]++
	if err != nil {
		m.mediaErrors[op]++
	}
}

func (m *recordingMetrics) RecordHostBytes(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hostBytes += n
}

func (m *recordingMetrics) RecordPageProgram(_ int, gc bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pagePrograms++
	if gc {
		m.gcPrograms++
	}
}

func (m *recordingMetrics) RecordGC(migrated int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gcCycles++
	m.migrated += migrated
}

func (m *recordingMetrics) RecordEraseFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eraseFailures++
}

func (m *recordingMetrics) SetFreeBlocks(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freeBlocks = n
}

func (m *recordingMetrics) SetWriteAmplification(wa float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wa = wa
}
