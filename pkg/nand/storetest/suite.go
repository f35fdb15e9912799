// Package storetest provides a conformance suite shared by every nand.Store
// implementation.
package storetest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/marmos91/ssdsim/pkg/nand"
)

// StoreFactory creates a fresh Store for each test. The suite provisions it.
// The factory receives *testing.T so it can use t.TempDir() for stores
// that need filesystem paths and t.Cleanup() for teardown.
type StoreFactory func(t *testing.T, geom nand.Geometry) nand.Store

// Geometry is the small layout used by the suite.
func Geometry() nand.Geometry {
	return nand.Geometry{
		PageSize:       512,
		PagesPerBlock:  4,
		PhysicalBlocks: 3,
		LogicalBlocks:  2,
	}
}

// RunConformanceSuite runs every conformance test against the factory. Each
// test gets a fresh store.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("FreshStoreReadsZero", func(t *testing.T) { testFreshStoreReadsZero(t, factory) })
	t.Run("WriteReadRoundTrip", func(t *testing.T) { testWriteReadRoundTrip(t, factory) })
	t.Run("OverwritePage", func(t *testing.T) { testOverwritePage(t, factory) })
	t.Run("EraseBlock", func(t *testing.T) { testEraseBlock(t, factory) })
	t.Run("Provision", func(t *testing.T) { testProvision(t, factory) })
	t.Run("OutOfRange", func(t *testing.T) { testOutOfRange(t, factory) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, factory) })
}

// Pattern returns a page-sized buffer filled with a byte sequence derived from seed.
func Pattern(size int, seed byte) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = seed + byte(i%251)
	}
	return buf
}

func newStore(t *testing.T, factory StoreFactory) (nand.Store, nand.Geometry) {
	t.Helper()
	geom := Geometry()
	s := factory(t, geom)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Provision(t.Context()); err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	return s, geom
}

func readPage(t *testing.T, s nand.Store, block, page uint32) []byte {
	t.Helper()
	buf := make([]byte, s.Geometry().PageSize)
	if err := s.ReadPage(t.Context(), block, page, buf); err != nil {
		t.Fatalf("ReadPage(%d, %d) failed: %v", block, page, err)
	}
	return buf
}

func writePage(t *testing.T, s nand.Store, block, page uint32, data []byte) {
	t.Helper()
	if err := s.WritePage(t.Context(), block, page, data); err != nil {
		t.Fatalf("WritePage(%d, %d) failed: %v", block, page, err)
	}
}

func testFreshStoreReadsZero(t *testing.T, factory StoreFactory) {
	s, geom := newStore(t, factory)
	zero := make([]byte, geom.PageSize)

	for b := 0; b < geom.PhysicalBlocks; b++ {
		for p := 0; p < geom.PagesPerBlock; p++ {
			if got := readPage(t, s, uint32(b), uint32(p)); !bytes.Equal(got, zero) {
				t.Fatalf("block %d page %d is not zero after provisioning", b, p)
			}
		}
	}

	if err := s.HealthCheck(t.Context()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func testWriteReadRoundTrip(t *testing.T, factory StoreFactory) {
	s, geom := newStore(t, factory)

	for b := 0; b < geom.PhysicalBlocks; b++ {
		for p := 0; p < geom.PagesPerBlock; p++ {
			writePage(t, s, uint32(b), uint32(p), Pattern(geom.PageSize, byte(b*16+p)))
		}
	}

	for b := 0; b < geom.PhysicalBlocks; b++ {
		for p := 0; p < geom.PagesPerBlock; p++ {
			want := Pattern(geom.PageSize, byte(b*16+p))
			if got := readPage(t, s, uint32(b), uint32(p)); !bytes.Equal(got, want) {
				t.Fatalf("block %d page %d content mismatch", b, p)
			}
		}
	}
}

func testOverwritePage(t *testing.T, factory StoreFactory) {
	s, geom := newStore(t, factory)

	// Sparse write: page 2 only, its neighbours must stay zero.
	writePage(t, s, 1, 2, Pattern(geom.PageSize, 1))
	writePage(t, s, 1, 2, Pattern(geom.PageSize, 2))

	if got := readPage(t, s, 1, 2); !bytes.Equal(got, Pattern(geom.PageSize, 2)) {
		t.Fatal("overwritten page does not hold the last write")
	}
	zero := make([]byte, geom.PageSize)
	for _, p := range []uint32{0, 1, 3} {
		if got := readPage(t, s, 1, p); !bytes.Equal(got, zero) {
			t.Fatalf("page %d was modified by a write to page 2", p)
		}
	}
}

func testEraseBlock(t *testing.T, factory StoreFactory) {
	s, geom := newStore(t, factory)

	for b := 0; b < 2; b++ {
		for p := 0; p < geom.PagesPerBlock; p++ {
			writePage(t, s, uint32(b), uint32(p), Pattern(geom.PageSize, byte(b+p+1)))
		}
	}

	if err := s.EraseBlock(t.Context(), 0); err != nil {
		t.Fatalf("EraseBlock failed: %v", err)
	}

	zero := make([]byte, geom.PageSize)
	for p := 0; p < geom.PagesPerBlock; p++ {
		if got := readPage(t, s, 0, uint32(p)); !bytes.Equal(got, zero) {
			t.Fatalf("erased block page %d is not zero", p)
		}
		if got := readPage(t, s, 1, uint32(p)); !bytes.Equal(got, Pattern(geom.PageSize, byte(1+p+1))) {
			t.Fatalf("block 1 page %d was modified by erasing block 0", p)
		}
	}

	// Erased blocks are writable again.
	writePage(t, s, 0, 3, Pattern(geom.PageSize, 9))
	if got := readPage(t, s, 0, 3); !bytes.Equal(got, Pattern(geom.PageSize, 9)) {
		t.Fatal("write after erase was not persisted")
	}
}

func testProvision(t *testing.T, factory StoreFactory) {
	s, geom := newStore(t, factory)

	writePage(t, s, 2, 1, Pattern(geom.PageSize, 5))
	if err := s.Provision(t.Context()); err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if got := readPage(t, s, 2, 1); !bytes.Equal(got, make([]byte, geom.PageSize)) {
		t.Fatal("Provision did not reset page content")
	}
}

func testOutOfRange(t *testing.T, factory StoreFactory) {
	s, geom := newStore(t, factory)
	ctx := t.Context()
	buf := make([]byte, geom.PageSize)

	cases := map[string]error{
		"ReadBlock":  s.ReadPage(ctx, uint32(geom.PhysicalBlocks), 0, buf),
		"ReadPage":   s.ReadPage(ctx, 0, uint32(geom.PagesPerBlock), buf),
		"WriteBlock": s.WritePage(ctx, uint32(geom.PhysicalBlocks), 0, buf),
		"ShortWrite": s.WritePage(ctx, 0, 0, buf[:1]),
		"Erase":      s.EraseBlock(ctx, uint32(geom.PhysicalBlocks)),
	}
	for name, err := range cases {
		if !errors.Is(err, nand.ErrOutOfRange) {
			t.Errorf("%s: got %v, want ErrOutOfRange", name, err)
		}
	}
}

func testClosed(t *testing.T, factory StoreFactory) {
	geom := Geometry()
	s := factory(t, geom)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	buf := make([]byte, geom.PageSize)
	if err := s.ReadPage(t.Context(), 0, 0, buf); !errors.Is(err, nand.ErrStoreClosed) {
		t.Errorf("ReadPage after Close: got %v, want ErrStoreClosed", err)
	}
	if err := s.WritePage(t.Context(), 0, 0, buf); !errors.Is(err, nand.ErrStoreClosed) {
		t.Errorf("WritePage after Close: got %v, want ErrStoreClosed", err)
	}
	if err := s.HealthCheck(t.Context()); !errors.Is(err, nand.ErrStoreClosed) {
		t.Errorf("HealthCheck after Close: got %v, want ErrStoreClosed", err)
	}
}
