package memory

import (
	"errors"
	"testing"

	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T, geom nand.Geometry) nand.Store {
		s, err := New(geom)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return s
	})
}

func TestStore_SetUnavailable(t *testing.T) {
	s, err := New(storetest.Geometry())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	buf := make([]byte, s.Geometry().PageSize)
	s.SetUnavailable(1, true)

	if err := s.ReadPage(t.Context(), 1, 0, buf); !errors.Is(err, nand.ErrBlockUnavailable) {
		t.Errorf("ReadPage returned %v, want ErrBlockUnavailable", err)
	}
	if err := s.EraseBlock(t.Context(), 1); !errors.Is(err, nand.ErrBlockUnavailable) {
		t.Errorf("EraseBlock returned %v, want ErrBlockUnavailable", err)
	}
	if err := s.ReadPage(t.Context(), 0, 0, buf); err != nil {
		t.Errorf("ReadPage on a healthy block failed: %v", err)
	}

	s.SetUnavailable(1, false)
	if err := s.ReadPage(t.Context(), 1, 0, buf); err != nil {
		t.Errorf("ReadPage after recovery failed: %v", err)
	}
}

func TestNew_InvalidGeometry(t *testing.T) {
	geom := storetest.Geometry()
	geom.PageSize = 0
	if _, err := New(geom); err == nil {
		t.Fatal("New accepted an invalid geometry")
	}
}
