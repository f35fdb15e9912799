package mmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T, geom nand.Geometry) nand.Store {
		s, err := New(Config{Path: t.TempDir()}, geom)
		require.NoError(t, err)
		return s
	})
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	geom := storetest.Geometry()

	s, err := New(Config{Path: dir}, geom)
	require.NoError(t, err)
	data := storetest.Pattern(geom.PageSize, 42)
	require.NoError(t, s.WritePage(t.Context(), 2, 3, data))
	require.NoError(t, s.Sync())
	require.NoError(t, s.Close())

	s, err = New(Config{Path: dir}, geom)
	require.NoError(t, err)
	defer s.Close()

	buf := make([]byte, geom.PageSize)
	require.NoError(t, s.ReadPage(t.Context(), 2, 3, buf))
	assert.Equal(t, data, buf)
}

func TestStore_GeometryMismatch(t *testing.T) {
	dir := t.TempDir()
	geom := storetest.Geometry()

	s, err := New(Config{Path: dir}, geom)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	other := geom
	other.PagesPerBlock = 8
	_, err = New(Config{Path: dir}, other)
	assert.True(t, errors.Is(err, ErrCorrupted))
}
