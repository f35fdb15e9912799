package ftl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/nand"
)

func TestNewPCA(t *testing.T) {
	geom := nand.DefaultGeometry()

	pca, err := NewPCA(3, 7, geom)
	require.NoError(t, err)
	assert.Equal(t, PCA(3<<16|7), pca)
	assert.Equal(t, uint32(3), pca.Block())
	assert.Equal(t, uint32(7), pca.Page())
	assert.Equal(t, 37, pca.Index(geom.PagesPerBlock))
	assert.Equal(t, "3:7", pca.String())
	assert.True(t, pca.Valid())

	tests := []struct {
		name        string
		block, page uint32
	}{
		{"block out of range", uint32(geom.PhysicalBlocks), 0},
		{"page out of range", 0, uint32(geom.PagesPerBlock)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pca, err := NewPCA(tt.block, tt.page, geom)
			assert.True(t, errors.Is(err, nand.ErrOutOfRange))
			assert.Equal(t, InvalidPCA, pca)
		})
	}
}

func TestSentinels(t *testing.T) {
	assert.False(t, InvalidPCA.Valid())
	assert.False(t, InvalidLBA.Valid())
	assert.Equal(t, "invalid", InvalidPCA.String())
	assert.True(t, LBA(0).Valid())
}

func TestOpError(t *testing.T) {
	err := &OpError{Op: "write", LBA: 3, PCA: makePCA(1, 4), Err: ErrMediaUnavailable}
	assert.True(t, errors.Is(err, ErrMediaUnavailable))
	assert.Equal(t, "ftl write: media unavailable (lba=3, pca=1:4)", err.Error())

	err = &OpError{Op: "gc", LBA: InvalidLBA, PCA: InvalidPCA, Err: ErrOutOfSpace}
	assert.Equal(t, "ftl gc: out of space", err.Error())

	var opErr *OpError
	wrapped := opError("write", 1, InvalidPCA, err)
	require.True(t, errors.As(wrapped, &opErr))
	assert.Equal(t, "gc", opErr.Op, "an existing OpError is not wrapped twice")
}
