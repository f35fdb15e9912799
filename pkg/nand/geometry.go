package nand

import (
	"fmt"
	"math"
)

// Default geometry of the simulated device: 13 physical blocks of ten 512-byte
// pages, 10 of which are exposed as logical capacity.
const (
	DefaultPageSize       = 512
	DefaultPagesPerBlock  = 10
	DefaultPhysicalBlocks = 13
	DefaultLogicalBlocks  = 10
)

// Physical addresses pack the block id and the page index into 16-bit fields,
// which bounds both dimensions.
const (
	MaxPagesPerBlock  = math.MaxUint16
	MaxPhysicalBlocks = math.MaxUint16
)

// Geometry describes the physical layout of a device.
type Geometry struct {
	// PageSize is the read/write unit in bytes.
	PageSize int `mapstructure:"page_size" yaml:"page_size" json:"page_size"`

	// PagesPerBlock is the number of pages in one erase block.
	PagesPerBlock int `mapstructure:"pages_per_block" yaml:"pages_per_block" json:"pages_per_block"`

	// PhysicalBlocks is the number of erase blocks on the media.
	PhysicalBlocks int `mapstructure:"physical_blocks" yaml:"physical_blocks" json:"physical_blocks"`

	// LogicalBlocks is the number of blocks worth of pages exposed to the host.
	// The difference to PhysicalBlocks is the spare area used by GC.
	LogicalBlocks int `mapstructure:"logical_blocks" yaml:"logical_blocks" json:"logical_blocks"`
}

// DefaultGeometry returns the default device layout.
func DefaultGeometry() Geometry {
	return Geometry{
		PageSize:       DefaultPageSize,
		PagesPerBlock:  DefaultPagesPerBlock,
		PhysicalBlocks: DefaultPhysicalBlocks,
		LogicalBlocks:  DefaultLogicalBlocks,
	}
}

// Validate checks that the geometry is usable by the FTL.
func (g Geometry) Validate() error {
	switch {
	case g.PageSize <= 0:
		return fmt.Errorf("page size must be positive, got %d", g.PageSize)
	case g.PagesPerBlock < 2 || g.PagesPerBlock > MaxPagesPerBlock:
		return fmt.Errorf("pages per block must be in [2, %d], got %d", MaxPagesPerBlock, g.PagesPerBlock)
	case g.PhysicalBlocks < 2 || g.PhysicalBlocks > MaxPhysicalBlocks:
		return fmt.Errorf("physical blocks must be in [2, %d], got %d", MaxPhysicalBlocks, g.PhysicalBlocks)
	case g.LogicalBlocks < 1 || g.LogicalBlocks >= g.PhysicalBlocks:
		return fmt.Errorf("logical blocks must be in [1, %d), got %d", g.PhysicalBlocks, g.LogicalBlocks)
	}
	return nil
}

// BlockSize returns the size of one erase block in bytes.
func (g Geometry) BlockSize() int {
	return g.PageSize * g.PagesPerBlock
}

// LogicalPages returns the number of host-addressable pages.
func (g Geometry) LogicalPages() int {
	return g.LogicalBlocks * g.PagesPerBlock
}

// PhysicalPages returns the number of pages on the media.
func (g Geometry) PhysicalPages() int {
	return g.PhysicalBlocks * g.PagesPerBlock
}

// Capacity returns the maximum logical size in bytes.
func (g Geometry) Capacity() uint64 {
	return uint64(g.LogicalPages()) * uint64(g.PageSize)
}

// MediaSize returns the raw size of the media in bytes.
func (g Geometry) MediaSize() uint64 {
	return uint64(g.PhysicalPages()) * uint64(g.PageSize)
}

// CheckPage validates a page address and buffer length against the geometry.
// Backends call it at the top of ReadPage/WritePage.
func (g Geometry) CheckPage(block, page uint32, buf []byte) error {
	if int(block) >= g.PhysicalBlocks || int(page) >= g.PagesPerBlock {
		return fmt.Errorf("%w: block %d page %d", ErrOutOfRange, block, page)
	}
	if len(buf) != g.PageSize {
		return fmt.Errorf("%w: buffer is %d bytes, page is %d", ErrOutOfRange, len(buf), g.PageSize)
	}
	return nil
}

// CheckBlock validates a block index against the geometry.
func (g Geometry) CheckBlock(block uint32) error {
	if int(block) >= g.PhysicalBlocks {
		return fmt.Errorf("%w: block %d", ErrOutOfRange, block)
	}
	return nil
}

// PageOffset returns the byte offset of a page within its block.
func (g Geometry) PageOffset(page uint32) int64 {
	return int64(page) * int64(g.PageSize)
}

// BlockName returns the canonical name of a block's backing unit.
func BlockName(block uint32) string {
	return fmt.Sprintf("nand_%d", block)
}
