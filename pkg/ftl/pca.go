package ftl

import (
	"fmt"

	"github.com/marmos91/ssdsim/pkg/nand"
)

// LBA is a logical page address: an index into the host-visible address space,
// one entry per logical page.
type LBA uint32

// PCA is a physical page address. The block id lives in the high 16 bits and
// the page within the block in the low 16 bits.
type PCA uint32

const (
	// InvalidPCA marks an unmapped forward entry.
	InvalidPCA PCA = 0xFFFFFFFF

	// InvalidLBA marks a physical page that holds no live data.
	InvalidLBA LBA = 0xFFFFFFFF

	pcaPageBits = 16
	pcaPageMask = 1<<pcaPageBits - 1
)

// NewPCA builds a physical address, validating both components against geom.
func NewPCA(block, page uint32, geom nand.Geometry) (PCA, error) {
	if block >= uint32(geom.PhysicalBlocks) || page >= uint32(geom.PagesPerBlock) {
		return InvalidPCA, fmt.Errorf("%w: block %d page %d", nand.ErrOutOfRange, block, page)
	}
	return makePCA(block, page), nil
}

// makePCA packs an address whose components are known to be in range.
func makePCA(block, page uint32) PCA {
	return PCA(block<<pcaPageBits | page&pcaPageMask)
}

// Block returns the erase block id.
func (p PCA) Block() uint32 { return uint32(p) >> pcaPageBits }

// Page returns the page index within the block.
func (p PCA) Page() uint32 { return uint32(p) & pcaPageMask }

// Valid reports whether p is not the InvalidPCA sentinel.
func (p PCA) Valid() bool { return p != InvalidPCA }

// Index linearizes p to block*pagesPerBlock + page.
func (p PCA) Index(pagesPerBlock int) int {
	return int(p.Block())*pagesPerBlock + int(p.Page())
}

// String renders the address as block:page.
func (p PCA) String() string {
	if p == InvalidPCA {
		return "invalid"
	}
	return fmt.Sprintf("%d:%d", p.Block(), p.Page())
}

// Valid reports whether l is not the InvalidLBA sentinel.
func (l LBA) Valid() bool { return l != InvalidLBA }
