package ftl

import "context"

// allocator hands out physical pages in strict log order.
//
// The active block is filled from page 0 upward. next is the page the next
// write lands on; next == pagesPerBlock means the block is exhausted. The
// staging block is kept Free for GC and never opened for host writes.
type allocator struct {
	blocks         *blockTable
	pagesPerBlock  uint32
	physicalBlocks uint32

	open    bool
	active  uint32
	next    uint32
	staging uint32

	// collect runs a GC cycle. It reopens the allocator on the staging block.
	collect func(ctx context.Context) error
}

func newAllocator(blocks *blockTable, pagesPerBlock, physicalBlocks int) *allocator {
	a := &allocator{
		blocks:         blocks,
		pagesPerBlock:  uint32(pagesPerBlock),
		physicalBlocks: uint32(physicalBlocks),
	}
	a.Reset()
	return a
}

// Reset returns the allocator to the uninitialized state with the last
// physical block as staging.
func (a *allocator) Reset() {
	a.open = false
	a.active = 0
	a.next = 0
	a.staging = a.physicalBlocks - 1
}

// NextWriteAddress returns the physical page for the next write, opening a
// new block or running GC when the active block is exhausted.
func (a *allocator) NextWriteAddress(ctx context.Context) (PCA, error) {
	if !a.open {
		a.openBlock(0)
		return a.take(), nil
	}

	if a.next < a.pagesPerBlock {
		return a.take(), nil
	}

	if a.blocks.FreeCount() == 1 {
		if err := a.collect(ctx); err != nil {
			return InvalidPCA, err
		}
		if a.next >= a.pagesPerBlock {
			return InvalidPCA, ErrOutOfSpace
		}
		return a.take(), nil
	}

	return a.OpenNextFreeBlock()
}

// OpenNextFreeBlock opens the first Free block after the active one, wrapping
// once, and returns its page 0.
func (a *allocator) OpenNextFreeBlock() (PCA, error) {
	for i := uint32(1); i <= a.physicalBlocks; i++ {
		block := (a.active + i) % a.physicalBlocks
		if block == a.staging || !a.blocks.State(block).IsFree() {
			continue
		}
		a.openBlock(block)
		return a.take(), nil
	}
	return InvalidPCA, ErrOutOfSpace
}

// openBlock makes block the active block at page 0.
func (a *allocator) openBlock(block uint32) {
	a.blocks.Open(block)
	a.open = true
	a.active = block
	a.next = 0
}

// take returns the cursor address and advances it.
func (a *allocator) take() PCA {
	pca := makePCA(a.active, a.next)
	a.next++
	return pca
}
