package ftl

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/ssdsim/internal/logger"
	"github.com/marmos91/ssdsim/internal/telemetry"
	"github.com/marmos91/ssdsim/pkg/nand"
)

// media adapts a nand.Store to page-granular I/O and keeps the block table
// and program counters in step with every page written or block erased.
type media struct {
	store   nand.Store
	geom    nand.Geometry
	blocks  *blockTable
	metrics Metrics
	backend string

	pagesWritten uint64
}

// ReadPage returns the contents of a physical page.
func (m *media) ReadPage(ctx context.Context, pca PCA) ([]byte, error) {
	start := time.Now()
	buf := make([]byte, m.geom.PageSize)
	err := m.store.ReadPage(ctx, pca.Block(), pca.Page(), buf)
	m.observe("read_page", start, err)
	if err != nil {
		return nil, &OpError{Op: "read_page", LBA: InvalidLBA, PCA: pca, Err: fmt.Errorf("%w: %w", ErrMediaUnavailable, err)}
	}
	return buf, nil
}

// WritePage programs a physical page and counts it as live in its block.
func (m *media) WritePage(ctx context.Context, pca PCA, data []byte, gc bool) error {
	start := time.Now()
	err := m.store.WritePage(ctx, pca.Block(), pca.Page(), data)
	m.observe("write_page", start, err)
	if err != nil {
		return &OpError{Op: "write_page", LBA: InvalidLBA, PCA: pca, Err: fmt.Errorf("%w: %w", ErrMediaUnavailable, err)}
	}
	m.blocks.Increment(pca.Block())
	m.pagesWritten++
	if m.metrics != nil {
		m.metrics.RecordPageProgram(m.geom.PageSize, gc)
	}
	return nil
}

// EraseBlock resets a block. Backend failures are logged and the block is
// still treated as erased.
func (m *media) EraseBlock(ctx context.Context, block uint32) {
	ctx, span := telemetry.StartMediaSpan(ctx, "erase", block, telemetry.Backend(m.backend))
	defer span.End()

	start := time.Now()
	err := m.store.EraseBlock(ctx, block)
	m.observe("erase", start, err)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "Block erase failed", logger.Block(block), logger.Backend(m.backend), logger.Err(err))
		if m.metrics != nil {
			m.metrics.RecordEraseFailure()
		}
	}
	m.blocks.Erase(block)
}

// BytesWritten returns the total bytes programmed on media.
func (m *media) BytesWritten() uint64 {
	return m.pagesWritten * uint64(m.geom.PageSize)
}

func (m *media) observe(op string, start time.Time, err error) {
	if m.metrics != nil {
		m.metrics.ObserveMedia(op, time.Since(start), err)
	}
}
