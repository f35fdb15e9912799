// Package ftl implements a page-mapped Flash Translation Layer over simulated
// NAND media.
//
// Host writes are appended in log order to the active erase block; every
// overwrite lands on a fresh physical page and supersedes the previous copy.
// When only the GC staging block remains free, a garbage collection cycle
// copies the live pages of the emptiest block into the staging block and
// erases the victim, which becomes the next staging block.
//
// All public operations are serialized by a single mutex.
package ftl

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/ssdsim/internal/logger"
	"github.com/marmos91/ssdsim/internal/telemetry"
	"github.com/marmos91/ssdsim/pkg/nand"
)

// Config describes the device layout.
type Config struct {
	// Geometry is the NAND layout. It must match the store's geometry.
	Geometry nand.Geometry

	// InitialSize is the logical size set at construction.
	InitialSize uint64

	// Backend names the media backend in logs and traces.
	Backend string
}

// Option configures an FTL.
type Option func(*FTL)

// WithMetrics sets the metrics sink. Passing nil disables metrics.
func WithMetrics(m Metrics) Option {
	return func(f *FTL) {
		f.metrics = m
	}
}

// FTL is a simulated SSD: a flat logical byte space mapped onto NAND pages.
type FTL struct {
	mu sync.Mutex

	id      string
	geom    nand.Geometry
	store   nand.Store
	backend string
	metrics Metrics

	tr     *translator
	blocks *blockTable
	media  *media
	alloc  *allocator

	size      uint64
	hostBytes uint64
	gcCycles  uint64
	closed    bool
}

// New builds an FTL over store and formats it to cfg.InitialSize. The store
// is expected to be provisioned.
func New(store nand.Store, cfg Config, opts ...Option) (*FTL, error) {
	geom := cfg.Geometry
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	if store.Geometry() != geom {
		return nil, fmt.Errorf("%w: store geometry %+v does not match %+v", ErrInvalidGeometry, store.Geometry(), geom)
	}

	f := &FTL{
		id:      uuid.NewString(),
		geom:    geom,
		store:   store,
		backend: cfg.Backend,
		tr:      newTranslator(geom.LogicalPages(), geom.PhysicalPages(), geom.PagesPerBlock),
		blocks:  newBlockTable(geom.PhysicalBlocks),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.media = &media{store: store, geom: geom, blocks: f.blocks, metrics: f.metrics, backend: cfg.Backend}
	f.alloc = newAllocator(f.blocks, geom.PagesPerBlock, geom.PhysicalBlocks)
	f.alloc.collect = f.collect

	if err := f.format(cfg.InitialSize); err != nil {
		return nil, err
	}
	f.publishGauges()
	return f, nil
}

// Read returns up to length bytes starting at offset, clamped to the logical size.
func (f *FTL) Read(ctx context.Context, offset uint64, length int) ([]byte, error) {
	ctx, span := telemetry.StartFTLSpan(ctx, telemetry.SpanRead,
		telemetry.Offset(offset), telemetry.Length(length))
	defer span.End()
	start := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	data, err := f.read(ctx, offset, length)
	f.observe("read", start, err)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "Device read failed", logger.Offset(offset), logger.Length(length), logger.Err(err))
		return nil, err
	}

	span.SetAttributes(telemetry.BytesRead(len(data)))
	logger.DebugCtx(ctx, "Device read", logger.Offset(offset), logger.Length(length), logger.BytesRead(len(data)))
	return data, nil
}

// Write stores data at offset, growing the logical size as needed. It returns
// len(data) on success and 0 on any failure.
func (f *FTL) Write(ctx context.Context, offset uint64, data []byte) (int, error) {
	ctx, span := telemetry.StartFTLSpan(ctx, telemetry.SpanWrite,
		telemetry.Offset(offset), telemetry.Length(len(data)))
	defer span.End()
	start := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}

	n, err := f.write(ctx, offset, data)
	f.observe("write", start, err)
	f.publishGauges()
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "Device write failed", logger.Offset(offset), logger.Length(len(data)), logger.Err(err))
		return 0, err
	}

	span.SetAttributes(telemetry.BytesWritten(n))
	logger.DebugCtx(ctx, "Device write", logger.Offset(offset), logger.BytesWritten(n), logger.Size(f.size))
	return n, nil
}

// Format drops every mapping and sets the logical size. Media contents are
// left in place; nothing references them afterwards.
func (f *FTL) Format(ctx context.Context, size uint64) error {
	ctx, span := telemetry.StartFTLSpan(ctx, telemetry.SpanFormat, telemetry.Size(size))
	defer span.End()
	start := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	err := f.format(size)
	f.observe("format", start, err)
	f.publishGauges()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}

	logger.InfoCtx(ctx, "Device formatted", logger.Size(size), logger.FreeBlocks(f.blocks.FreeCount()))
	return nil
}

func (f *FTL) format(size uint64) error {
	if size > f.geom.Capacity() {
		return opError("format", InvalidLBA, InvalidPCA, ErrCapacityExceeded)
	}
	f.tr.Reset()
	f.blocks.Reset()
	f.alloc.Reset()
	f.size = size
	return nil
}

// LogicalSize returns the current logical size in bytes.
func (f *FTL) LogicalSize() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}

// Capacity returns the largest logical size the device supports.
func (f *FTL) Capacity() uint64 {
	return f.geom.Capacity()
}

// Geometry returns the device layout.
func (f *FTL) Geometry() nand.Geometry {
	return f.geom
}

// PhysicalPagesWritten returns the number of pages programmed on media.
func (f *FTL) PhysicalPagesWritten() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.media.pagesWritten
}

// PhysicalBytesWritten returns the bytes programmed on media.
func (f *FTL) PhysicalBytesWritten() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.media.BytesWritten()
}

// HostBytesWritten returns the bytes accepted from the host.
func (f *FTL) HostBytesWritten() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hostBytes
}

// WriteAmplification returns physical bytes written divided by host bytes
// written. It is +Inf when only GC has written and NaN before any write.
func (f *FTL) WriteAmplification() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeAmplification()
}

func (f *FTL) writeAmplification() float64 {
	physical := f.media.BytesWritten()
	if f.hostBytes == 0 {
		if physical == 0 {
			return math.NaN()
		}
		return math.Inf(1)
	}
	return float64(physical) / float64(f.hostBytes)
}

func isUndefined(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// CheckConsistency verifies the forward and reverse maps agree and that each
// block's live count matches the pages the reverse map names.
func (f *FTL) CheckConsistency() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkConsistency()
}

func (f *FTL) checkConsistency() error {
	if err := f.tr.CheckConsistency(); err != nil {
		return err
	}

	ppb := f.geom.PagesPerBlock
	for b := range uint32(f.geom.PhysicalBlocks) {
		live := uint32(0)
		for p := range uint32(ppb) {
			if _, ok := f.tr.LookupReverse(makePCA(b, p)); ok {
				live++
			}
		}
		state := f.blocks.State(b)
		if state.IsFree() && live > 0 {
			return fmt.Errorf("free block %d holds %d live pages", b, live)
		}
		if !state.IsFree() && state.LiveCount() != live {
			return fmt.Errorf("block %d counts %d live pages, reverse map names %d", b, state.LiveCount(), live)
		}
	}
	return nil
}

// HealthCheck checks the media backend and the map invariants.
func (f *FTL) HealthCheck(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if err := f.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMediaUnavailable, err)
	}
	return f.checkConsistency()
}

// Close closes the media backend. Further operations return ErrClosed.
func (f *FTL) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.store.Close()
}
