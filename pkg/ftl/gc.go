package ftl

import (
	"context"
	"time"

	"github.com/marmos91/ssdsim/internal/logger"
	"github.com/marmos91/ssdsim/internal/telemetry"
)

// selectVictim returns the non-free block with the fewest live pages, lowest
// id first. The staging block is never a candidate, nor is an active block
// that still has unwritten pages. A victim with every page live has nothing to
// reclaim and is reported as ErrOutOfSpace.
func (f *FTL) selectVictim() (uint32, error) {
	ppb := uint32(f.geom.PagesPerBlock)
	victim, minLive := uint32(0), ppb+1
	filling := f.alloc.open && f.alloc.next < ppb

	for b := range uint32(f.geom.PhysicalBlocks) {
		state := f.blocks.State(b)
		if state.IsFree() || b == f.alloc.staging || (filling && b == f.alloc.active) {
			continue
		}
		if state.LiveCount() < minLive {
			victim, minLive = b, state.LiveCount()
		}
	}

	if minLive >= ppb {
		return 0, ErrOutOfSpace
	}
	return victim, nil
}

// collect runs one GC cycle: the staging block becomes the active block, live
// pages of the victim are copied into it in page order, and the victim is
// erased to serve as the next staging block.
func (f *FTL) collect(ctx context.Context) error {
	start := time.Now()

	victim, err := f.selectVictim()
	if err != nil {
		logger.WarnCtx(ctx, "GC found nothing to reclaim", logger.FreeBlocks(f.blocks.FreeCount()))
		return opError("gc", InvalidLBA, InvalidPCA, err)
	}

	staging := f.alloc.staging
	ctx, span := telemetry.StartFTLSpan(ctx, telemetry.SpanGC,
		telemetry.Victim(victim), telemetry.Block(staging))
	defer span.End()

	prevActive, prevNext := f.alloc.active, f.alloc.next
	f.alloc.openBlock(staging)

	var moved []movedPage
	for page := range uint32(f.geom.PagesPerBlock) {
		old := makePCA(victim, page)
		lba, live := f.tr.LookupReverse(old)
		if !live {
			continue
		}

		f.tr.InvalidateForward(lba)
		if err := f.migrate(ctx, lba, old); err != nil {
			f.tr.Bind(lba, old)
			f.abortCollect(ctx, staging, moved, prevActive, prevNext)
			telemetry.RecordError(ctx, err)
			logger.WarnCtx(ctx, "GC cycle aborted",
				logger.Victim(victim), logger.Migrated(len(moved)), logger.Err(err))
			return opError("gc", lba, old, err)
		}
		moved = append(moved, movedPage{lba: lba, from: old})
	}
	migrated := len(moved)

	f.media.EraseBlock(ctx, victim)
	f.alloc.staging = victim
	f.gcCycles++

	span.SetAttributes(telemetry.Migrated(migrated))
	logger.InfoCtx(ctx, "GC cycle complete",
		logger.Victim(victim),
		logger.Block(staging),
		logger.Migrated(migrated),
		logger.FreeBlocks(f.blocks.FreeCount()),
		logger.DurationMs(logger.Duration(start)),
	)
	if f.metrics != nil {
		f.metrics.RecordGC(migrated, time.Since(start))
	}
	return nil
}

type movedPage struct {
	lba  LBA
	from PCA
}

// abortCollect undoes a partial GC cycle. Migrated pages are bound back to
// their victim copies, which are still intact, the staging block is erased
// and the allocator returns to the exhausted block so the next write retries
// GC.
func (f *FTL) abortCollect(ctx context.Context, staging uint32, moved []movedPage, active, next uint32) {
	for _, m := range moved {
		if dst, ok := f.tr.LookupForward(m.lba); ok {
			f.tr.UnbindReverse(dst)
		}
		f.tr.Bind(m.lba, m.from)
	}
	f.media.EraseBlock(ctx, staging)
	f.alloc.staging = staging
	f.alloc.active = active
	f.alloc.next = next
}

// migrate copies one live page into the active (staging) block and rebinds it.
func (f *FTL) migrate(ctx context.Context, lba LBA, old PCA) error {
	data, err := f.media.ReadPage(ctx, old)
	if err != nil {
		return err
	}

	dst := f.alloc.take()
	if err := f.media.WritePage(ctx, dst, data, true); err != nil {
		return err
	}

	f.tr.Bind(lba, dst)
	f.tr.UnbindReverse(old)
	return nil
}
