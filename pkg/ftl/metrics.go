package ftl

import "time"

// Metrics receives device events. A nil Metrics is valid and costs nothing.
type Metrics interface {
	// ObserveOperation records a host operation (read, write, format) with its
	// duration and outcome.
	ObserveOperation(op string, duration time.Duration, err error)

	// ObserveMedia records one backend call (read_page, write_page, erase)
	// with its duration and outcome.
	ObserveMedia(op string, duration time.Duration, err error)

	// RecordHostBytes records bytes accepted from the host.
	RecordHostBytes(n int)

	// RecordPageProgram records one page programmed on media. gc is true for
	// pages written by migration.
	RecordPageProgram(bytes int, gc bool)

	// RecordGC records a completed GC cycle.
	RecordGC(migrated int, duration time.Duration)

	// RecordEraseFailure records an erase the backend could not perform.
	RecordEraseFailure()

	// SetFreeBlocks sets the current number of free blocks.
	SetFreeBlocks(n int)

	// SetWriteAmplification sets the current write amplification factor.
	SetWriteAmplification(wa float64)
}

func (f *FTL) observe(op string, start time.Time, err error) {
	if f.metrics != nil {
		f.metrics.ObserveOperation(op, time.Since(start), err)
	}
}

// publishGauges pushes the gauge values after a state change.
func (f *FTL) publishGauges() {
	if f.metrics == nil {
		return
	}
	f.metrics.SetFreeBlocks(f.blocks.FreeCount())
	if wa := f.writeAmplification(); !isUndefined(wa) {
		f.metrics.SetWriteAmplification(wa)
	}
}
