package ftl

// Stats is a point-in-time view of the device.
type Stats struct {
	DeviceID             string       `json:"device_id" yaml:"device_id"`
	Backend              string       `json:"backend" yaml:"backend"`
	LogicalSize          uint64       `json:"logical_size" yaml:"logical_size"`
	Capacity             uint64       `json:"capacity" yaml:"capacity"`
	PageSize             int          `json:"page_size" yaml:"page_size"`
	PagesPerBlock        int          `json:"pages_per_block" yaml:"pages_per_block"`
	PhysicalBlocks       int          `json:"physical_blocks" yaml:"physical_blocks"`
	MappedPages          int          `json:"mapped_pages" yaml:"mapped_pages"`
	PhysicalPagesWritten uint64       `json:"physical_pages_written" yaml:"physical_pages_written"`
	PhysicalBytesWritten uint64       `json:"physical_bytes_written" yaml:"physical_bytes_written"`
	HostBytesWritten     uint64       `json:"host_bytes_written" yaml:"host_bytes_written"`
	WriteAmplification   *float64     `json:"write_amplification,omitempty" yaml:"write_amplification,omitempty"`
	FreeBlocks           int          `json:"free_blocks" yaml:"free_blocks"`
	ActiveBlock          *uint32      `json:"active_block,omitempty" yaml:"active_block,omitempty"`
	NextPage             uint32       `json:"next_page" yaml:"next_page"`
	StagingBlock         uint32       `json:"staging_block" yaml:"staging_block"`
	GCCycles             uint64       `json:"gc_cycles" yaml:"gc_cycles"`
	Blocks               []BlockState `json:"blocks" yaml:"blocks"`
}

// Stats returns a snapshot of the device counters and block states.
// WriteAmplification is nil while it is undefined.
func (f *FTL) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Stats{
		DeviceID:             f.id,
		Backend:              f.backend,
		LogicalSize:          f.size,
		Capacity:             f.geom.Capacity(),
		PageSize:             f.geom.PageSize,
		PagesPerBlock:        f.geom.PagesPerBlock,
		PhysicalBlocks:       f.geom.PhysicalBlocks,
		MappedPages:          f.tr.Mapped(),
		PhysicalPagesWritten: f.media.pagesWritten,
		PhysicalBytesWritten: f.media.BytesWritten(),
		HostBytesWritten:     f.hostBytes,
		FreeBlocks:           f.blocks.FreeCount(),
		StagingBlock:         f.alloc.staging,
		GCCycles:             f.gcCycles,
		Blocks:               f.blocks.Snapshot(),
	}
	if wa := f.writeAmplification(); !isUndefined(wa) {
		s.WriteAmplification = &wa
	}
	if f.alloc.open {
		active := f.alloc.active
		s.ActiveBlock = &active
		s.NextPage = f.alloc.next
	}
	return s
}
