package ftl

import (
	"context"
)

// pageSpan describes the part of one logical page covered by a host request.
type pageSpan struct {
	lba   LBA
	start int // first byte within the page
	end   int // one past the last byte within the page
	pos   int // offset of start within the host buffer
}

// spans splits [offset, offset+length) into per-page pieces.
func (f *FTL) spans(offset uint64, length int) []pageSpan {
	if length <= 0 {
		return nil
	}
	pageSize := uint64(f.geom.PageSize)
	first := offset / pageSize
	last := (offset + uint64(length) - 1) / pageSize

	out := make([]pageSpan, 0, last-first+1)
	pos := 0
	for p := first; p <= last; p++ {
		s := pageSpan{lba: LBA(p), start: 0, end: f.geom.PageSize, pos: pos}
		if p == first {
			s.start = int(offset % pageSize)
		}
		if p == last {
			s.end = int((offset+uint64(length)-1)%pageSize) + 1
		}
		pos += s.end - s.start
		out = append(out, s)
	}
	return out
}

// read assembles the requested range. Unmapped pages read as zero without
// touching media.
func (f *FTL) read(ctx context.Context, offset uint64, length int) ([]byte, error) {
	if offset >= f.size || length <= 0 {
		return []byte{}, nil
	}
	if uint64(length) > f.size-offset {
		length = int(f.size - offset)
	}

	out := make([]byte, length)
	for _, s := range f.spans(offset, length) {
		pca, mapped := f.tr.LookupForward(s.lba)
		if !mapped {
			continue
		}
		page, err := f.media.ReadPage(ctx, pca)
		if err != nil {
			return nil, opError("read", s.lba, pca, err)
		}
		copy(out[s.pos:], page[s.start:s.end])
	}
	return out, nil
}

// write commits data page by page. Each page is read (if mapped), merged,
// appended at a fresh physical address and the previous copy superseded.
// A failure aborts the remaining pages; pages already written stay committed.
func (f *FTL) write(ctx context.Context, offset uint64, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	capacity := f.geom.Capacity()
	if offset > capacity || uint64(len(data)) > capacity-offset {
		return 0, opError("write", InvalidLBA, InvalidPCA, ErrCapacityExceeded)
	}
	if end := offset + uint64(len(data)); end > f.size {
		f.size = end
	}
	f.hostBytes += uint64(len(data))
	if f.metrics != nil {
		f.metrics.RecordHostBytes(len(data))
	}

	for _, s := range f.spans(offset, len(data)) {
		if err := f.writePage(ctx, s, data[s.pos:s.pos+s.end-s.start]); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (f *FTL) writePage(ctx context.Context, s pageSpan, chunk []byte) error {
	var page []byte
	if old, mapped := f.tr.LookupForward(s.lba); mapped {
		base, err := f.media.ReadPage(ctx, old)
		if err != nil {
			return opError("write", s.lba, old, err)
		}
		page = base
	} else {
		page = make([]byte, f.geom.PageSize)
	}
	copy(page[s.start:], chunk)

	pca, err := f.alloc.NextWriteAddress(ctx)
	if err != nil {
		return opError("allocate", s.lba, InvalidPCA, err)
	}
	if err := f.media.WritePage(ctx, pca, page, false); err != nil {
		return opError("write", s.lba, pca, err)
	}

	// Allocation may have run GC and moved the old copy, so supersede
	// whatever the LBA maps to now.
	old, mapped := f.tr.LookupForward(s.lba)
	f.tr.Bind(s.lba, pca)
	if mapped {
		f.blocks.Decrement(old.Block())
		f.tr.UnbindReverse(old)
	}
	return nil
}
