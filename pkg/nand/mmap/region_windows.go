//go:build windows

package mmap

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// region is a file mapping plus one writable view over the whole image.
type region struct {
	data    []byte
	mapping windows.Handle
}

func mapFile(f *os.File, size int) (*region, error) {
	mapping, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READWRITE,
		uint32(uint64(size)>>32), uint32(size), nil)
	if err != nil {
		return nil, fmt.Errorf("CreateFileMapping: %w", err)
	}

	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		_ = windows.CloseHandle(mapping)
		return nil, fmt.Errorf("MapViewOfFile: %w", err)
	}

	return &region{
		data:    unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
		mapping: mapping,
	}, nil
}

func (r *region) sync() error {
	if len(r.data) == 0 {
		return nil
	}
	if err := windows.FlushViewOfFile(uintptr(unsafe.Pointer(&r.data[0])), uintptr(len(r.data))); err != nil {
		return fmt.Errorf("FlushViewOfFile: %w", err)
	}
	return nil
}

func (r *region) unmap() error {
	if r.data != nil {
		addr := uintptr(unsafe.Pointer(&r.data[0]))
		r.data = nil
		if err := windows.UnmapViewOfFile(addr); err != nil {
			return fmt.Errorf("UnmapViewOfFile: %w", err)
		}
	}
	if r.mapping != 0 {
		h := r.mapping
		r.mapping = 0
		if err := windows.CloseHandle(h); err != nil {
			return fmt.Errorf("CloseHandle: %w", err)
		}
	}
	return nil
}
