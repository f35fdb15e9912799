//go:build unix

package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// region is a shared read/write mapping of an image file.
type region struct {
	data []byte
}

func mapFile(f *os.File, size int) (*region, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &region{data: data}, nil
}

func (r *region) sync() error {
	if err := unix.Msync(r.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync: %w", err)
	}
	return nil
}

func (r *region) unmap() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
