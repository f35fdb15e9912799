// Package mmap provides a NAND store backed by a single memory-mapped image file.
//
// File Format:
//
//	Header (64 bytes):
//	  - Magic: "SSDN" (4 bytes)
//	  - Version: uint16 (2 bytes)
//	  - Page size: uint32 (4 bytes)
//	  - Pages per block: uint32 (4 bytes)
//	  - Physical blocks: uint32 (4 bytes)
//	  - Reserved: 46 bytes
//
//	Blocks (PhysicalBlocks * PagesPerBlock * PageSize bytes):
//	  - block b, page p at offset 64 + (b*PagesPerBlock + p) * PageSize
//
// The OS flushes dirty pages asynchronously; Close msyncs before unmapping.
package mmap

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marmos91/ssdsim/pkg/nand"
)

const (
	imageMagic      = "SSDN"
	imageVersion    = uint16(1)
	imageHeaderSize = 64
	imageFileName   = "nand.img"
)

// ErrCorrupted is returned when an existing image does not match the expected
// header or geometry.
var ErrCorrupted = errors.New("nand image corrupted or incompatible")

// Config holds configuration for the mmap NAND store.
type Config struct {
	// Path is the directory holding nand.img.
	Path string `mapstructure:"path"`
}

// Store implements nand.Store over a memory-mapped image.
type Store struct {
	mu     sync.RWMutex
	geom   nand.Geometry
	file   *os.File
	region *region
	data   []byte
	closed bool
}

// New opens or creates the image file under cfg.Path.
func New(cfg Config, geom nand.Geometry) (*Store, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	if cfg.Path == "" {
		return nil, errors.New("path is required")
	}
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	size := int64(imageHeaderSize) + int64(geom.MediaSize())
	filePath := filepath.Join(cfg.Path, imageFileName)

	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat image: %w", err)
	}

	fresh := info.Size() == 0
	if fresh {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("truncate image: %w", err)
		}
	} else if info.Size() != size {
		f.Close()
		return nil, fmt.Errorf("%w: size %d, expected %d", ErrCorrupted, info.Size(), size)
	}

	r, err := mapFile(f, int(size))
	if err != nil {
		f.Close()
		return nil, err
	}

	s := &Store{geom: geom, file: f, region: r, data: r.data}
	if fresh {
		s.writeHeader()
	} else if err := s.checkHeader(); err != nil {
		_ = r.unmap()
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) writeHeader() {
	h := s.data[:imageHeaderSize]
	clear(h)
	copy(h[0:4], imageMagic)
	binary.LittleEndian.PutUint16(h[4:6], imageVersion)
	binary.LittleEndian.PutUint32(h[6:10], uint32(s.geom.PageSize))
	binary.LittleEndian.PutUint32(h[10:14], uint32(s.geom.PagesPerBlock))
	binary.LittleEndian.PutUint32(h[14:18], uint32(s.geom.PhysicalBlocks))
}

func (s *Store) checkHeader() error {
	h := s.data[:imageHeaderSize]
	switch {
	case string(h[0:4]) != imageMagic:
		return fmt.Errorf("%w: bad magic", ErrCorrupted)
	case binary.LittleEndian.Uint16(h[4:6]) != imageVersion:
		return fmt.Errorf("%w: unsupported version", ErrCorrupted)
	case binary.LittleEndian.Uint32(h[6:10]) != uint32(s.geom.PageSize),
		binary.LittleEndian.Uint32(h[10:14]) != uint32(s.geom.PagesPerBlock),
		binary.LittleEndian.Uint32(h[14:18]) != uint32(s.geom.PhysicalBlocks):
		return fmt.Errorf("%w: geometry mismatch", ErrCorrupted)
	}
	return nil
}

// pageRange returns the mapped slice of a page.
func (s *Store) pageRange(block, page uint32) []byte {
	idx := int64(block)*int64(s.geom.PagesPerBlock) + int64(page)
	off := int64(imageHeaderSize) + idx*int64(s.geom.PageSize)
	return s.data[off : off+int64(s.geom.PageSize)]
}

// blockRange returns the mapped slice of a whole block.
func (s *Store) blockRange(block uint32) []byte {
	off := int64(imageHeaderSize) + int64(block)*int64(s.geom.BlockSize())
	return s.data[off : off+int64(s.geom.BlockSize())]
}

// ReadPage copies a page out of the mapping.
func (s *Store) ReadPage(ctx context.Context, block, page uint32, buf []byte) error {
	if err := s.geom.CheckPage(block, page, buf); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	copy(buf, s.pageRange(block, page))
	return nil
}

// WritePage copies a page into the mapping.
func (s *Store) WritePage(ctx context.Context, block, page uint32, data []byte) error {
	if err := s.geom.CheckPage(block, page, data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	copy(s.pageRange(block, page), data)
	return nil
}

// EraseBlock zeroes a block range.
func (s *Store) EraseBlock(ctx context.Context, block uint32) error {
	if err := s.geom.CheckBlock(block); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	clear(s.blockRange(block))
	return nil
}

// Provision zeroes the whole media area.
func (s *Store) Provision(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	clear(s.data[imageHeaderSize:])
	return nil
}

// Geometry returns the store layout.
func (s *Store) Geometry() nand.Geometry {
	return s.geom
}

// HealthCheck verifies the mapping is live.
func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	return s.checkHeader()
}

// Sync flushes dirty pages of the mapping to the image file.
func (s *Store) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	return s.region.sync()
}

// Close syncs and unmaps the image.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.region.sync(); err != nil {
		errs = append(errs, err)
	}
	if err := s.region.unmap(); err != nil {
		errs = append(errs, err)
	}
	s.data = nil
	if err := s.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Ensure Store implements nand.Store.
var _ nand.Store = (*Store)(nil)
