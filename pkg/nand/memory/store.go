// Package memory provides an in-memory NAND store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/ssdsim/pkg/nand"
)

// Store is an in-memory implementation of nand.Store.
// Each block is a single byte slice of BlockSize bytes.
type Store struct {
	mu          sync.RWMutex
	geom        nand.Geometry
	blocks      [][]byte
	unavailable map[uint32]bool
	closed      bool
}

// New creates a provisioned in-memory store.
func New(geom nand.Geometry) (*Store, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}

	s := &Store{
		geom:        geom,
		unavailable: make(map[uint32]bool),
	}
	s.provision()
	return s, nil
}

func (s *Store) provision() {
	s.blocks = make([][]byte, s.geom.PhysicalBlocks)
	for i := range s.blocks {
		s.blocks[i] = make([]byte, s.geom.BlockSize())
	}
}

// block returns the backing slice of a block. Caller holds the lock.
func (s *Store) block(id uint32) ([]byte, error) {
	if s.closed {
		return nil, nand.ErrStoreClosed
	}
	if s.unavailable[id] {
		return nil, fmt.Errorf("%w: %s", nand.ErrBlockUnavailable, nand.BlockName(id))
	}
	return s.blocks[id], nil
}

// ReadPage copies a page into buf.
func (s *Store) ReadPage(ctx context.Context, block, page uint32, buf []byte) error {
	if err := s.geom.CheckPage(block, page, buf); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.block(block)
	if err != nil {
		return err
	}

	off := s.geom.PageOffset(page)
	copy(buf, data[off:off+int64(s.geom.PageSize)])
	return nil
}

// WritePage copies data into a page.
func (s *Store) WritePage(ctx context.Context, block, page uint32, data []byte) error {
	if err := s.geom.CheckPage(block, page, data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blk, err := s.block(block)
	if err != nil {
		return err
	}

	off := s.geom.PageOffset(page)
	copy(blk[off:off+int64(s.geom.PageSize)], data)
	return nil
}

// EraseBlock zeroes a block.
func (s *Store) EraseBlock(ctx context.Context, block uint32) error {
	if err := s.geom.CheckBlock(block); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blk, err := s.block(block)
	if err != nil {
		return err
	}
	clear(blk)
	return nil
}

// Provision resets every block to zero.
func (s *Store) Provision(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	s.provision()
	return nil
}

// Geometry returns the store layout.
func (s *Store) Geometry() nand.Geometry {
	return s.geom
}

// HealthCheck verifies the store is accessible and operational.
func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed and drops its content.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.blocks = nil
	return nil
}

// SetUnavailable makes a block fail every access with nand.ErrBlockUnavailable
// (for testing media failures).
func (s *Store) SetUnavailable(block uint32, unavailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if unavailable {
		s.unavailable[block] = true
	} else {
		delete(s.unavailable, block)
	}
}

// Ensure Store implements nand.Store.
var _ nand.Store = (*Store)(nil)
