// Package nand defines the media contract for simulated NAND flash.
//
// A Store persists physical blocks, each holding Geometry.PagesPerBlock pages of
// Geometry.PageSize bytes. Pages are the read/write unit and blocks are the erase
// unit. Stores are deliberately dumb: they do not know about logical addresses,
// live-page accounting or garbage collection. All of that lives in pkg/ftl.
//
// Implementations:
//   - memory: per-block byte slices, used by tests and as the default backend
//   - fs: one file per block ("nand_<id>"), the classic simulator layout
//   - mmap: a single memory-mapped image file
//   - badger: one BadgerDB key per page
//   - s3: one object per block
//   - sql: gorm-backed tables (SQLite or PostgreSQL)
package nand

import (
	"context"
	"errors"
)

// Common errors returned by Store implementations.
var (
	// ErrBlockUnavailable is returned when the backing unit of a block cannot be
	// opened (missing file, missing object, unprovisioned key range).
	ErrBlockUnavailable = errors.New("block unavailable")

	// ErrStoreClosed is returned when operations are attempted on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrOutOfRange is returned for block or page indices outside the geometry,
	// or for page buffers whose length is not the page size.
	ErrOutOfRange = errors.New("address out of range")
)

// Store defines the interface for NAND media backends.
type Store interface {
	// ReadPage fills buf (len == PageSize) with the content of the page.
	// Pages that were never written since the last erase read as zeroes.
	// Returns ErrBlockUnavailable if the block cannot be opened.
	ReadPage(ctx context.Context, block, page uint32, buf []byte) error

	// WritePage stores data (len == PageSize) at the given page.
	// Returns ErrBlockUnavailable if the block cannot be opened.
	WritePage(ctx context.Context, block, page uint32, data []byte) error

	// EraseBlock resets every page of the block to zero.
	EraseBlock(ctx context.Context, block uint32) error

	// Provision creates every block in its erased state. Provisioning an
	// already provisioned store erases it.
	Provision(ctx context.Context) error

	// Geometry returns the layout the store was created with.
	Geometry() Geometry

	// HealthCheck verifies the store is accessible and operational.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
