// Package fs provides a filesystem-backed NAND store.
//
// Every physical block is a regular file named "nand_<id>" under BasePath. A
// page lives at offset page*PageSize inside its block file. Erasing a block
// truncates its file to zero length; bytes past the end of a file read as zero,
// so an erased or freshly provisioned block reads as all-zero pages.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/marmos91/ssdsim/pkg/nand"
)

// Config holds configuration for the filesystem NAND store.
type Config struct {
	// BasePath is the directory holding the block files.
	BasePath string `mapstructure:"path"`

	// CreateDir creates the base directory if it doesn't exist.
	// Default: true
	CreateDir bool `mapstructure:"create_dir"`

	// DirMode is the permission mode for created directories.
	// Default: 0755
	DirMode os.FileMode `mapstructure:"dir_mode"`

	// FileMode is the permission mode for created block files.
	// Default: 0644
	FileMode os.FileMode `mapstructure:"file_mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig(basePath string) Config {
	return Config{
		BasePath:  basePath,
		CreateDir: true,
		DirMode:   0755,
		FileMode:  0644,
	}
}

// Store is a filesystem-backed implementation of nand.Store.
type Store struct {
	mu       sync.RWMutex
	geom     nand.Geometry
	basePath string
	fileMode os.FileMode
	closed   bool
}

// New creates a filesystem NAND store. Block files are created by Provision.
func New(cfg Config, geom nand.Geometry) (*Store, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	if cfg.BasePath == "" {
		return nil, errors.New("base path is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("base path is not a directory")
	}

	return &Store{
		geom:     geom,
		basePath: cfg.BasePath,
		fileMode: cfg.FileMode,
	}, nil
}

// NewWithPath creates a filesystem NAND store with default configuration.
func NewWithPath(basePath string, geom nand.Geometry) (*Store, error) {
	return New(DefaultConfig(basePath), geom)
}

// blockPath returns the full filesystem path for a block file.
func (s *Store) blockPath(block uint32) string {
	return filepath.Join(s.basePath, nand.BlockName(block))
}

// open opens an existing block file. A missing file means the block is unavailable.
func (s *Store) open(block uint32, flag int) (*os.File, error) {
	f, err := os.OpenFile(s.blockPath(block), flag, s.fileMode)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", nand.ErrBlockUnavailable, nand.BlockName(block))
		}
		return nil, fmt.Errorf("%w: %v", nand.ErrBlockUnavailable, err)
	}
	return f, nil
}

// ReadPage reads a page from its block file.
func (s *Store) ReadPage(ctx context.Context, block, page uint32, buf []byte) error {
	if err := s.geom.CheckPage(block, page, buf); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nand.ErrStoreClosed
	}

	f, err := s.open(block, os.O_RDONLY)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.ReadAt(buf, s.geom.PageOffset(page))
	if err != nil && err != io.EOF {
		return fmt.Errorf("read %s: %w", nand.BlockName(block), err)
	}
	// Short block files hold zeroes past their end.
	clear(buf[n:])
	return nil
}

// WritePage writes a page into its block file.
func (s *Store) WritePage(ctx context.Context, block, page uint32, data []byte) error {
	if err := s.geom.CheckPage(block, page, data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}

	f, err := s.open(block, os.O_WRONLY)
	if err != nil {
		return err
	}

	if _, err := f.WriteAt(data, s.geom.PageOffset(page)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", nand.BlockName(block), err)
	}
	return f.Close()
}

// EraseBlock truncates the block file, recreating it if needed.
func (s *Store) EraseBlock(ctx context.Context, block uint32) error {
	if err := s.geom.CheckBlock(block); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}
	return s.truncate(block)
}

func (s *Store) truncate(block uint32) error {
	f, err := os.OpenFile(s.blockPath(block), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.fileMode)
	if err != nil {
		return fmt.Errorf("%w: %v", nand.ErrBlockUnavailable, err)
	}
	return f.Close()
}

// Provision creates (or truncates) every block file.
func (s *Store) Provision(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}

	for b := 0; b < s.geom.PhysicalBlocks; b++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.truncate(uint32(b)); err != nil {
			return fmt.Errorf("provision %s: %w", nand.BlockName(uint32(b)), err)
		}
	}
	return nil
}

// Geometry returns the store layout.
func (s *Store) Geometry() nand.Geometry {
	return s.geom
}

// HealthCheck verifies the base directory is accessible.
func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nand.ErrStoreClosed
	}

	_, err := os.Stat(s.basePath)
	return err
}

// Close marks the store as closed. Block files are left in place.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// BasePath returns the base path of the store (for testing).
func (s *Store) BasePath() string {
	return s.basePath
}

// Ensure Store implements nand.Store.
var _ nand.Store = (*Store)(nil)
