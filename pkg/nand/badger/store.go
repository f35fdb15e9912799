// Package badger provides a NAND store persisted in a BadgerDB key-value database.
//
// Key layout:
//
//	block/<id>          provisioning marker, present while the block is available
//	nand/<id>/<page>    page contents, absent pages read as zero
package badger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/ssdsim/pkg/nand"
)

const (
	prefixBlock = "block/"
	prefixPage  = "nand/"
)

// Config holds configuration for the Badger NAND store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string `mapstructure:"path"`

	// InMemory keeps the database entirely in memory.
	InMemory bool `mapstructure:"in_memory"`

	// SyncWrites forces an fsync after each committed transaction.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// Store implements nand.Store over BadgerDB.
type Store struct {
	db     *badgerdb.DB
	geom   nand.Geometry
	closed bool
	mu     sync.RWMutex
}

// New opens the Badger database described by cfg.
func New(cfg Config, geom nand.Geometry) (*Store, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}

	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("path is required")
		}
		opts = badgerdb.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Store{db: db, geom: geom}, nil
}

func keyBlock(block uint32) []byte {
	return []byte(prefixBlock + strconv.FormatUint(uint64(block), 10))
}

func keyPagePrefix(block uint32) []byte {
	return []byte(prefixPage + strconv.FormatUint(uint64(block), 10) + "/")
}

func keyPage(block, page uint32) []byte {
	return append(keyPagePrefix(block), strconv.FormatUint(uint64(page), 10)...)
}

// requireBlock fails with ErrBlockUnavailable when the marker is missing.
func requireBlock(txn *badgerdb.Txn, block uint32) error {
	_, err := txn.Get(keyBlock(block))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return fmt.Errorf("block %d: %w", block, nand.ErrBlockUnavailable)
	}
	return err
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nand.ErrStoreClosed
	}
	return nil
}

// ReadPage reads a page, returning zeros for never-written pages.
func (s *Store) ReadPage(ctx context.Context, block, page uint32, buf []byte) error {
	if err := s.geom.CheckPage(block, page, buf); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badgerdb.Txn) error {
		if err := requireBlock(txn, block); err != nil {
			return err
		}

		item, err := txn.Get(keyPage(block, page))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			clear(buf)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get page: %w", err)
		}

		return item.Value(func(val []byte) error {
			n := copy(buf, val)
			clear(buf[n:])
			return nil
		})
	})
}

// WritePage stores a page.
func (s *Store) WritePage(ctx context.Context, block, page uint32, data []byte) error {
	if err := s.geom.CheckPage(block, page, data); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		if err := requireBlock(txn, block); err != nil {
			return err
		}
		if err := txn.Set(keyPage(block, page), append([]byte(nil), data...)); err != nil {
			return fmt.Errorf("failed to store page: %w", err)
		}
		return nil
	})
}

// EraseBlock deletes every page key of a block in one transaction.
func (s *Store) EraseBlock(ctx context.Context, block uint32) error {
	if err := s.geom.CheckBlock(block); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		if err := requireBlock(txn, block); err != nil {
			return err
		}
		return deletePrefix(txn, keyPagePrefix(block))
	})
}

// Provision drops all pages and writes a marker for every block.
func (s *Store) Provision(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.DropPrefix([]byte(prefixPage)); err != nil {
		return fmt.Errorf("failed to drop pages: %w", err)
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		for b := 0; b < s.geom.PhysicalBlocks; b++ {
			if err := txn.Set(keyBlock(uint32(b)), nil); err != nil {
				return fmt.Errorf("failed to mark block %d: %w", b, err)
			}
		}
		return nil
	})
}

// Retire removes a block's marker so that later accesses fail with
// ErrBlockUnavailable.
func (s *Store) Retire(ctx context.Context, block uint32) error {
	if err := s.geom.CheckBlock(block); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(keyBlock(block))
	})
}

func deletePrefix(txn *badgerdb.Txn, prefix []byte) error {
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return fmt.Errorf("failed to delete page: %w", err)
		}
	}
	return nil
}

// Geometry returns the store layout.
func (s *Store) Geometry() nand.Geometry {
	return s.geom
}

// HealthCheck verifies the database can serve a read transaction.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.View(func(txn *badgerdb.Txn) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ensure Store implements nand.Store.
var _ nand.Store = (*Store)(nil)
