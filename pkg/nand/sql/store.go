// Package sql provides a NAND store on a relational database through GORM.
// SQLite (pure Go) is the default; PostgreSQL is supported for shared media.
package sql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/marmos91/ssdsim/pkg/nand"
)

// DatabaseType defines the supported database backends.
type DatabaseType string

const (
	// DatabaseTypeSQLite uses an SQLite file.
	DatabaseTypeSQLite DatabaseType = "sqlite"

	// DatabaseTypePostgres uses PostgreSQL.
	DatabaseTypePostgres DatabaseType = "postgres"
)

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path string `mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// Config contains database configuration.
type Config struct {
	Type     DatabaseType   `mapstructure:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}
	if c.Type == DatabaseTypeSQLite && c.SQLite.Path == "" {
		c.SQLite.Path = ":memory:"
	}
	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 10
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 2
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return errors.New("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return errors.New("postgres database is required")
		}
		if c.Postgres.User == "" {
			return errors.New("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// Block marks a provisioned erase block.
type Block struct {
	ID uint32 `gorm:"primaryKey;autoIncrement:false"`
}

// TableName returns the table name for GORM.
func (Block) TableName() string { return "nand_blocks" }

// Page holds the contents of one programmed page.
type Page struct {
	BlockID uint32 `gorm:"primaryKey;autoIncrement:false"`
	Page    uint32 `gorm:"primaryKey;autoIncrement:false"`
	Data    []byte
}

// TableName returns the table name for GORM.
func (Page) TableName() string { return "nand_pages" }

// Store implements nand.Store using GORM.
type Store struct {
	db     *gorm.DB
	geom   nand.Geometry
	closed bool
	mu     sync.RWMutex
}

// New opens the database and migrates the schema.
func New(config Config, geom nand.Geometry) (*Store, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		dsn := config.SQLite.Path
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
		dialector = sqlite.Open(dsn)
	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch config.Type {
	case DatabaseTypeSQLite:
		// Every connection to ":memory:" is a distinct database.
		sqlDB.SetMaxOpenConns(1)
	case DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(&Block{}, &Page{}); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	return &Store{db: db, geom: geom}, nil
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nand.ErrStoreClosed
	}
	return nil
}

func requireBlock(tx *gorm.DB, block uint32) error {
	var count int64
	if err := tx.Model(&Block{}).Where("id = ?", block).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up block: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("block %d: %w", block, nand.ErrBlockUnavailable)
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

	db := s.db.WithContext(ctx)
	if err := requireBlock(db, block); err != nil {
		return err
	}

	var rows []Page
	if err := db.Where("block_id = ? AND page = ?", block, page).Limit(1).Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to get page: %w", err)
	}
	if len(rows) == 0 {
		clear(buf)
		return nil
	}
	n := copy(buf, rows[0].Data)
	clear(buf[n:])
	return nil
}

// WritePage upserts a page row.
func (s *Store) WritePage(ctx context.Context, block, page uint32, data []byte) error {
	if err := s.geom.CheckPage(block, page, data); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireBlock(tx, block); err != nil {
			return err
		}
		row := Page{BlockID: block, Page: page, Data: append([]byte(nil), data...)}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "block_id"}, {Name: "page"}},
			DoUpdates: clause.AssignmentColumns([]string{"data"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to store page: %w", err)
		}
		return nil
	})
}

// EraseBlock deletes every page row of a block.
func (s *Store) EraseBlock(ctx context.Context, block uint32) error {
	if err := s.geom.CheckBlock(block); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireBlock(tx, block); err != nil {
			return err
		}
		if err := tx.Where("block_id = ?", block).Delete(&Page{}).Error; err != nil {
			return fmt.Errorf("failed to erase block: %w", err)
		}
		return nil
	})
}

// Provision empties both tables and inserts one row per block.
func (s *Store) Provision(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Page{}).Error; err != nil {
			return fmt.Errorf("failed to clear pages: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Block{}).Error; err != nil {
			return fmt.Errorf("failed to clear blocks: %w", err)
		}
		blocks := make([]Block, s.geom.PhysicalBlocks)
		for i := range blocks {
			blocks[i].ID = uint32(i)
		}
		if err := tx.Create(&blocks).Error; err != nil {
			return fmt.Errorf("failed to create blocks: %w", err)
		}
		return nil
	})
}

// Retire deletes a block row so later accesses fail with ErrBlockUnavailable.
func (s *Store) Retire(ctx context.Context, block uint32) error {
	if err := s.geom.CheckBlock(block); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("id = ?", block).Delete(&Block{}).Error
}

// Geometry returns the store layout.
func (s *Store) Geometry() nand.Geometry {
	return s.geom
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Store implements nand.Store.
var _ nand.Store = (*Store)(nil)
