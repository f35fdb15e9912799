package config

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/badger"
	"github.com/marmos91/ssdsim/pkg/nand/fs"
	"github.com/marmos91/ssdsim/pkg/nand/memory"
	"github.com/marmos91/ssdsim/pkg/nand/mmap"
	"github.com/marmos91/ssdsim/pkg/nand/s3"
	"github.com/marmos91/ssdsim/pkg/nand/sql"
)

// Media backend types.
const (
	MediaMemory = "memory"
	MediaFS     = "fs"
	MediaMmap   = "mmap"
	MediaBadger = "badger"
	MediaS3     = "s3"
	MediaSQL    = "sql"
)

// MediaConfig selects the NAND backend. Only the section matching Type is
// read; each is decoded into the backend's own Config.
type MediaConfig struct {
	// Type selects the backend
	Type string `mapstructure:"type" validate:"required,oneof=memory fs mmap badger s3 sql" yaml:"type"`

	FS     map[string]any `mapstructure:"fs" yaml:"fs,omitempty"`
	Mmap   map[string]any `mapstructure:"mmap" yaml:"mmap,omitempty"`
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
	S3     map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
	SQL    map[string]any `mapstructure:"sql" yaml:"sql,omitempty"`
}

// decodeSection decodes a backend section with the same hooks as the main
// config, so env-provided strings convert to numbers and booleans.
func decodeSection(section map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       configDecodeHooks(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(section)
}

func (c *MediaConfig) fsConfig() (fs.Config, error) {
	var raw struct {
		Path      string `mapstructure:"path"`
		CreateDir *bool  `mapstructure:"create_dir"`
		DirMode   uint32 `mapstructure:"dir_mode"`
		FileMode  uint32 `mapstructure:"file_mode"`
	}
	if err := decodeSection(c.FS, &raw); err != nil {
		return fs.Config{}, fmt.Errorf("invalid fs config: %w", err)
	}

	cfg := fs.DefaultConfig(raw.Path)
	if raw.CreateDir != nil {
		cfg.CreateDir = *raw.CreateDir
	}
	if raw.DirMode != 0 {
		cfg.DirMode = os.FileMode(raw.DirMode)
	}
	if raw.FileMode != 0 {
		cfg.FileMode = os.FileMode(raw.FileMode)
	}
	return cfg, nil
}

func (c *MediaConfig) mmapConfig() (mmap.Config, error) {
	var cfg mmap.Config
	if err := decodeSection(c.Mmap, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid mmap config: %w", err)
	}
	return cfg, nil
}

func (c *MediaConfig) badgerConfig() (badger.Config, error) {
	var cfg badger.Config
	if err := decodeSection(c.Badger, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid badger config: %w", err)
	}
	return cfg, nil
}

func (c *MediaConfig) s3Config() (s3.Config, error) {
	var cfg s3.Config
	if err := decodeSection(c.S3, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid s3 config: %w", err)
	}
	return cfg, nil
}

func (c *MediaConfig) sqlConfig() (sql.Config, error) {
	var cfg sql.Config
	if err := decodeSection(c.SQL, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid sql config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// validate checks the settings of the selected backend without opening it.
func (c *MediaConfig) validate() error {
	switch c.Type {
	case MediaMemory:
		return nil
	case MediaFS:
		cfg, err := c.fsConfig()
		if err != nil {
			return err
		}
		if cfg.BasePath == "" {
			return fmt.Errorf("fs backend requires path to be set")
		}
	case MediaMmap:
		cfg, err := c.mmapConfig()
		if err != nil {
			return err
		}
		if cfg.Path == "" {
			return fmt.Errorf("mmap backend requires path to be set")
		}
	case MediaBadger:
		cfg, err := c.badgerConfig()
		if err != nil {
			return err
		}
		if cfg.Path == "" && !cfg.InMemory {
			return fmt.Errorf("badger backend requires path or in_memory to be set")
		}
	case MediaS3:
		cfg, err := c.s3Config()
		if err != nil {
			return err
		}
		if cfg.Bucket == "" {
			return fmt.Errorf("s3 backend requires bucket to be set")
		}
	case MediaSQL:
		cfg, err := c.sqlConfig()
		if err != nil {
			return err
		}
		return cfg.Validate()
	default:
		return fmt.Errorf("unknown media type: %q", c.Type)
	}
	return nil
}

// CreateStore opens the configured NAND backend. The store is not provisioned.
func CreateStore(ctx context.Context, cfg MediaConfig, geom nand.Geometry) (nand.Store, error) {
	switch cfg.Type {
	case MediaMemory, "":
		return memory.New(geom)
	case MediaFS:
		fsCfg, err := cfg.fsConfig()
		if err != nil {
			return nil, err
		}
		return fs.New(fsCfg, geom)
	case MediaMmap:
		mmapCfg, err := cfg.mmapConfig()
		if err != nil {
			return nil, err
		}
		return mmap.New(mmapCfg, geom)
	case MediaBadger:
		badgerCfg, err := cfg.badgerConfig()
		if err != nil {
			return nil, err
		}
		return badger.New(badgerCfg, geom)
	case MediaS3:
		s3Cfg, err := cfg.s3Config()
		if err != nil {
			return nil, err
		}
		return s3.NewFromConfig(ctx, s3Cfg, geom)
	case MediaSQL:
		sqlCfg, err := cfg.sqlConfig()
		if err != nil {
			return nil, err
		}
		return sql.New(sqlCfg, geom)
	default:
		return nil, fmt.Errorf("unknown media type: %q", cfg.Type)
	}
}
