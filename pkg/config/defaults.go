package config

import (
	"strings"
	"time"

	"github.com/marmos91/ssdsim/pkg/nand"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	cfg.API.ApplyDefaults()
	applyDeviceDefaults(&cfg.Device)
	applyMediaDefaults(&cfg.Media)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "inuse_space", "goroutines"}
	}
}

// applyDeviceDefaults fills the geometry field by field, so a config can
// override just the page size.
func applyDeviceDefaults(cfg *DeviceConfig) {
	g := &cfg.Geometry
	if g.PageSize == 0 {
		g.PageSize = nand.DefaultPageSize
	}
	if g.PagesPerBlock == 0 {
		g.PagesPerBlock = nand.DefaultPagesPerBlock
	}
	if g.PhysicalBlocks == 0 {
		g.PhysicalBlocks = nand.DefaultPhysicalBlocks
	}
	if g.LogicalBlocks == 0 {
		g.LogicalBlocks = nand.DefaultLogicalBlocks
	}
}

func applyMediaDefaults(cfg *MediaConfig) {
	if cfg.Type == "" {
		cfg.Type = MediaMemory
	}
}

// GetDefaultConfig returns a Config with every default applied: an in-memory
// device with the default geometry and an API on localhost.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
