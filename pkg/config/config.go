// Package config loads the ssdsim server configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/ssdsim/internal/bytesize"
	"github.com/marmos91/ssdsim/pkg/api"
	"github.com/marmos91/ssdsim/pkg/nand"
)

// Config represents the ssdsim configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SSDSIM_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API configures the HTTP server exposing the device
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Device describes the simulated SSD layout
	Device DeviceConfig `mapstructure:"device" yaml:"device"`

	// Media selects and configures the NAND backend
	Media MediaConfig `mapstructure:"media" yaml:"media"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" validate:"dive,oneof=cpu alloc_objects alloc_space inuse_objects inuse_space goroutines mutex_count mutex_duration block_count block_duration" yaml:"profile_types"`
}

// MetricsConfig controls Prometheus metrics. When enabled the API server
// exposes them on /metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DeviceConfig describes the simulated device.
type DeviceConfig struct {
	Geometry nand.Geometry `mapstructure:"geometry" yaml:"geometry"`

	// InitialSize is the logical size the device is formatted to at startup
	InitialSize bytesize.ByteSize `mapstructure:"initial_size" yaml:"initial_size"`
}

// Load loads configuration from defaults, file and environment.
//
// A missing config file is not an error: the defaults, overridden by any
// SSDSIM_* variables, are returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if err := setupViper(v, configPath); err != nil {
		return nil, err
	}

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration, requiring the file to exist. The error
// explains how to create one.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please initialize a configuration file first:\n"+
			"  ssdsim config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Media sections may carry credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper seeds viper with the defaults and configures environment and
// file lookup. Seeding every key lets SSDSIM_* variables override settings
// the file does not mention.
func setupViper(v *viper.Viper, configPath string) error {
	defaults, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to render defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	// Example: SSDSIM_LOGGING_LEVEL=DEBUG, SSDSIM_DEVICE_GEOMETRY_PAGE_SIZE=4096
	v.SetEnvPrefix("SSDSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
	}
	return nil
}

// readConfigFile merges the config file over the defaults. It reports whether
// a file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// configDecodeHooks returns the decode hooks for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize so
// sizes can be written as "50KiB" or 51200.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			if v < 0 {
				return nil, fmt.Errorf("byte size must not be negative, got %d", v)
			}
			return bytesize.ByteSize(v), nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("byte size must not be negative, got %d", v)
			}
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			if v < 0 {
				return nil, fmt.Errorf("byte size must not be negative, got %v", v)
			}
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/ssdsim, ~/.config/ssdsim, or "."
// when no home directory is known.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ssdsim")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ssdsim")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default path.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
