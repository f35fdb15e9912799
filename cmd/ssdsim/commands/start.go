package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/marmos91/ssdsim/internal/bytesize"
	"github.com/marmos91/ssdsim/internal/logger"
	"github.com/marmos91/ssdsim/internal/telemetry"
	"github.com/marmos91/ssdsim/pkg/api"
	"github.com/marmos91/ssdsim/pkg/config"
	"github.com/marmos91/ssdsim/pkg/ftl"
	"github.com/marmos91/ssdsim/pkg/metrics"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/ssdsim/pkg/metrics/prometheus"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the simulated device",
	Long: `Start the simulated SSD and serve it over HTTP.

The NAND media is provisioned on every start: the backend is sized to the
configured geometry and zeroed, and the device is formatted to
device.initial_size. The process runs in the foreground until SIGINT or
SIGTERM.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/ssdsim/config.yaml.

Examples:
  # Start with defaults (in-memory media)
  ssdsim start

  # Start with custom config file
  ssdsim start --config /etc/ssdsim/config.yaml

  # Start with environment variable overrides
  SSDSIM_LOGGING_LEVEL=DEBUG SSDSIM_MEDIA_TYPE=badger ssdsim start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "ssdsim",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
		Resource:       []attribute.KeyValue{telemetry.Backend(cfg.Media.Type)},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "ssdsim",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		Tags:           map[string]string{"backend": cfg.Media.Type},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "path", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	device, err := openDevice(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			logger.Error("Device close error", logger.Err(err))
		}
	}()

	if err := config.WatchLogging(GetConfigFile()); err != nil {
		logger.Warn("Config file watch disabled", logger.Err(err))
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, fmt.Appendf(nil, "%d", os.Getpid()), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	server := api.NewServer(cfg.API, device)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Device is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Stop(shutdownCtx); err != nil {
			return err
		}
		cancel()
		<-serverDone
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// openDevice provisions the configured media and builds the FTL on top.
func openDevice(ctx context.Context, cfg *config.Config) (*ftl.FTL, error) {
	geom := cfg.Device.Geometry

	store, err := config.CreateStore(ctx, cfg.Media, geom)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s media: %w", cfg.Media.Type, err)
	}

	start := time.Now()
	if err := store.Provision(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to provision %s media: %w", cfg.Media.Type, err)
	}
	logger.Info("Media provisioned",
		logger.Backend(cfg.Media.Type),
		"size", bytesize.ByteSize(geom.MediaSize()).Human(),
		logger.DurationMs(logger.Duration(start)),
	)

	device, err := ftl.New(store, ftl.Config{
		Geometry:    geom,
		InitialSize: cfg.Device.InitialSize.Uint64(),
		Backend:     cfg.Media.Type,
	}, ftl.WithMetrics(metrics.NewFTLMetrics()))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	logger.Info("Device ready",
		"capacity", bytesize.ByteSize(device.Capacity()).Human(),
		logger.Size(device.LogicalSize()),
		"page_size", geom.PageSize,
		"pages_per_block", geom.PagesPerBlock,
		"physical_blocks", geom.PhysicalBlocks,
		"logical_blocks", geom.LogicalBlocks,
	)
	return device, nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
