package telemetry

import (
	"fmt"
	"maps"
	"runtime"
	"sync/atomic"

	"github.com/grafana/pyroscope-go"
)

// ProfilingConfig configures Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the Pyroscope server URL, e.g. "http://localhost:4040"
	Endpoint string

	// ProfileTypes lists the names accepted by parseProfileType
	ProfileTypes []string

	// Tags are attached to every uploaded profile
	Tags map[string]string
}

var profileTypes = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

// Sampling rates enabled when mutex or block profiles are requested.
const (
	mutexProfileFraction = 5
	blockProfileRate     = 5
)

var profilingEnabled atomic.Bool

// InitProfiling starts the Pyroscope agent. The returned function stops it.
func InitProfiling(cfg ProfilingConfig) (func() error, error) {
	if !cfg.Enabled {
		profilingEnabled.Store(false)
		return func() error { return nil }, nil
	}

	types := make([]pyroscope.ProfileType, 0, len(cfg.ProfileTypes))
	for _, name := range cfg.ProfileTypes {
		pt, err := parseProfileType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, pt)

		switch pt {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			runtime.SetMutexProfileFraction(mutexProfileFraction)
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			runtime.SetBlockProfileRate(blockProfileRate)
		}
	}

	tags := map[string]string{"version": cfg.ServiceVersion}
	maps.Copy(tags, cfg.Tags)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.Endpoint,
		Tags:            tags,
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	profilingEnabled.Store(true)

	return func() error {
		profilingEnabled.Store(false)
		return profiler.Stop()
	}, nil
}

// IsProfilingEnabled reports whether the Pyroscope agent is running.
func IsProfilingEnabled() bool {
	return profilingEnabled.Load()
}

func parseProfileType(name string) (pyroscope.ProfileType, error) {
	pt, ok := profileTypes[name]
	if !ok {
		return "", fmt.Errorf("invalid profile type %q", name)
	}
	return pt, nil
}
