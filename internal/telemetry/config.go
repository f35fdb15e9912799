package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config holds OpenTelemetry configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317"
	Endpoint string
	Insecure bool

	// SampleRate is the fraction of traces kept, clamped to [0, 1]
	SampleRate float64

	// Resource is attached to every exported span, typically the media
	// backend and device geometry.
	Resource []attribute.KeyValue
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		ServiceName:    "ssdsim",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

func (c Config) sampler() sdktrace.Sampler {
	switch {
	case c.SampleRate >= 1:
		return sdktrace.AlwaysSample()
	case c.SampleRate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRate))
	}
}
