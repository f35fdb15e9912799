package api

import (
	"time"

	"github.com/marmos91/ssdsim/internal/bytesize"
)

// APIConfig configures the HTTP server exposing the device.
type APIConfig struct {
	// Listen is the address the server binds to.
	// Default: 127.0.0.1:8080
	Listen string `mapstructure:"listen" validate:"required,hostname_port" yaml:"listen"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"gte=0" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Writes that trigger GC on remote media can be slow.
	// Default: 30s
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0" yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"gte=0" yaml:"idle_timeout"`

	// MaxBodySize bounds request bodies. Write payloads are base64 encoded,
	// so the largest write is about three quarters of this.
	// Default: 4MiB
	MaxBodySize bytesize.ByteSize `mapstructure:"max_body_size" validate:"gt=0" yaml:"max_body_size"`
}

// ApplyDefaults fills in zero values.
func (c *APIConfig) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxBodySize == 0 {
		c.MaxBodySize = 4 * bytesize.MiB
	}
}
