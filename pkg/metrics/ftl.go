package metrics

import (
	"github.com/marmos91/ssdsim/pkg/ftl"
)

// NewFTLMetrics creates a Prometheus-backed ftl.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// Prometheus implementation is not linked in. Callers pass the result to
// ftl.WithMetrics either way:
//
//	metrics.InitRegistry()
//	device, err := ftl.New(store, cfg, ftl.WithMetrics(metrics.NewFTLMetrics()))
func NewFTLMetrics() ftl.Metrics {
	if !IsEnabled() || newPrometheusFTLMetrics == nil {
		return nil
	}
	return newPrometheusFTLMetrics()
}

// newPrometheusFTLMetrics is set by pkg/metrics/prometheus during package
// initialization. The indirection avoids an import cycle.
var newPrometheusFTLMetrics func() ftl.Metrics

// RegisterFTLMetricsConstructor registers the Prometheus FTL metrics constructor.
func RegisterFTLMetricsConstructor(constructor func() ftl.Metrics) {
	newPrometheusFTLMetrics = constructor
}
