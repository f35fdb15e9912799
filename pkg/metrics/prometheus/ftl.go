package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/ssdsim/pkg/ftl"
	"github.com/marmos91/ssdsim/pkg/metrics"
)

func init() {
	metrics.RegisterFTLMetricsConstructor(func() ftl.Metrics {
		return NewFTLMetrics(metrics.GetRegistry())
	})
}

// ftlMetrics is the Prometheus implementation of ftl.Metrics.
type ftlMetrics struct {
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	mediaTotal         *prometheus.CounterVec
	mediaDuration      *prometheus.HistogramVec
	hostBytes          prometheus.Counter
	programmedPages    *prometheus.CounterVec
	programmedBytes    *prometheus.CounterVec
	gcCycles           prometheus.Counter
	gcMigratedPages    prometheus.Histogram
	gcDuration         prometheus.Histogram
	eraseFailures      prometheus.Counter
	freeBlocks         prometheus.Gauge
	writeAmplification prometheus.Gauge
}

// NewFTLMetrics registers the device metrics with reg.
func NewFTLMetrics(reg prometheus.Registerer) *ftlMetrics {
	return &ftlMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssdsim_operations_total",
				Help: "Total number of host operations by operation type and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "ssdsim_operation_duration_milliseconds",
				Help: "Duration of host operations in milliseconds",
				Buckets: []float64{
					0.01, // 10us - unmapped reads
					0.1,  // 100us - in-memory media
					1,    // 1ms - local files
					10,   // 10ms - GC on local media
					100,  // 100ms - remote media
					1000, // 1s - GC on remote media
				},
			},
			[]string{"operation"},
		),
		mediaTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssdsim_nand_operations_total",
				Help: "Total number of media backend calls by operation type and status",
			},
			[]string{"operation", "status"},
		),
		mediaDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ssdsim_nand_operation_duration_milliseconds",
				Help:    "Duration of media backend calls in milliseconds",
				Buckets: []float64{0.01, 0.1, 1, 10, 100, 1000},
			},
			[]string{"operation"},
		),
		hostBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ssdsim_host_bytes_written_total",
				Help: "Total bytes accepted from the host",
			},
		),
		programmedPages: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssdsim_pages_programmed_total",
				Help: "Total pages programmed on media by source",
			},
			[]string{"source"}, // "host", "gc"
		),
		programmedBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssdsim_physical_bytes_written_total",
				Help: "Total bytes programmed on media by source",
			},
			[]string{"source"}, // "host", "gc"
		),
		gcCycles: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ssdsim_gc_cycles_total",
				Help: "Total number of completed garbage collection cycles",
			},
		),
		gcMigratedPages: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ssdsim_gc_migrated_pages",
				Help:    "Distribution of live pages migrated per GC cycle",
				Buckets: prometheus.LinearBuckets(0, 8, 9),
			},
		),
		gcDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ssdsim_gc_duration_milliseconds",
				Help:    "Duration of garbage collection cycles in milliseconds",
				Buckets: []float64{0.1, 1, 10, 100, 1000, 10000},
			},
		),
		eraseFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ssdsim_erase_failures_total",
				Help: "Total number of block erases the media backend failed",
			},
		),
		freeBlocks: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "ssdsim_free_blocks",
				Help: "Current number of free erase blocks",
			},
		),
		writeAmplification: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "ssdsim_write_amplification",
				Help: "Physical bytes written divided by host bytes written",
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func source(gc bool) string {
	if gc {
		return "gc"
	}
	return "host"
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ObserveOperation records a host operation.
func (m *ftlMetrics) ObserveOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(op, status(err)).Inc()
	m.operationDuration.WithLabelValues(op).Observe(milliseconds(duration))
}

// ObserveMedia records a media backend call.
func (m *ftlMetrics) ObserveMedia(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.mediaTotal.WithLabelValues(op, status(err)).Inc()
	m.mediaDuration.WithLabelValues(op).Observe(milliseconds(duration))
}

// RecordHostBytes records bytes accepted from the host.
func (m *ftlMetrics) RecordHostBytes(n int) {
	if m == nil {
		return
	}
	m.hostBytes.Add(float64(n))
}

// RecordPageProgram records a programmed page.
func (m *ftlMetrics) RecordPageProgram(bytes int, gc bool) {
	if m == nil {
		return
	}
	m.programmedPages.WithLabelValues(source(gc)).Inc()
	m.programmedBytes.WithLabelValues(source(gc)).Add(float64(bytes))
}

// RecordGC records a completed GC cycle.
func (m *ftlMetrics) RecordGC(migrated int, duration time.Duration) {
	if m == nil {
		return
	}
	m.gcCycles.Inc()
	m.gcMigratedPages.Observe(float64(migrated))
	m.gcDuration.Observe(milliseconds(duration))
}

// RecordEraseFailure records a failed erase.
func (m *ftlMetrics) RecordEraseFailure() {
	if m == nil {
		return
	}
	m.eraseFailures.Inc()
}

// SetFreeBlocks sets the free block gauge.
func (m *ftlMetrics) SetFreeBlocks(n int) {
	if m == nil {
		return
	}
	m.freeBlocks.Set(float64(n))
}

// SetWriteAmplification sets the write amplification gauge.
func (m *ftlMetrics) SetWriteAmplification(wa float64) {
	if m == nil {
		return
	}
	m.writeAmplification.Set(wa)
}

var _ ftl.Metrics = (*ftlMetrics)(nil)
