package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the recording sink
type Metrics struct {
	// Capture metrics
	FramesReceived prometheus.Counter
	FramesRejected prometheus.Counter
	BytesBuffered  prometheus.Counter
	Participants   prometheus.Gauge

	// Conversion metrics
	ConversionsStarted   *prometheus.CounterVec
	ConversionsSucceeded *prometheus.CounterVec
	ConversionsFailed    *prometheus.CounterVec
	ConversionDuration   prometheus.Histogram
	OutputBytes          prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		FramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sonicord_frames_received_total",
			Help: "Total number of voice frames accepted into participant buffers",
		}),
		FramesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sonicord_frames_rejected_total",
			Help: "Total number of voice frames rejected outside the recording state",
		}),
		BytesBuffered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sonicord_buffered_bytes_total",
			Help: "Total raw PCM bytes appended to participant buffers",
		}),
		Participants: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sonicord_participants",
			Help: "Number of participants with a buffer in the current session",
		}),

		ConversionsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sonicord_conversions_started_total",
			Help: "Total number of per-participant conversions started",
		}, []string{"encoding"}),
		ConversionsSucceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sonicord_conversions_succeeded_total",
			Help: "Total number of per-participant conversions completed successfully",
		}, []string{"encoding"}),
		ConversionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sonicord_conversions_failed_total",
			Help: "Total number of per-participant conversions that failed",
		}, []string{"encoding"}),
		ConversionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sonicord_conversion_duration_seconds",
			Help:    "Wall-clock duration of per-participant conversions",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		OutputBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sonicord_conversion_output_bytes",
			Help:    "Size of the formatted audio produced per participant",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB to ~256MiB
		}),
	}
}
