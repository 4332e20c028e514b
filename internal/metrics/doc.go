// Package metrics defines the Prometheus instrumentation for the
// recording sink: frame intake counters, buffering gauges, and
// conversion outcome and latency metrics.
package metrics
