// Package server implements the HTTP monitoring endpoints for the
// recording pipeline: health, session state, and Prometheus metrics.
package server
