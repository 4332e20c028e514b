// Package config provides configuration loading and validation for the
// recording pipeline. It handles YAML-based configuration with struct
// validation covering audio format, capture constraints, output encoding,
// and logging.
package config
