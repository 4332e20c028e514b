package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete recorder configuration
type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	Capture  CaptureConfig  `yaml:"capture"`
	Encoding EncodingConfig `yaml:"encoding"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AudioConfig describes the raw PCM format delivered by the voice
// transport. The values are fixed by the transport and validated rather
// than tunable.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BitDepth   int `yaml:"bit_depth"`
}

// CaptureConfig contains the capture constraints applied while recording
type CaptureConfig struct {
	MaxSilenceGap float64  `yaml:"max_silence_gap"` // seconds, 0 disables gap filling
	AllowedUsers  []uint64 `yaml:"allowed_users"`
	DeniedUsers   []uint64 `yaml:"denied_users"`
}

// EncodingConfig selects the output format and external encoder binary
type EncodingConfig struct {
	Format     string `yaml:"format"`      // pcm, wav, mkv, mka, mp3, ogg, m4a, mp4
	FFmpegPath string `yaml:"ffmpeg_path"` // empty resolves ffmpeg via PATH
}

// HTTPConfig contains the monitoring HTTP server configuration
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate: 48000,
			Channels:   2,
			BitDepth:   16,
		},
		Capture: CaptureConfig{
			MaxSilenceGap: 5.0,
		},
		Encoding: EncodingConfig{
			Format: "wav",
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Address: "127.0.0.1",
			Port:    8090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Encoding.Validate(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 48000 {
		return fmt.Errorf("sample_rate must be 48000 Hz for the voice transport, got %d", a.SampleRate)
	}

	if a.Channels != 2 {
		return fmt.Errorf("channels must be 2 (stereo) for the voice transport, got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16 for the voice transport, got %d", a.BitDepth)
	}

	return nil
}

// Validate validates capture configuration
func (c *CaptureConfig) Validate() error {
	if c.MaxSilenceGap < 0 {
		return fmt.Errorf("max_silence_gap cannot be negative, got %f", c.MaxSilenceGap)
	}

	denied := make(map[uint64]bool, len(c.DeniedUsers))
	for _, u := range c.DeniedUsers {
		denied[u] = true
	}

	for _, u := range c.AllowedUsers {
		if denied[u] {
			return fmt.Errorf("user %d is both allowed and denied", u)
		}
	}

	return nil
}

// Validate validates encoding configuration
func (e *EncodingConfig) Validate() error {
	validFormats := map[string]bool{
		"pcm": true, "wav": true, "mkv": true, "mka": true,
		"mp3": true, "ogg": true, "m4a": true, "mp4": true,
	}
	if !validFormats[e.Format] {
		return fmt.Errorf("format must be one of [pcm, wav, mkv, mka, mp3, ogg, m4a, mp4], got '%s'", e.Format)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetMaxSilenceGap returns the silence gap cap as a time.Duration
func (c *CaptureConfig) GetMaxSilenceGap() time.Duration {
	return time.Duration(c.MaxSilenceGap * float64(time.Second))
}
