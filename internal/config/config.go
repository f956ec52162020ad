package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Audio   AudioConfig   `yaml:"audio"`
	VAD     VADConfig     `yaml:"vad"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Port           int    `yaml:"port"`
	Address        string `yaml:"address"`
	MaxRequestSize int64  `yaml:"max_request_size"` // bytes, limit for WAV uploads
}

// AudioConfig contains audio stream parameters
type AudioConfig struct {
	SampleRate     int `yaml:"sample_rate"`     // Hz, applies to streaming sessions
	SessionTimeout int `yaml:"session_timeout"` // seconds of inactivity before cleanup
	MaxSessions    int `yaml:"max_sessions"`
}

// VADConfig contains the endpoint detection parameters
type VADConfig struct {
	TopDB              float64 `yaml:"top_db"`               // dB drop below reference considered silence
	FrameLength        int     `yaml:"frame_length"`         // samples per analysis frame
	HopLength          int     `yaml:"hop_length"`           // samples between frame starts
	MinSpeechDuration  float64 `yaml:"min_speech_duration"`  // seconds
	MinSilenceDuration float64 `yaml:"min_silence_duration"` // seconds
	ReferenceLevel     float64 `yaml:"reference_level"`      // optional fixed reference energy (0 = track maximum)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs validation of the full configuration tree
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP server configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if h.MaxRequestSize < 1024 {
		return fmt.Errorf("max_request_size must be at least 1024 bytes, got %d", h.MaxRequestSize)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", a.SampleRate)
	}

	if a.SessionTimeout < 1 {
		return fmt.Errorf("session_timeout must be at least 1 second, got %d", a.SessionTimeout)
	}

	if a.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be at least 1, got %d", a.MaxSessions)
	}

	return nil
}

// Validate validates endpoint detection configuration
func (v *VADConfig) Validate() error {
	if v.TopDB < 0 {
		return fmt.Errorf("top_db must not be negative, got %f", v.TopDB)
	}

	if v.FrameLength <= 0 {
		return fmt.Errorf("frame_length must be positive, got %d", v.FrameLength)
	}

	if v.HopLength <= 0 {
		return fmt.Errorf("hop_length must be positive, got %d", v.HopLength)
	}

	if v.FrameLength < v.HopLength {
		return fmt.Errorf("frame_length (%d) must be >= hop_length (%d), gaps would be left between frames",
			v.FrameLength, v.HopLength)
	}

	if v.MinSpeechDuration <= 0 {
		return fmt.Errorf("min_speech_duration must be positive, got %f", v.MinSpeechDuration)
	}

	if v.MinSilenceDuration <= 0 {
		return fmt.Errorf("min_silence_duration must be positive, got %f", v.MinSilenceDuration)
	}

	if v.ReferenceLevel < 0 {
		return fmt.Errorf("reference_level must not be negative, got %f", v.ReferenceLevel)
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

// MinSpeechFrames converts the minimum speech duration to a frame count at
// the given sample rate, never returning less than one frame.
func (v *VADConfig) MinSpeechFrames(sampleRate int) int {
	return durationFrames(v.MinSpeechDuration, v.HopLength, sampleRate)
}

// MinSilenceFrames converts the minimum silence duration to a frame count at
// the given sample rate, never returning less than one frame.
func (v *VADConfig) MinSilenceFrames(sampleRate int) int {
	return durationFrames(v.MinSilenceDuration, v.HopLength, sampleRate)
}

// durationFrames converts a duration in seconds to a count of hops
func durationFrames(seconds float64, hopLength, sampleRate int) int {
	frames := int(math.Round(seconds * float64(sampleRate) / float64(hopLength)))
	if frames < 1 {
		frames = 1
	}
	return frames
}

// GetSessionTimeoutDuration returns the session timeout as a time.Duration
func (a *AudioConfig) GetSessionTimeoutDuration() time.Duration {
	return time.Duration(a.SessionTimeout) * time.Second
}
