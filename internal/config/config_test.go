package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validation, for tests to
// break one field at a time.
func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:           8080,
			Address:        "0.0.0.0",
			MaxRequestSize: 33554432,
		},
		Audio: AudioConfig{
			SampleRate:     16000,
			SessionTimeout: 60,
			MaxSessions:    100,
		},
		VAD: VADConfig{
			TopDB:              25,
			FrameLength:        400,
			HopLength:          160,
			MinSpeechDuration:  0.02,
			MinSilenceDuration: 0.02,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			modify:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid http port",
			modify:      func(c *Config) { c.HTTP.Port = 70000 },
			expectError: true,
			errorMsg:    "port must be between 1 and 65535",
		},
		{
			name:        "empty http address",
			modify:      func(c *Config) { c.HTTP.Address = "" },
			expectError: true,
			errorMsg:    "address cannot be empty",
		},
		{
			name:        "tiny max request size",
			modify:      func(c *Config) { c.HTTP.MaxRequestSize = 100 },
			expectError: true,
			errorMsg:    "max_request_size",
		},
		{
			name:        "zero sample rate",
			modify:      func(c *Config) { c.Audio.SampleRate = 0 },
			expectError: true,
			errorMsg:    "sample_rate must be positive",
		},
		{
			name:        "zero session timeout",
			modify:      func(c *Config) { c.Audio.SessionTimeout = 0 },
			expectError: true,
			errorMsg:    "session_timeout",
		},
		{
			name:        "negative top_db",
			modify:      func(c *Config) { c.VAD.TopDB = -5 },
			expectError: true,
			errorMsg:    "top_db must not be negative",
		},
		{
			name:        "zero frame length",
			modify:      func(c *Config) { c.VAD.FrameLength = 0 },
			expectError: true,
			errorMsg:    "frame_length must be positive",
		},
		{
			name:        "frame shorter than hop",
			modify:      func(c *Config) { c.VAD.FrameLength = 100 },
			expectError: true,
			errorMsg:    "gaps would be left",
		},
		{
			name:        "zero min speech duration",
			modify:      func(c *Config) { c.VAD.MinSpeechDuration = 0 },
			expectError: true,
			errorMsg:    "min_speech_duration must be positive",
		},
		{
			name:        "negative reference level",
			modify:      func(c *Config) { c.VAD.ReferenceLevel = -1 },
			expectError: true,
			errorMsg:    "reference_level must not be negative",
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name:        "invalid log format",
			modify:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
			errorMsg:    "format must be 'json' or 'text'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected validation error, got none")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	yamlContent := `
http:
  port: 8080
  address: "127.0.0.1"
  max_request_size: 33554432

audio:
  sample_rate: 16000
  session_timeout: 120
  max_sessions: 50

vad:
  top_db: 25
  frame_length: 400
  hop_length: 160
  min_speech_duration: 0.1
  min_silence_duration: 0.3
  reference_level: 0

logging:
  level: "debug"
  format: "text"
  output: "stderr"
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 8080 || cfg.HTTP.Address != "127.0.0.1" {
		t.Errorf("HTTP config not loaded correctly: %+v", cfg.HTTP)
	}

	if cfg.Audio.SampleRate != 16000 || cfg.Audio.MaxSessions != 50 {
		t.Errorf("Audio config not loaded correctly: %+v", cfg.Audio)
	}

	if cfg.VAD.TopDB != 25 || cfg.VAD.FrameLength != 400 || cfg.VAD.HopLength != 160 {
		t.Errorf("VAD config not loaded correctly: %+v", cfg.VAD)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging config not loaded correctly: %+v", cfg.Logging)
	}

	if cfg.Audio.GetSessionTimeoutDuration() != 2*time.Minute {
		t.Errorf("Expected 2m session timeout, got %v", cfg.Audio.GetSessionTimeoutDuration())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not valid yaml"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfigFailsValidation(t *testing.T) {
	yamlContent := `
http:
  port: 8080
  address: "127.0.0.1"
  max_request_size: 33554432

audio:
  sample_rate: -1
  session_timeout: 120
  max_sessions: 50

vad:
  top_db: 25
  frame_length: 400
  hop_length: 160
  min_speech_duration: 0.1
  min_silence_duration: 0.3

logging:
  level: "info"
  format: "json"
  output: "stdout"
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected validation error for negative sample rate")
	}
}

func TestMinFrameConversions(t *testing.T) {
	vad := VADConfig{
		TopDB:              25,
		FrameLength:        400,
		HopLength:          160,
		MinSpeechDuration:  0.1,  // 10 hops at 16 kHz
		MinSilenceDuration: 0.25, // 25 hops at 16 kHz
	}

	if got := vad.MinSpeechFrames(16000); got != 10 {
		t.Errorf("Expected 10 min speech frames, got %d", got)
	}

	if got := vad.MinSilenceFrames(16000); got != 25 {
		t.Errorf("Expected 25 min silence frames, got %d", got)
	}

	// A duration shorter than one hop still requires one frame.
	vad.MinSpeechDuration = 0.001
	if got := vad.MinSpeechFrames(16000); got != 1 {
		t.Errorf("Expected minimum of 1 frame, got %d", got)
	}
}
