package vad

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the detection core. All errors returned by this
// package wrap one of these sentinels, so callers can match with errors.Is.
var (
	// ErrInvalidInput indicates an empty or malformed signal buffer or
	// spectrogram.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration indicates an out-of-range detection parameter.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrStreamClosed indicates a push on an online segmenter that has
	// already been flushed.
	ErrStreamClosed = errors.New("stream closed")
)

// Config holds the detection parameters shared by the offline detector and
// the online segmenter. All values are explicit; there are no defaults
// inferred from the data.
type Config struct {
	// TopDB is the energy drop in decibels below the reference level at
	// which a frame is considered silence.
	TopDB float64

	// FrameLength is the analysis window length in samples.
	FrameLength int

	// HopLength is the stride between consecutive frame starts in samples.
	// FrameLength must be >= HopLength so every sample is covered.
	HopLength int

	// MinSpeechFrames is the number of consecutive speech frames required
	// to open a segment. Shorter speech runs are treated as noise spikes.
	MinSpeechFrames int

	// MinSilenceFrames is the number of consecutive silence frames required
	// to close a segment. Shorter silence gaps are bridged.
	MinSilenceFrames int

	// ReferenceLevel, when > 0, fixes the reference energy used for
	// threshold derivation. When 0, the reference is the maximum frame
	// energy: the whole-buffer maximum offline, the running maximum online.
	// A fixed reference makes online results match a known offline run.
	ReferenceLevel float64
}

// Validate checks all configuration parameters and returns an error wrapping
// ErrInvalidConfiguration for the first violation found.
func (c Config) Validate() error {
	if c.TopDB < 0 {
		return fmt.Errorf("%w: top_db must not be negative, got %f", ErrInvalidConfiguration, c.TopDB)
	}

	if c.FrameLength <= 0 {
		return fmt.Errorf("%w: frame_length must be positive, got %d", ErrInvalidConfiguration, c.FrameLength)
	}

	if c.HopLength <= 0 {
		return fmt.Errorf("%w: hop_length must be positive, got %d", ErrInvalidConfiguration, c.HopLength)
	}

	if c.FrameLength < c.HopLength {
		return fmt.Errorf("%w: frame_length (%d) must be >= hop_length (%d)",
			ErrInvalidConfiguration, c.FrameLength, c.HopLength)
	}

	if c.MinSpeechFrames < 1 {
		return fmt.Errorf("%w: min_speech_frames must be at least 1, got %d",
			ErrInvalidConfiguration, c.MinSpeechFrames)
	}

	if c.MinSilenceFrames < 1 {
		return fmt.Errorf("%w: min_silence_frames must be at least 1, got %d",
			ErrInvalidConfiguration, c.MinSilenceFrames)
	}

	if c.ReferenceLevel < 0 {
		return fmt.Errorf("%w: reference_level must not be negative, got %f",
			ErrInvalidConfiguration, c.ReferenceLevel)
	}

	return nil
}

// fixedReference reports whether the config pins the reference level instead
// of tracking the observed maximum.
func (c Config) fixedReference() bool {
	return c.ReferenceLevel > 0
}
