package vad

import (
	"fmt"
)

// Detector finds speech endpoints in a complete buffer. It is a pure
// two-pass detector: frame energies and the global reference level are
// computed over the whole input before any frame is classified. A Detector
// holds no mutable state and is safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates an offline detector with the given configuration.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the detector's configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// DetectSignal returns the speech segments of a raw signal, sorted by start
// time. An empty result means no speech was detected and is not an error.
func (d *Detector) DetectSignal(signal []float64, sampleRate int) ([]Segment, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfiguration, sampleRate)
	}

	energies, err := SignalEnergies(signal, d.cfg.FrameLength, d.cfg.HopLength)
	if err != nil {
		return nil, err
	}

	return d.segment(energies, sampleRate), nil
}

// DetectSpectrogram returns the speech segments of a precomputed
// spectrogram. The sample rate cannot be inferred from the spectrogram and
// must be supplied by the caller; together with the configured hop length it
// converts frame indices to times.
func (d *Detector) DetectSpectrogram(frames [][]float64, sampleRate int) ([]Segment, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfiguration, sampleRate)
	}

	energies, err := SpectrogramEnergies(frames)
	if err != nil {
		return nil, err
	}

	return d.segment(energies, sampleRate), nil
}

// segment classifies a complete energy sequence against the reference level
// and runs the shared hysteresis machine over the labels.
func (d *Detector) segment(energies []float64, sampleRate int) []Segment {
	ref := d.cfg.ReferenceLevel
	if !d.cfg.fixedReference() {
		ref = ReferenceLevel(energies)
	}
	threshold := ThresholdFrom(ref, d.cfg.TopDB)

	h := hysteresis{minSpeech: d.cfg.MinSpeechFrames, minSilence: d.cfg.MinSilenceFrames}
	segments := make([]Segment, 0)

	for i, e := range energies {
		if start, end, closed := h.step(i, Classify(e, threshold)); closed {
			segments = append(segments, newSegment(start, end, d.cfg.HopLength, sampleRate))
		}
	}

	if start, end, closed := h.finish(len(energies)); closed {
		segments = append(segments, newSegment(start, end, d.cfg.HopLength, sampleRate))
	}

	return segments
}
