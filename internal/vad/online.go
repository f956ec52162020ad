package vad

import (
	"fmt"
)

// inputKind fixes the input representation of one stream.
type inputKind int

const (
	signalInput inputKind = iota
	spectrogramInput
)

// Segmenter finds speech endpoints in a stream of sequentially arriving
// chunks. Hysteresis counters, the open segment, the running reference level
// and any leftover partial-frame samples persist between pushes, so feeding
// a buffer in arbitrary chunkings yields the same segments as feeding it
// whole.
//
// Unless a fixed ReferenceLevel is configured, the reference is the maximum
// frame energy seen so far, and the threshold may drift upward as new peaks
// arrive. This is an accepted divergence from the offline two-pass result:
// a streaming prefix cannot contain the eventual peak. Configure
// ReferenceLevel to reproduce a known offline run.
//
// A Segmenter performs no locking and must only be used by a single caller;
// create one Segmenter per concurrent stream.
type Segmenter struct {
	cfg        Config
	sampleRate int
	kind       inputKind

	buf        *energyBuffer // signal input only
	hyst       hysteresis
	ref        float64
	frameCount int
	closed     bool
}

// NewSegmenter creates an online segmenter consuming raw signal chunks via
// Push.
func NewSegmenter(cfg Config, sampleRate int) (*Segmenter, error) {
	return newSegmenter(cfg, sampleRate, signalInput)
}

// NewSpectrogramSegmenter creates an online segmenter consuming spectrogram
// rows via PushFrames.
func NewSpectrogramSegmenter(cfg Config, sampleRate int) (*Segmenter, error) {
	return newSegmenter(cfg, sampleRate, spectrogramInput)
}

func newSegmenter(cfg Config, sampleRate int, kind inputKind) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfiguration, sampleRate)
	}

	s := &Segmenter{
		cfg:        cfg,
		sampleRate: sampleRate,
		kind:       kind,
		hyst:       hysteresis{minSpeech: cfg.MinSpeechFrames, minSilence: cfg.MinSilenceFrames},
		ref:        cfg.ReferenceLevel,
	}
	if kind == signalInput {
		s.buf = newEnergyBuffer(cfg.FrameLength, cfg.HopLength)
	}
	return s, nil
}

// Push consumes the next chunk of raw signal samples. Chunk boundaries need
// not align with frame boundaries. It returns exactly the segments whose
// closing condition was met during this call, in start order; an open or
// still-forming segment is never returned.
func (s *Segmenter) Push(samples []float64) ([]Segment, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: push after flush", ErrStreamClosed)
	}
	if s.kind != signalInput {
		return nil, fmt.Errorf("%w: segmenter is configured for spectrogram input", ErrInvalidInput)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty chunk", ErrInvalidInput)
	}

	return s.consume(s.buf.push(samples)), nil
}

// PushFrames consumes the next rows of a precomputed spectrogram. Each row
// is one analysis frame; all rows of a stream must have the same number of
// bands.
func (s *Segmenter) PushFrames(rows [][]float64) ([]Segment, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: push after flush", ErrStreamClosed)
	}
	if s.kind != spectrogramInput {
		return nil, fmt.Errorf("%w: segmenter is configured for signal input", ErrInvalidInput)
	}

	energies, err := SpectrogramEnergies(rows)
	if err != nil {
		return nil, err
	}

	return s.consume(energies), nil
}

// Flush ends the stream. Any buffered partial frame is zero-padded and
// classified, and a still-open segment is closed at the last speech frame
// and returned along with any segments the tail frames finalized. The
// segmenter is terminal afterwards: further Push or Flush calls fail with
// ErrStreamClosed.
func (s *Segmenter) Flush() ([]Segment, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: flush after flush", ErrStreamClosed)
	}
	s.closed = true

	var segments []Segment
	if s.kind == signalInput {
		segments = s.consume(s.buf.drain())
	}

	if start, end, closed := s.hyst.finish(s.frameCount); closed {
		segments = append(segments, newSegment(start, end, s.cfg.HopLength, s.sampleRate))
	}

	return segments, nil
}

// FrameCount returns the number of frames classified so far.
func (s *Segmenter) FrameCount() int {
	return s.frameCount
}

// consume classifies new frame energies against the current threshold and
// advances the hysteresis machine. The running reference is raised before
// each frame is classified, so a frame is always classified against a
// reference at least as large as its own energy.
func (s *Segmenter) consume(energies []float64) []Segment {
	segments := make([]Segment, 0)

	for _, e := range energies {
		if !s.cfg.fixedReference() && e > s.ref {
			s.ref = e
		}
		speech := Classify(e, ThresholdFrom(s.ref, s.cfg.TopDB))
		if start, end, closed := s.hyst.step(s.frameCount, speech); closed {
			segments = append(segments, newSegment(start, end, s.cfg.HopLength, s.sampleRate))
		}
		s.frameCount++
	}

	return segments
}
