package vad

import (
	"fmt"
)

// SignalEnergies computes one energy value per analysis frame of a raw
// signal. Frames are frameLength samples long and advance by hopLength; the
// final partial frame is zero-padded so every sample is covered by at least
// one frame. Energy is the sum of squared sample values; no window function
// is applied.
func SignalEnergies(signal []float64, frameLength, hopLength int) ([]float64, error) {
	if err := validateFraming(frameLength, hopLength); err != nil {
		return nil, err
	}

	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty signal", ErrInvalidInput)
	}

	numFrames := (len(signal) + hopLength - 1) / hopLength
	energies := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		start := i * hopLength
		end := start + frameLength
		if end > len(signal) {
			end = len(signal)
		}
		energies[i] = frameEnergy(signal[start:end])
	}

	return energies, nil
}

// SpectrogramEnergies computes one energy value per spectrogram frame as the
// sum of the frame's band magnitudes. All frames must have the same number
// of bands.
func SpectrogramEnergies(frames [][]float64) ([]float64, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: empty spectrogram", ErrInvalidInput)
	}

	bands := len(frames[0])
	if bands == 0 {
		return nil, fmt.Errorf("%w: spectrogram frame 0 has no bands", ErrInvalidInput)
	}

	energies := make([]float64, len(frames))
	for i, frame := range frames {
		if len(frame) != bands {
			return nil, fmt.Errorf("%w: spectrogram frame %d has %d bands, expected %d",
				ErrInvalidInput, i, len(frame), bands)
		}

		sum := 0.0
		for _, v := range frame {
			sum += v
		}
		energies[i] = sum
	}

	return energies, nil
}

// frameEnergy returns the sum of squared samples of one (possibly short,
// implicitly zero-padded) analysis window.
func frameEnergy(window []float64) float64 {
	e := 0.0
	for _, s := range window {
		e += s * s
	}
	return e
}

// validateFraming checks the frame/hop relationship required for gapless
// coverage of the signal.
func validateFraming(frameLength, hopLength int) error {
	if hopLength <= 0 {
		return fmt.Errorf("%w: hop_length must be positive, got %d", ErrInvalidConfiguration, hopLength)
	}
	if frameLength < hopLength {
		return fmt.Errorf("%w: frame_length (%d) must be >= hop_length (%d)",
			ErrInvalidConfiguration, frameLength, hopLength)
	}
	return nil
}

// energyBuffer produces frame energies from sequentially arriving sample
// chunks. Chunk boundaries need not align with frame boundaries: leftover
// samples are carried between pushes, and a frame energy is emitted as soon
// as its full window is available. drain emits the remaining zero-padded
// tail frames so the streamed framing matches SignalEnergies exactly.
type energyBuffer struct {
	frameLength int
	hopLength   int

	buf    []float64 // pending samples, starting at absolute index offset
	offset int       // absolute sample index of buf[0]
	next   int       // next frame index to emit
	total  int       // total samples pushed so far
}

func newEnergyBuffer(frameLength, hopLength int) *energyBuffer {
	return &energyBuffer{
		frameLength: frameLength,
		hopLength:   hopLength,
	}
}

// push appends a chunk and returns the energies of every frame whose full
// window is now available, in frame order.
func (b *energyBuffer) push(samples []float64) []float64 {
	b.buf = append(b.buf, samples...)
	b.total += len(samples)

	var energies []float64
	for b.next*b.hopLength+b.frameLength <= b.offset+len(b.buf) {
		start := b.next*b.hopLength - b.offset
		energies = append(energies, frameEnergy(b.buf[start:start+b.frameLength]))
		b.next++
	}

	// Discard samples no future frame can reference.
	if keep := b.next*b.hopLength - b.offset; keep > 0 {
		n := copy(b.buf, b.buf[keep:])
		b.buf = b.buf[:n]
		b.offset += keep
	}

	return energies
}

// drain returns the energies of the zero-padded tail frames, covering every
// pushed sample not yet part of an emitted frame. The buffer must not be
// pushed to afterwards.
func (b *energyBuffer) drain() []float64 {
	var energies []float64
	for b.next*b.hopLength < b.total {
		start := b.next*b.hopLength - b.offset
		energies = append(energies, frameEnergy(b.buf[start:]))
		b.next++
	}
	return energies
}

// frames returns the number of frame energies emitted so far.
func (b *energyBuffer) frames() int {
	return b.next
}
