package audio

import (
	"fmt"
	"math"

	"github.com/skypro1111/energy-vad-service/internal/vad"
)

// SamplesToFloat64 converts int16 PCM samples to normalized float64 values
// in [-1, 1), the representation the detection core works with.
func SamplesToFloat64(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) / 32768.0
	}
	return out
}

// BytesToSamples decodes little-endian 16-bit PCM bytes into samples, the
// format streaming clients send over the wire.
func BytesToSamples(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even, got %d bytes", len(data))
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples, nil
}

// ExtractSpeech concatenates the sample ranges covered by the given speech
// segments, dropping everything in between. Segments are assumed sorted and
// non-overlapping, as the detection core produces them.
func ExtractSpeech(samples []int16, segments []vad.Segment, sampleRate int) []int16 {
	out := make([]int16, 0, len(samples))
	for _, seg := range segments {
		start, end := segmentRange(seg, sampleRate, len(samples))
		out = append(out, samples[start:end]...)
	}
	return out
}

// MaskSilence zeroes every sample outside the given speech segments,
// preserving the original buffer length and timing.
func MaskSilence(samples []int16, segments []vad.Segment, sampleRate int) []int16 {
	out := make([]int16, len(samples))

	for _, seg := range segments {
		start, end := segmentRange(seg, sampleRate, len(samples))
		copy(out[start:end], samples[start:end])
	}
	return out
}

// segmentRange converts a segment's time bounds to a clamped sample range.
func segmentRange(seg vad.Segment, sampleRate, numSamples int) (int, int) {
	start := int(math.Round(seg.Start * float64(sampleRate)))
	end := int(math.Round(seg.End * float64(sampleRate)))

	if start < 0 {
		start = 0
	}
	if end > numSamples {
		end = numSamples
	}
	if start > end {
		start = end
	}
	return start, end
}
