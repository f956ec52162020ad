package vad

import (
	"math"
)

// ReferenceLevel returns the maximum of a frame energy sequence. It is the
// reference against which TopDB is applied when no fixed reference level is
// configured.
func ReferenceLevel(energies []float64) float64 {
	ref := 0.0
	for _, e := range energies {
		if e > ref {
			ref = e
		}
	}
	return ref
}

// ThresholdFrom converts the configured decibel drop into a linear energy
// threshold: ref * 10^(-topDB/10). Frame energies are sums of squared
// amplitudes, i.e. power-domain values, so the conversion uses the power
// exponent; if the energy definition ever changes domain, this exponent must
// change with it.
func ThresholdFrom(ref, topDB float64) float64 {
	return ref * math.Pow(10, -topDB/10)
}

// Classify labels a frame as speech when its energy reaches the threshold.
// Ties count as speech; this is a fixed policy, relied on by the fact that
// the peak frame itself (energy == reference, threshold <= reference) is
// always speech.
func Classify(energy, threshold float64) bool {
	return energy >= threshold
}
