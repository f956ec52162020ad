// Package vad implements energy-based speech endpoint detection.
// It computes per-frame signal energy, derives a decibel threshold relative
// to a reference level, and applies hysteresis smoothing to produce speech
// segments in both offline (whole buffer) and online (streaming) modes.
package vad
