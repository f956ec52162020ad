// Package audio handles PCM sample conversion and WAV encoding/decoding.
// It supplies the detection core with normalized sample buffers and consumes
// its segment lists to extract or mask out non-speech regions.
package audio
