// Package stream provides streaming session management and lifecycle
// handling. Each session owns one online segmenter; the manager enforces
// the single-writer rule per stream, tracks session metadata, and cleans up
// inactive sessions based on a configurable timeout.
package stream
