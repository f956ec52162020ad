// Package server implements the HTTP API: offline detection on uploaded
// WAV files, a WebSocket endpoint for streaming detection, and monitoring
// endpoints (health, config, stats, sessions, Prometheus metrics).
package server
