package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/skypro1111/energy-vad-service/internal/audio"
	"github.com/skypro1111/energy-vad-service/internal/config"
	"github.com/skypro1111/energy-vad-service/internal/vad"
)

// DetectResponse is the JSON body returned by /detect
type DetectResponse struct {
	SampleRate  int           `json:"sample_rate"`
	NumSamples  int           `json:"num_samples"`
	Duration    float64       `json:"duration"`
	NumSegments int           `json:"num_segments"`
	Segments    []vad.Segment `json:"segments"`
}

// detectionConfig builds the core detection config for a given sample rate.
// Minimum durations from the config file are converted to frame counts
// against the actual rate of the audio being processed.
func detectionConfig(v *config.VADConfig, sampleRate int) vad.Config {
	return vad.Config{
		TopDB:            v.TopDB,
		FrameLength:      v.FrameLength,
		HopLength:        v.HopLength,
		MinSpeechFrames:  v.MinSpeechFrames(sampleRate),
		MinSilenceFrames: v.MinSilenceFrames(sampleRate),
		ReferenceLevel:   v.ReferenceLevel,
	}
}

// handleDetect implements the POST /detect endpoint. The request body is a
// mono 16-bit PCM WAV file. By default the response is a JSON segment list;
// ?output=extract returns a WAV with only the speech regions concatenated,
// and ?output=mask returns a WAV with silence regions zeroed out.
func (h *HTTPServer) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	output := r.URL.Query().Get("output")
	switch output {
	case "", "segments", "extract", "mask":
	default:
		http.Error(w, fmt.Sprintf("Unknown output mode %q", output), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.HTTP.MaxRequestSize))
	if err != nil {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	samples, sampleRate, err := audio.DecodeWAV(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid WAV file: %v", err), http.StatusBadRequest)
		return
	}

	detector, err := vad.NewDetector(detectionConfig(&h.config.VAD, sampleRate))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid detection config: %v", err), http.StatusInternalServerError)
		return
	}

	startTime := time.Now()
	segments, err := detector.DetectSignal(audio.SamplesToFloat64(samples), sampleRate)
	if err != nil {
		http.Error(w, fmt.Sprintf("Detection failed: %v", err), http.StatusBadRequest)
		return
	}

	elapsed := time.Since(startTime)
	h.metrics.RecordDetect(elapsed.Seconds())
	for _, seg := range segments {
		h.metrics.RecordSegment(seg.End - seg.Start)
	}

	h.logger.Info("Detection request processed",
		slog.Int("sample_rate", sampleRate),
		slog.Int("num_samples", len(samples)),
		slog.Int("num_segments", len(segments)),
		slog.Duration("elapsed", elapsed),
	)

	switch output {
	case "extract":
		speech := audio.ExtractSpeech(samples, segments, sampleRate)
		if len(speech) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.writeWAV(w, speech, sampleRate)
	case "mask":
		h.writeWAV(w, audio.MaskSilence(samples, segments, sampleRate), sampleRate)
	default:
		resp := DetectResponse{
			SampleRate:  sampleRate,
			NumSamples:  len(samples),
			Duration:    float64(len(samples)) / float64(sampleRate),
			NumSegments: len(segments),
			Segments:    segments,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// writeWAV encodes samples as a WAV file and writes it to the response
func (h *HTTPServer) writeWAV(w http.ResponseWriter, samples []int16, sampleRate int) {
	data, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode WAV: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}
