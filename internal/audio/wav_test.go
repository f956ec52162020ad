package audio

import (
	"math"
	"testing"
)

func TestEncodeDecodeWAVRoundTrip(t *testing.T) {
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	data, err := EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if len(data) != 44+len(samples)*2 {
		t.Errorf("Expected %d bytes, got %d", 44+len(samples)*2, len(data))
	}

	decoded, sampleRate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if sampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", sampleRate)
	}

	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}

	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("Sample %d differs: expected %d, got %d", i, samples[i], decoded[i])
		}
	}
}

func TestEncodeWAVValidation(t *testing.T) {
	if _, err := EncodeWAV(nil, 16000); err == nil {
		t.Error("Expected error for empty samples")
	}

	if _, err := EncodeWAV([]int16{1, 2, 3}, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestDecodeWAVValidation(t *testing.T) {
	samples := []int16{100, -100, 200, -200}
	valid, err := EncodeWAV(samples, 8000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{
			name:   "too short",
			mutate: func(d []byte) []byte { return d[:20] },
		},
		{
			name: "missing RIFF header",
			mutate: func(d []byte) []byte {
				d[0] = 'X'
				return d
			},
		},
		{
			name: "missing WAVE format",
			mutate: func(d []byte) []byte {
				d[8] = 'X'
				return d
			},
		},
		{
			name: "non-PCM format",
			mutate: func(d []byte) []byte {
				d[20] = 3 // IEEE float
				return d
			},
		},
		{
			name: "stereo",
			mutate: func(d []byte) []byte {
				d[22] = 2
				return d
			},
		},
		{
			name: "8-bit depth",
			mutate: func(d []byte) []byte {
				d[34] = 8
				return d
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, len(valid))
			copy(data, valid)

			if _, _, err := DecodeWAV(tt.mutate(data)); err == nil {
				t.Error("Expected decode error, got none")
			}
		})
	}
}

func TestGetWAVInfo(t *testing.T) {
	samples := make([]int16, 8000)
	data, err := EncodeWAV(samples, 8000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	info, err := GetWAVInfo(data)
	if err != nil {
		t.Fatalf("GetWAVInfo failed: %v", err)
	}

	if info.SampleRate != 8000 {
		t.Errorf("Expected sample rate 8000, got %d", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}
	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}
	if info.NumSamples != 8000 {
		t.Errorf("Expected 8000 samples, got %d", info.NumSamples)
	}
	if math.Abs(info.Duration-1.0) > 1e-9 {
		t.Errorf("Expected duration 1.0s, got %f", info.Duration)
	}
}
