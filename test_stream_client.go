package main

// Manual test client for the streaming endpoint. Streams a WAV file to the
// service in small chunks and prints segment events as they arrive:
//
//	go run test_stream_client.go -file audio.wav -url ws://localhost:8080/stream

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skypro1111/energy-vad-service/internal/audio"
)

type streamEvent struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Segments   []struct {
		StartFrame int     `json:"start_frame"`
		EndFrame   int     `json:"end_frame"`
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
	} `json:"segments,omitempty"`
	Error string `json:"error,omitempty"`
}

func main() {
	file := flag.String("file", "", "WAV file to stream (mono PCM-16)")
	url := flag.String("url", "ws://localhost:8080/stream", "WebSocket endpoint")
	chunkMs := flag.Int("chunk", 100, "Chunk size in milliseconds")
	realtime := flag.Bool("realtime", false, "Pace chunks at real-time speed")
	flag.Parse()

	if *file == "" {
		log.Fatal("Usage: test_stream_client -file audio.wav")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	samples, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		log.Fatalf("Failed to decode WAV: %v", err)
	}

	log.Printf("Streaming %s: %d samples at %d Hz", *file, len(samples), sampleRate)

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *url, err)
	}
	defer conn.Close()

	var hello streamEvent
	if err := conn.ReadJSON(&hello); err != nil {
		log.Fatalf("Failed to read session event: %v", err)
	}
	log.Printf("Session %s opened (server expects %d Hz)", hello.SessionID, hello.SampleRate)

	if hello.SampleRate != sampleRate {
		log.Printf("WARNING: file rate %d differs from server stream rate %d", sampleRate, hello.SampleRate)
	}

	// Reader goroutine prints segment events as they arrive.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var event streamEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}

			switch event.Type {
			case "segments", "flush":
				for _, seg := range event.Segments {
					fmt.Printf("segment: frames [%d, %d)  time [%.3fs, %.3fs)\n",
						seg.StartFrame, seg.EndFrame, seg.Start, seg.End)
				}
				if event.Type == "flush" {
					log.Println("Stream flushed")
					return
				}
			case "error":
				log.Printf("Server error: %s", event.Error)
				return
			}
		}
	}()

	chunkSamples := sampleRate * *chunkMs / 1000
	for start := 0; start < len(samples); start += chunkSamples {
		end := start + chunkSamples
		if end > len(samples) {
			end = len(samples)
		}

		chunk := make([]byte, (end-start)*2)
		for i, s := range samples[start:end] {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(s))
		}

		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			log.Fatalf("Failed to write chunk: %v", err)
		}

		if *realtime {
			time.Sleep(time.Duration(*chunkMs) * time.Millisecond)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("flush")); err != nil {
		log.Fatalf("Failed to send flush: %v", err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Fatal("Timed out waiting for flush response")
	}
}
