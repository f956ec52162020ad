package stream

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/skypro1111/energy-vad-service/internal/vad"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testManagerConfig() ManagerConfig {
	return ManagerConfig{
		VAD: vad.Config{
			TopDB:            25,
			FrameLength:      400,
			HopLength:        160,
			MinSpeechFrames:  2,
			MinSilenceFrames: 2,
			ReferenceLevel:   50,
		},
		SampleRate:     16000,
		SessionTimeout: 5 * time.Minute,
		MaxSessions:    4,
	}
}

// toneChunk produces samples loud enough to classify as speech against the
// fixed reference level in testManagerConfig.
func toneChunk(n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.9
	}
	return samples
}

func TestNewManagerValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ManagerConfig)
	}{
		{"invalid vad config", func(c *ManagerConfig) { c.VAD.FrameLength = 0 }},
		{"zero sample rate", func(c *ManagerConfig) { c.SampleRate = 0 }},
		{"zero max sessions", func(c *ManagerConfig) { c.MaxSessions = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testManagerConfig()
			tt.modify(&cfg)

			if _, err := NewManager(testLogger(), cfg); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	mgr, err := NewManager(testLogger(), testManagerConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Stop()

	session, err := mgr.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if session.ID == "" {
		t.Error("Expected non-empty session ID")
	}

	if got, exists := mgr.GetSession(session.ID); !exists || got != session {
		t.Error("GetSession did not return the created session")
	}

	if count := mgr.ActiveSessionCount(); count != 1 {
		t.Errorf("Expected 1 active session, got %d", count)
	}

	// Stream a burst of loud samples followed by silence; the trailing
	// silence closes the segment during Push.
	if _, err := session.Push(toneChunk(1600)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	segments, err := session.Push(make([]float64, 1600))
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment after silence, got %d", len(segments))
	}

	if segments[0].StartFrame != 0 {
		t.Errorf("Expected segment to start at frame 0, got %d", segments[0].StartFrame)
	}

	final, err := mgr.CloseSession(session.ID)
	if err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}

	if len(final) != 0 {
		t.Errorf("Expected no further segments at close, got %d", len(final))
	}

	if count := mgr.ActiveSessionCount(); count != 0 {
		t.Errorf("Expected 0 active sessions after close, got %d", count)
	}
}

func TestSessionPushAfterFlush(t *testing.T) {
	mgr, err := NewManager(testLogger(), testManagerConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Stop()

	session, err := mgr.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := session.Push(toneChunk(800)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if _, err := session.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if _, err := session.Push(toneChunk(160)); !errors.Is(err, vad.ErrStreamClosed) {
		t.Errorf("Expected ErrStreamClosed on push after flush, got %v", err)
	}

	if _, err := session.Flush(); !errors.Is(err, vad.ErrStreamClosed) {
		t.Errorf("Expected ErrStreamClosed on second flush, got %v", err)
	}
}

func TestSessionFlushReturnsOpenSegment(t *testing.T) {
	mgr, err := NewManager(testLogger(), testManagerConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Stop()

	session, err := mgr.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Loud samples only; the segment is still open when the stream ends
	// and must be closed by Flush.
	segments, err := session.Push(toneChunk(1600))
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("Expected no finalized segments mid-speech, got %d", len(segments))
	}

	final, err := session.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if len(final) != 1 {
		t.Fatalf("Expected 1 segment from flush, got %d", len(final))
	}

	if final[0].StartFrame != 0 {
		t.Errorf("Expected segment start frame 0, got %d", final[0].StartFrame)
	}
}

func TestMaxSessionsLimit(t *testing.T) {
	cfg := testManagerConfig()
	cfg.MaxSessions = 2

	mgr, err := NewManager(testLogger(), cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Stop()

	first, err := mgr.CreateSession()
	if err != nil {
		t.Fatalf("First CreateSession failed: %v", err)
	}
	if _, err := mgr.CreateSession(); err != nil {
		t.Fatalf("Second CreateSession failed: %v", err)
	}

	if _, err := mgr.CreateSession(); err == nil {
		t.Error("Expected error when exceeding session limit")
	}

	// Closing one frees a slot.
	if _, err := mgr.CloseSession(first.ID); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}

	if _, err := mgr.CreateSession(); err != nil {
		t.Errorf("Expected session creation after freeing a slot, got %v", err)
	}
}

func TestCloseUnknownSession(t *testing.T) {
	mgr, err := NewManager(testLogger(), testManagerConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Stop()

	if _, err := mgr.CloseSession("no-such-session"); err == nil {
		t.Error("Expected error closing unknown session")
	}
}

func TestSessionInfo(t *testing.T) {
	mgr, err := NewManager(testLogger(), testManagerConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Stop()

	session, err := mgr.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := session.Push(toneChunk(800)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	info := session.Info()
	if info.ID != session.ID {
		t.Errorf("Expected info ID %s, got %s", session.ID, info.ID)
	}
	if info.SamplesPushed != 800 {
		t.Errorf("Expected 800 samples pushed, got %d", info.SamplesPushed)
	}
	if info.FramesClassified == 0 {
		t.Error("Expected classified frames after push")
	}
	if info.Closed {
		t.Error("Expected session to be open")
	}

	infos := mgr.GetAllSessions()
	if len(infos) != 1 || infos[0].ID != session.ID {
		t.Errorf("GetAllSessions returned unexpected snapshot: %+v", infos)
	}
}

func TestCleanupIdleSessions(t *testing.T) {
	cfg := testManagerConfig()
	cfg.SessionTimeout = 10 * time.Millisecond

	mgr, err := NewManager(testLogger(), cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Stop()

	session, err := mgr.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	mgr.cleanupIdleSessions()

	if _, exists := mgr.GetSession(session.ID); exists {
		t.Error("Expected idle session to be removed")
	}
	if count := mgr.ActiveSessionCount(); count != 0 {
		t.Errorf("Expected 0 active sessions after cleanup, got %d", count)
	}
}

func TestManagerStopFlushesSessions(t *testing.T) {
	mgr, err := NewManager(testLogger(), testManagerConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	session, err := mgr.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if _, err := session.Push(toneChunk(800)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	mgr.Stop()

	if count := mgr.ActiveSessionCount(); count != 0 {
		t.Errorf("Expected 0 active sessions after stop, got %d", count)
	}

	if _, err := session.Push(toneChunk(160)); !errors.Is(err, vad.ErrStreamClosed) {
		t.Errorf("Expected ErrStreamClosed after manager stop, got %v", err)
	}
}
