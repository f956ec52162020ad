package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skypro1111/energy-vad-service/internal/vad"
)

// Session represents one active streaming detection session. It wraps an
// online segmenter behind a mutex: the core performs no locking of its own,
// so the session is the single writer required by the detection core.
type Session struct {
	ID         string
	SampleRate int
	CreatedAt  time.Time

	mu                sync.Mutex
	lastActivity      time.Time
	segmenter         *vad.Segmenter
	samplesPushed     uint64
	segmentsFinalized uint64
	closed            bool
}

// SessionInfo is a snapshot of session state for monitoring endpoints
type SessionInfo struct {
	ID                string    `json:"id"`
	SampleRate        int       `json:"sample_rate"`
	CreatedAt         time.Time `json:"created_at"`
	LastActivity      time.Time `json:"last_activity"`
	SamplesPushed     uint64    `json:"samples_pushed"`
	FramesClassified  int       `json:"frames_classified"`
	SegmentsFinalized uint64    `json:"segments_finalized"`
	Closed            bool      `json:"closed"`
}

// Push feeds a chunk of normalized samples to the session's segmenter and
// returns the segments finalized by this chunk.
func (s *Session) Push(samples []float64) ([]vad.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session %s: %w", s.ID, vad.ErrStreamClosed)
	}

	segments, err := s.segmenter.Push(samples)
	if err != nil {
		return nil, err
	}

	s.lastActivity = time.Now()
	s.samplesPushed += uint64(len(samples))
	s.segmentsFinalized += uint64(len(segments))
	return segments, nil
}

// Flush ends the session's stream and returns the remaining segments,
// including a still-open one closed at the last speech frame. The session
// accepts no further pushes afterwards.
func (s *Session) Flush() ([]vad.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session %s: %w", s.ID, vad.ErrStreamClosed)
	}

	segments, err := s.segmenter.Flush()
	if err != nil {
		return nil, err
	}

	s.closed = true
	s.lastActivity = time.Now()
	s.segmentsFinalized += uint64(len(segments))
	return segments, nil
}

// Info returns a snapshot of the session for monitoring
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionInfo{
		ID:                s.ID,
		SampleRate:        s.SampleRate,
		CreatedAt:         s.CreatedAt,
		LastActivity:      s.lastActivity,
		SamplesPushed:     s.samplesPushed,
		FramesClassified:  s.segmenter.FrameCount(),
		SegmentsFinalized: s.segmentsFinalized,
		Closed:            s.closed,
	}
}

// lastActive returns the last activity time under the session lock.
func (s *Session) lastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// ManagerConfig contains configuration for the stream manager
type ManagerConfig struct {
	VAD            vad.Config
	SampleRate     int
	SessionTimeout time.Duration
	MaxSessions    int
}

// Manager manages all active streaming sessions
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	logger   *slog.Logger
	config   ManagerConfig

	// Cleanup management
	ctx     context.Context
	cancel  context.CancelFunc
	cleanup chan struct{}
}

// NewManager creates a new stream manager. The detection configuration is
// validated once here; sessions share it.
func NewManager(logger *slog.Logger, config ManagerConfig) (*Manager, error) {
	if err := config.VAD.Validate(); err != nil {
		return nil, fmt.Errorf("manager detection config: %w", err)
	}

	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", config.SampleRate)
	}

	if config.MaxSessions < 1 {
		return nil, fmt.Errorf("max sessions must be at least 1, got %d", config.MaxSessions)
	}

	ctx, cancel := context.WithCancel(context.Background())

	mgr := &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
		cleanup:  make(chan struct{}),
	}

	go mgr.startCleanupRoutine()

	return mgr, nil
}

// CreateSession creates a new streaming session with its own online
// segmenter and returns it.
func (m *Manager) CreateSession() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.config.MaxSessions {
		return nil, fmt.Errorf("session limit reached (%d active)", len(m.sessions))
	}

	segmenter, err := vad.NewSegmenter(m.config.VAD, m.config.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create segmenter: %w", err)
	}

	now := time.Now()
	session := &Session{
		ID:           uuid.NewString(),
		SampleRate:   m.config.SampleRate,
		CreatedAt:    now,
		lastActivity: now,
		segmenter:    segmenter,
	}

	m.sessions[session.ID] = session

	m.logger.Info("Created streaming session",
		slog.String("session_id", session.ID),
		slog.Int("sample_rate", session.SampleRate),
		slog.Int("active_sessions", len(m.sessions)),
	)

	return session, nil
}

// GetSession retrieves an existing session
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	return session, exists
}

// CloseSession flushes a session's stream and removes it from the manager,
// returning the final segments. Closing an unknown session is an error.
func (m *Manager) CloseSession(id string) ([]vad.Segment, error) {
	m.mu.Lock()
	session, exists := m.sessions[id]
	if exists {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("session %s not found", id)
	}

	segments, err := session.Flush()
	if err != nil {
		return nil, err
	}

	m.logger.Info("Closed streaming session",
		slog.String("session_id", id),
		slog.Duration("duration", time.Since(session.CreatedAt)),
		slog.Uint64("samples_pushed", session.Info().SamplesPushed),
		slog.Int("final_segments", len(segments)),
	)

	return segments, nil
}

// GetAllSessions returns a snapshot of all active sessions (for monitoring)
func (m *Manager) GetAllSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

// ActiveSessionCount returns the number of currently active sessions
func (m *Manager) ActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop gracefully stops the manager, flushing every remaining session
func (m *Manager) Stop() {
	m.logger.Info("Stopping stream manager...")

	m.mu.Lock()
	remaining := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		remaining = append(remaining, session)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range remaining {
		if _, err := session.Flush(); err != nil {
			m.logger.Warn("Error flushing session on shutdown",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	m.cancel()
	<-m.cleanup

	m.logger.Info("Stream manager stopped",
		slog.Int("flushed_sessions", len(remaining)),
	)
}

// startCleanupRoutine runs in a separate goroutine to clean up idle sessions
func (m *Manager) startCleanupRoutine() {
	defer close(m.cleanup)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	m.logger.Info("Session cleanup routine started",
		slog.Duration("timeout", m.config.SessionTimeout),
	)

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("Session cleanup routine stopping")
			return

		case <-ticker.C:
			m.cleanupIdleSessions()
		}
	}
}

// cleanupIdleSessions closes sessions that have been inactive for longer
// than the configured timeout. Their final segments are logged and dropped;
// a client that went away has nobody left to deliver them to.
func (m *Manager) cleanupIdleSessions() {
	now := time.Now()

	m.mu.RLock()
	expired := make([]string, 0)
	for id, session := range m.sessions {
		if now.Sub(session.lastActive()) > m.config.SessionTimeout {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		segments, err := m.CloseSession(id)
		if err != nil {
			m.logger.Warn("Error closing idle session",
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}

		m.logger.Info("Closed idle session",
			slog.String("session_id", id),
			slog.Int("dropped_segments", len(segments)),
		)
	}
}
