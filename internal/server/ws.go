package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skypro1111/energy-vad-service/internal/audio"
	"github.com/skypro1111/energy-vad-service/internal/stream"
	"github.com/skypro1111/energy-vad-service/internal/vad"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamEvent is a JSON message sent to the streaming client
type StreamEvent struct {
	Type       string        `json:"type"` // "session", "segments", "flush", "error"
	SessionID  string        `json:"session_id,omitempty"`
	SampleRate int           `json:"sample_rate,omitempty"`
	Segments   []vad.Segment `json:"segments,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// handleStream implements the GET /stream WebSocket endpoint. The client
// sends binary messages containing little-endian PCM-16 samples and may
// send the text message "flush" to end the stream; segments are delivered
// as JSON events as soon as they are finalized.
func (h *HTTPServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
		h.metrics.RecordHTTPError(r.Method, "/stream", "upgrade_failed")
		return
	}
	defer conn.Close()

	session, err := h.streamMgr.CreateSession()
	if err != nil {
		h.logger.Warn("Failed to create streaming session", slog.String("error", err.Error()))
		h.writeEvent(conn, StreamEvent{Type: "error", Error: err.Error()})
		return
	}

	h.metrics.RecordSessionCreated()
	h.metrics.SetActiveSessions(h.streamMgr.ActiveSessionCount())

	defer func() {
		// The session may already be gone if the client flushed; only
		// clean up streams abandoned mid-flight.
		if _, exists := h.streamMgr.GetSession(session.ID); exists {
			h.streamMgr.CloseSession(session.ID)
		}
		h.metrics.RecordSessionClosed(time.Since(session.CreatedAt).Seconds())
		h.metrics.SetActiveSessions(h.streamMgr.ActiveSessionCount())
	}()

	h.writeEvent(conn, StreamEvent{
		Type:       "session",
		SessionID:  session.ID,
		SampleRate: session.SampleRate,
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("WebSocket read error",
					slog.String("session_id", session.ID),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if !h.pushChunk(conn, session, data) {
				return
			}

		case websocket.TextMessage:
			if string(data) != "flush" {
				h.writeEvent(conn, StreamEvent{Type: "error", Error: "unknown command"})
				continue
			}

			segments, err := h.streamMgr.CloseSession(session.ID)
			if err != nil {
				h.writeEvent(conn, StreamEvent{Type: "error", Error: err.Error()})
				return
			}

			h.recordSegments(segments)
			h.writeEvent(conn, StreamEvent{Type: "flush", SessionID: session.ID, Segments: segments})

			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// pushChunk feeds one binary message into the session and reports finalized
// segments back to the client. Returns false if the connection should close.
func (h *HTTPServer) pushChunk(conn *websocket.Conn, session *stream.Session, data []byte) bool {
	samples, err := audio.BytesToSamples(data)
	if err != nil {
		h.writeEvent(conn, StreamEvent{Type: "error", Error: err.Error()})
		return false
	}

	if len(samples) == 0 {
		h.writeEvent(conn, StreamEvent{Type: "error", Error: "empty audio chunk"})
		return false
	}

	before := session.Info().FramesClassified
	segments, err := session.Push(audio.SamplesToFloat64(samples))
	if err != nil {
		h.writeEvent(conn, StreamEvent{Type: "error", Error: err.Error()})
		return false
	}

	speechFrames := 0
	for _, seg := range segments {
		speechFrames += seg.EndFrame - seg.StartFrame
	}
	h.metrics.RecordFrames(session.Info().FramesClassified-before, speechFrames)
	h.recordSegments(segments)

	if len(segments) > 0 {
		h.writeEvent(conn, StreamEvent{Type: "segments", SessionID: session.ID, Segments: segments})
	}

	return true
}

func (h *HTTPServer) recordSegments(segments []vad.Segment) {
	for _, seg := range segments {
		h.metrics.RecordSegment(seg.End - seg.Start)
	}
}

func (h *HTTPServer) writeEvent(conn *websocket.Conn, event StreamEvent) {
	if err := conn.WriteJSON(event); err != nil {
		h.logger.Warn("WebSocket write error", slog.String("error", err.Error()))
	}
}
