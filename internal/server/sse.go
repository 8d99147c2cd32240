package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/buildtrack/buildtrack/internal/event"
)

// PushEvent is the SSE data frame: {"type": "...", "properties": {...}}.
type PushEvent struct {
	Type       event.EventType `json:"type"`
	Properties any             `json:"properties"`
}

const (
	// SSEHeartbeatInterval is the interval for SSE heartbeats.
	SSEHeartbeatInterval = 30 * time.Second
)

// sseWriter wraps http.ResponseWriter for SSE.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	return &sseWriter{w: w, flusher: flusher, rc: http.NewResponseController(w)}, nil
}

func (s *sseWriter) flush() {
	if err := s.rc.Flush(); err != nil {
		s.flusher.Flush()
	}
}

// writeEvent writes one frame as "event: <type>\ndata: <json>\n\n".
func (s *sseWriter) writeEvent(eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *sseWriter) writeHeartbeat() {
	fmt.Fprintf(s.w, ": heartbeat\n\n")
	s.flush()
}

// events streams every bus event to the client until it disconnects. The
// first frame is always server.connected.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternalError, "event stream not available")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	// Subscribe before the first frame so nothing published after the
	// client sees server.connected is missed.
	messages, err := s.bus.Stream(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	sse.flush()

	if err := sse.writeEvent("message", PushEvent{Type: event.ServerConnected, Properties: map[string]any{}}); err != nil {
		return
	}

	ticker := time.NewTicker(SSEHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var e struct {
				Type event.EventType `json:"type"`
				Data json.RawMessage `json:"data"`
			}
			err := json.Unmarshal(msg.Payload, &e)
			msg.Ack()
			if err != nil {
				s.logger.Warn().Err(err).Msg("dropping undecodable event")
				continue
			}
			if err := sse.writeEvent("message", PushEvent{Type: e.Type, Properties: e.Data}); err != nil {
				return
			}
		case <-ticker.C:
			sse.writeHeartbeat()
		}
	}
}
