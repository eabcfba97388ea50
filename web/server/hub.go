package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Outgoing messages buffered per viewer before frames are dropped
	sendBufferSize = 16

	writeTimeout = 10 * time.Second
)

// Event is a message sent to every viewer
type Event struct {
	Type string          `json:"type"` // "render", "canvas", "progress", "params", "scene", "console", "error"
	Data json.RawMessage `json:"data"`
}

// newEvent encodes data into an event message
func newEvent(eventType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: eventType, Data: raw})
}

// viewer is one websocket connection with its own writer goroutine
type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// writeMessages handles writing all messages for a viewer in a single
// goroutine, since websocket connections support one concurrent writer
func (v *viewer) writeMessages() {
	defer v.conn.Close()
	for msg := range v.send {
		v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Viewer disconnected during write
			return
		}
	}
	v.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

// hub tracks connected viewers and fans messages out to them
type hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	viewers map[*viewer]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{logger: logger, viewers: make(map[*viewer]struct{})}
}

// add registers a connection and starts its writer
func (h *hub) add(conn *websocket.Conn) *viewer {
	v := &viewer{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.viewers[v] = struct{}{}
	h.mu.Unlock()

	go v.writeMessages()
	return v
}

// remove unregisters a viewer and stops its writer
func (h *hub) remove(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; ok {
		delete(h.viewers, v)
		close(v.send)
	}
}

// broadcast queues msg for every viewer. Viewers that fall behind miss the
// message instead of blocking the renderer.
func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		select {
		case v.send <- msg:
		default:
			h.logger.Debug("viewer is behind, dropping message")
		}
	}
}

// sendTo queues msg for a single viewer
func (h *hub) sendTo(v *viewer, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; !ok {
		return
	}
	select {
	case v.send <- msg:
	default:
	}
}

// count returns the number of connected viewers
func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// closeAll disconnects every viewer
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		delete(h.viewers, v)
		close(v.send)
	}
}
