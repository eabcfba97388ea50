package server

import (
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
)

// InputMessage is an input event sent by a viewer
type InputMessage struct {
	Type   string          `json:"type"` // "pointer", "key" or "params"
	X      int             `json:"x"`
	Y      int             `json:"y"`
	Width  int             `json:"width"` // Window size the pointer position refers to
	Height int             `json:"height"`
	Key    string          `json:"key"`
	Params json.RawMessage `json:"params"` // Partial params, merged over the current values
}

// handleSocket upgrades a viewer connection, sends it the current state
// and routes its input to the session until it disconnects
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	v := s.hub.add(conn)
	defer s.hub.remove(v)
	s.logger.Debug("viewer connected", "remote", r.RemoteAddr)

	if msg, err := newEvent("params", s.paramsMessage()); err == nil {
		s.hub.sendTo(v, msg)
	}
	if msg, err := newEvent("scene", s.sceneUpdate()); err == nil {
		s.hub.sendTo(v, msg)
	}
	s.mu.Lock()
	lastFrame := s.lastFrame
	s.mu.Unlock()
	if lastFrame != nil {
		s.hub.sendTo(v, lastFrame)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Viewer disconnected
			return
		}
		if err := s.handleInput(data); err != nil {
			s.logger.Warn("viewer input failed", "error", err)
			if msg, err := newEvent("error", map[string]string{"message": err.Error()}); err == nil {
				s.hub.sendTo(v, msg)
			}
		}
	}
}

// handleInput routes one viewer message: pointer events paint the canvas,
// "c" clears it, any other key advances to the next scene and params
// messages apply new parameters
func (s *Server) handleInput(data []byte) error {
	var msg InputMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("invalid input message: %w", err)
	}

	switch msg.Type {
	case "pointer":
		if msg.Width <= 0 || msg.Height <= 0 {
			return fmt.Errorf("pointer event without window size")
		}
		_, err := s.session.Paint(image.Pt(msg.X, msg.Y), image.Pt(msg.Width, msg.Height))
		return err

	case "key":
		if strings.EqualFold(msg.Key, "c") {
			return s.session.ClearCanvas()
		}
		if err := s.session.Advance(); err != nil {
			return err
		}
		s.publish("scene", s.sceneUpdate())
		return nil

	case "params":
		p := s.session.Params()
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return fmt.Errorf("invalid params: %w", err)
		}
		return s.ApplyParams(p)

	default:
		return fmt.Errorf("unknown input type %q", msg.Type)
	}
}
