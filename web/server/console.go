package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// ConsoleHandler is a slog.Handler that passes records to another handler
// and also sends them to a web console channel
type ConsoleHandler struct {
	next        slog.Handler
	consoleChan chan<- ConsoleMessage
	attrs       []slog.Attr
}

// NewConsoleHandler creates a handler teeing records from next to consoleChan
func NewConsoleHandler(next slog.Handler, consoleChan chan<- ConsoleMessage) *ConsoleHandler {
	return &ConsoleHandler{next: next, consoleChan: consoleChan}
}

// Enabled reports whether the wrapped handler handles level
func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.next.Handle(ctx, r)

	// Send to web console if channel is available (non-blocking)
	if h.consoleChan != nil {
		select {
		case h.consoleChan <- h.message(r):
		default:
			// Channel full, skip (don't block)
		}
	}
	return err
}

// WithAttrs implements slog.Handler
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConsoleHandler{
		next:        h.next.WithAttrs(attrs),
		consoleChan: h.consoleChan,
		attrs:       append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler. Groups only affect the wrapped
// handler; console messages stay flat.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	return &ConsoleHandler{
		next:        h.next.WithGroup(name),
		consoleChan: h.consoleChan,
		attrs:       h.attrs,
	}
}

// message formats r as "msg key=value ..."
func (h *ConsoleHandler) message(r slog.Record) ConsoleMessage {
	var b strings.Builder
	b.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	timestamp := r.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return ConsoleMessage{
		Message:   b.String(),
		Timestamp: timestamp,
		Level:     consoleLevel(r.Level),
	}
}

func consoleLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
