package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestConsoleLogger(messageChan chan ConsoleMessage) *slog.Logger {
	next := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewConsoleHandler(next, messageChan))
}

func TestConsoleHandler_BasicLogging(t *testing.T) {
	// Create a channel to receive console messages
	messageChan := make(chan ConsoleMessage, 10)
	logger := newTestConsoleLogger(messageChan)

	logger.Info("Test log message")

	select {
	case msg := <-messageChan:
		if msg.Message != "Test log message" {
			t.Errorf("Expected message '%s', got '%s'", "Test log message", msg.Message)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}
}

func TestConsoleHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warning"},
		{slog.LevelError, "error"},
	}

	messageChan := make(chan ConsoleMessage, len(tests))
	logger := newTestConsoleLogger(messageChan)
	for _, tt := range tests {
		logger.Log(context.Background(), tt.level, "message")
		msg := <-messageChan
		if msg.Level != tt.want {
			t.Errorf("Level %v: expected '%s', got '%s'", tt.level, tt.want, msg.Level)
		}
	}
}

func TestConsoleHandler_Attributes(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := newTestConsoleLogger(messageChan).With("scene", "cornell")

	logger.Warn("no lights present, image will be black", "sampler", "direct")

	select {
	case msg := <-messageChan:
		expected := "no lights present, image will be black scene=cornell sampler=direct"
		if msg.Message != expected {
			t.Errorf("Expected formatted message '%s', got '%s'", expected, msg.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for formatted message")
	}
}

func TestConsoleHandler_MultipleMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := newTestConsoleLogger(messageChan)

	messages := []string{"Message 1", "Message 2", "Message 3"}
	for _, msg := range messages {
		logger.Info(msg)
	}

	timeout := time.After(200 * time.Millisecond)
	for i, expected := range messages {
		select {
		case msg := <-messageChan:
			if msg.Message != expected {
				t.Errorf("Message %d: expected '%s', got '%s'", i, expected, msg.Message)
			}
		case <-timeout:
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestConsoleHandler_ChannelFull(t *testing.T) {
	// Create a small channel that will fill up
	messageChan := make(chan ConsoleMessage, 1)
	logger := newTestConsoleLogger(messageChan)

	logger.Info("Message 1")
	// These should not block even though the channel is full
	logger.Info("Message 2")
	logger.Info("Message 3")

	if got := len(messageChan); got != 1 {
		t.Errorf("Expected 1 buffered message, got %d", got)
	}
}

func TestConsoleHandler_NilChannel(t *testing.T) {
	// Logger with nil channel should not panic
	logger := newTestConsoleLogger(nil)
	logger.Info("Test message with nil channel")
}

func TestConsoleHandler_RespectsLevel(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	next := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(NewConsoleHandler(next, messageChan))

	logger.Debug("hidden")
	logger.Info("shown")

	msg := <-messageChan
	if msg.Message != "shown" {
		t.Errorf("Expected only the info message, got '%s'", msg.Message)
	}
	if len(messageChan) != 0 {
		t.Errorf("Expected debug message to be filtered")
	}
}
