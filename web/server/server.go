// Package server serves the interactive viewer: a static page and a
// websocket that streams render frames and receives pointer, key and
// parameter input.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/loaders"
	"github.com/df07/go-interactive-raytracer/pkg/session"
)

const shutdownTimeout = 5 * time.Second

// Options configures the web server
type Options struct {
	Port      int          // Port to serve on
	StaticDir string       // Static files, default "static/"
	ScenesDir string       // Scene files listed by /api/scenes
	Logger    *slog.Logger // Default slog.Default()
}

// Server handles web requests for an interactive session. It is the
// session's renderer.Observer.
type Server struct {
	session  *session.Session
	opts     Options
	logger   *slog.Logger
	hub      *hub
	upgrader websocket.Upgrader

	mu        sync.Mutex
	exposure  float64
	runStart  time.Time
	lastFrame []byte // Last "render" event, replayed to new viewers
}

// ParamsMessage publishes the parameter schema with the current values
type ParamsMessage struct {
	Schema []config.Field `json:"schema"`
	Values config.Params  `json:"values"`
}

// SceneUpdate names the active scene
type SceneUpdate struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NewServer creates a new web server for sess
func NewServer(sess *session.Session, opts Options) *Server {
	if opts.StaticDir == "" {
		opts.StaticDir = "static/"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		session:  sess,
		opts:     opts,
		logger:   opts.Logger,
		hub:      newHub(opts.Logger),
		exposure: sess.Params().Exposure,
		runStart: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1 << 16,
		},
	}
}

// Handler returns the HTTP routes of the viewer
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir(s.opts.StaticDir)))

	// API endpoints
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/params", s.handleGetParams)
	mux.HandleFunc("POST /api/params", s.handleSetParams)
	mux.HandleFunc("GET /api/scenes", s.handleScenes)
	mux.HandleFunc("GET /api/inspect", s.handleInspect)
	mux.HandleFunc("/ws", s.handleSocket)
	return mux
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.opts.Port),
		Handler: s.Handler(),
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.hub.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("web server shutdown", "error", err)
		}
	}()

	s.logger.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", s.opts.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ApplyParams applies p to the session and publishes the new values
func (s *Server) ApplyParams(p config.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	previous := s.exposure
	s.exposure = p.Exposure
	s.mu.Unlock()

	if err := s.session.ApplyParams(p); err != nil {
		s.mu.Lock()
		s.exposure = previous
		s.mu.Unlock()
		return err
	}
	s.publish("params", s.paramsMessage())
	return nil
}

// StreamConsole publishes console messages until ctx is cancelled or ch is
// closed
func (s *Server) StreamConsole(ctx context.Context, ch <-chan ConsoleMessage) {
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.publish("console", msg)
		case <-ctx.Done():
			return
		}
	}
}

// publish broadcasts an event to every viewer
func (s *Server) publish(eventType string, data any) {
	msg, err := newEvent(eventType, data)
	if err != nil {
		s.logger.Error("failed to encode event", "type", eventType, "error", err)
		return
	}
	s.hub.broadcast(msg)
}

func (s *Server) paramsMessage() ParamsMessage {
	return ParamsMessage{Schema: config.Schema(), Values: s.session.Params()}
}

func (s *Server) sceneUpdate() SceneUpdate {
	index, bundle := s.session.Active()
	return SceneUpdate{Index: index, Name: bundle.Name, Count: s.session.Len()}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"render":  s.session.Controller().Status().String(),
		"viewers": s.hub.count(),
	})
}

// handleGetParams returns the parameter schema and current values
func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.paramsMessage())
}

// handleSetParams applies a partial parameter update given as JSON
func (s *Server) handleSetParams(w http.ResponseWriter, r *http.Request) {
	p := s.session.Params()
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid params: "+err.Error())
		return
	}
	if err := s.ApplyParams(p); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalidParams) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.paramsMessage())
}

// handleScenes lists the loaded scenes and the scenes available on disk
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	available, err := loaders.ListScenes(s.opts.ScenesDir, s.logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":    s.sceneUpdate(),
		"loaded":    s.session.Params().Scenes,
		"available": available,
	})
}
