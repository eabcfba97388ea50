// Package session manages the preloaded scene bundles of an interactive
// renderer and switches the active one.
package session

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"

	"github.com/df07/go-interactive-raytracer/pkg/accel"
	"github.com/df07/go-interactive-raytracer/pkg/authoring"
	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/integrator"
	"github.com/df07/go-interactive-raytracer/pkg/lights"
	"github.com/df07/go-interactive-raytracer/pkg/loaders"
	"github.com/df07/go-interactive-raytracer/pkg/renderer"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

var (
	// ErrSceneIndex is returned by SwitchTo for an index outside the session
	ErrSceneIndex = errors.New("scene index out of range")

	// ErrNoScenes is returned by Load when params list no scenes
	ErrNoScenes = errors.New("no scenes to load")
)

// Loader reads an authoring scene from a source path
type Loader interface {
	Load(path string) (*authoring.Scene, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(path string) (*authoring.Scene, error)

// Load calls f(path)
func (f LoaderFunc) Load(path string) (*authoring.Scene, error) {
	return f(path)
}

// Options configures how a session builds its bundles. Zero fields use the
// package defaults.
type Options struct {
	// Loader reads scene sources, default loaders.SceneLoader
	Loader Loader

	// BuildAccelerator defaults to accel.Build
	BuildAccelerator func(*scene.Scene, config.Params) (*accel.BVH, error)

	// BuildLights defaults to lights.Build
	BuildLights func(*scene.Scene, config.Params) (*lights.Set, error)

	Logger   *slog.Logger   // Default slog.Default()
	Progress scene.Progress // Conversion progress, optional
}

func (o Options) withDefaults() Options {
	if o.Loader == nil {
		o.Loader = &loaders.SceneLoader{}
	}
	if o.BuildAccelerator == nil {
		o.BuildAccelerator = accel.Build
	}
	if o.BuildLights == nil {
		o.BuildLights = lights.Build
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Session owns every scene bundle, the index of the active one and the
// render controller. Control methods are serialized; the active bundle is
// only switched after the controller has stopped.
type Session struct {
	opts       Options
	logger     *slog.Logger
	controller *renderer.Controller

	mu       sync.Mutex
	params   config.Params
	bundles  []*renderer.Bundle
	current  int
	observer renderer.Observer
}

// Load builds one bundle per scene in params.Scenes, in order. Any failure
// aborts the whole session; no partial session is returned.
func Load(params config.Params, opts Options) (*Session, error) {
	if len(params.Scenes) == 0 {
		return nil, ErrNoScenes
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	s := &Session{
		opts:       opts,
		logger:     opts.Logger,
		controller: renderer.NewController(opts.Logger, params.Seed),
		params:     params.Clone(),
		observer:   renderer.NopObserver{},
	}

	for _, path := range params.Scenes {
		bundle, err := s.loadBundle(path, params)
		if err != nil {
			return nil, fmt.Errorf("load scene %q: %w", path, err)
		}
		s.bundles = append(s.bundles, bundle)
	}

	for _, bundle := range s.bundles {
		s.warnIfUnlit(bundle, params)
	}
	return s, nil
}

// loadBundle loads, converts and prepares one scene
func (s *Session) loadBundle(path string, params config.Params) (*renderer.Bundle, error) {
	src, err := s.opts.Loader.Load(path)
	if err != nil {
		return nil, err
	}
	if params.AddSky {
		// The loaded scene belongs to the loader
		src = src.Clone()
		src.AddSky()
	}

	converted, camera, err := scene.Convert(src, src.Camera(params.Camera), s.opts.Progress)
	if err != nil {
		return nil, err
	}
	if camera == scene.NoCamera {
		camera = converted.AddDefaultCamera()
		s.logger.Info("scene has no camera, using a default camera", "scene", path)
	}
	converted.Name = path

	bvh, err := s.opts.BuildAccelerator(converted, params)
	if err != nil {
		return nil, fmt.Errorf("build accelerator: %w", err)
	}
	lightSet, err := s.opts.BuildLights(converted, params)
	if err != nil {
		return nil, fmt.Errorf("build lights: %w", err)
	}

	s.logger.Info("scene loaded", "scene", path, "instances", len(converted.Instances), "lights", lightSet.Len())
	return &renderer.Bundle{
		Name:   path,
		Scene:  converted,
		Camera: camera,
		BVH:    bvh,
		Lights: lightSet,
	}, nil
}

// warnIfUnlit reports bundles that will render black
func (s *Session) warnIfUnlit(bundle *renderer.Bundle, params config.Params) {
	if bundle.Lights.Empty() && integrator.IsLit(params.Sampler) {
		s.logger.Warn("no lights present, image will be black", "scene", bundle.Name, "sampler", params.Sampler)
	}
}

// Active returns the active index and bundle, read together
func (s *Session) Active() (int, *renderer.Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.bundles[s.current]
}

// Len returns the number of bundles
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bundles)
}

// Params returns a copy of the current parameters
func (s *Session) Params() config.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// Controller returns the render controller
func (s *Session) Controller() *renderer.Controller {
	return s.controller
}

// Start begins rendering the active bundle, publishing to obs. The observer
// is kept for later restarts.
func (s *Session) Start(obs renderer.Observer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obs != nil {
		s.observer = obs
	}
	return s.controller.Start(s.bundles[s.current], s.params, s.observer)
}

// Advance switches to the next bundle, wrapping around after the last
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchLocked((s.current + 1) % len(s.bundles))
}

// SwitchTo makes bundle i active and starts rendering it
func (s *Session) SwitchTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.bundles) {
		return fmt.Errorf("%w: %d of %d", ErrSceneIndex, i, len(s.bundles))
	}
	return s.switchLocked(i)
}

func (s *Session) switchLocked(i int) error {
	s.controller.Stop()
	s.current = i
	s.logger.Info("switched scene", "index", i, "scene", s.bundles[i].Name)
	return s.controller.Start(s.bundles[i], s.params, s.observer)
}

// ApplyParams stops the render, applies p and restarts with a preview.
// Camera changes re-resolve every bundle's camera and BVH quality changes
// rebuild the accelerators. The scene list cannot change after Load.
func (s *Session) ApplyParams(p config.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p = p.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	running := s.controller.Status() == renderer.Running
	s.controller.Stop()

	old := s.params
	if !slices.Equal(p.Scenes, old.Scenes) || p.AddSky != old.AddSky {
		s.logger.Warn("scene list changes need a restart, ignoring them")
		p.Scenes = old.Scenes
		p.AddSky = old.AddSky
	}

	bundles := s.bundles
	if p.Camera != old.Camera || p.HighQualityBVH != old.HighQualityBVH {
		var err error
		if bundles, err = s.rebuild(p, p.HighQualityBVH != old.HighQualityBVH); err != nil {
			// Keep rendering the previous bundle with the previous params
			if running {
				if startErr := s.controller.Start(s.bundles[s.current], old, s.observer); startErr != nil {
					s.logger.Error("failed to resume render", "error", startErr)
				}
			}
			return err
		}
	}

	s.bundles = bundles
	s.params = p
	if p.Sampler != old.Sampler {
		for _, bundle := range s.bundles {
			s.warnIfUnlit(bundle, p)
		}
	}
	return s.controller.Restart(s.bundles[s.current], p, s.observer)
}

// rebuild returns new bundles with the cameras re-resolved and optionally
// the accelerators rebuilt. The current bundles are left untouched.
func (s *Session) rebuild(p config.Params, accelerators bool) ([]*renderer.Bundle, error) {
	bundles := make([]*renderer.Bundle, len(s.bundles))
	for i, old := range s.bundles {
		bundle := *old
		bundle.Camera = old.Scene.FindCamera(p.Camera)
		if accelerators {
			bvh, err := s.opts.BuildAccelerator(old.Scene, p)
			if err != nil {
				return nil, fmt.Errorf("rebuild accelerator for %q: %w", old.Name, err)
			}
			bundle.BVH = bvh
		}
		bundles[i] = &bundle
	}
	return bundles, nil
}

// Paint maps a pointer position in window pixels onto the canvas, paints a
// brush stroke there and steps the render so the stroke gets published. It
// returns the number of pixels painted.
func (s *Session) Paint(pointer, window image.Point) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canvas := s.controller.Canvas()
	width, height := canvas.Size()
	position := renderer.WindowToCanvas(pointer, window, image.Pt(width, height))
	painted := canvas.Paint(position, s.params.BrushWidth, s.params.BrushHeight, float32(s.params.BrushThreshold))

	return painted, s.stepLocked()
}

// ClearCanvas erases every brush stroke and steps the render
func (s *Session) ClearCanvas() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Canvas().Clear()
	return s.stepLocked()
}

// stepLocked publishes one more pass when the render is idle. Nothing has
// been rendered before the first Start, which is not an error here.
func (s *Session) stepLocked() error {
	err := s.controller.Step(s.bundles[s.current], s.params, s.observer)
	if errors.Is(err, renderer.ErrNotStarted) {
		return nil
	}
	return err
}

// Close stops rendering
func (s *Session) Close() {
	s.controller.Stop()
}
