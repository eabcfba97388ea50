package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/integrator"
)

// Status is the controller state
type Status int

const (
	Idle Status = iota
	Running
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// job is one asynchronous run: a number of passes over a render state
type job struct {
	state    *State
	renderer *TileRenderer
	tiles    []*Tile
	workers  int
	passes   int
	total    int
	observer Observer
}

// Controller owns the render state of the active bundle and runs passes
// on a background goroutine. Control methods must be called from a single
// goroutine (or serialized by the caller); accessors are safe from any
// goroutine.
type Controller struct {
	logger *slog.Logger
	canvas *Canvas

	mu     sync.Mutex
	status Status
	state  *State
	bundle *Bundle // Bundle the state was rendered from
	cancel context.CancelFunc
	done   chan struct{}
}

// NewController creates an idle controller. A nil logger uses slog.Default.
func NewController(logger *slog.Logger, seed uint64) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		logger: logger,
		canvas: NewCanvas(seed),
	}
}

// Status returns Idle or Running
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Canvas returns the interactive canvas
func (c *Controller) Canvas() *Canvas {
	return c.canvas
}

// Samples returns the number of completed passes of the current state
func (c *Controller) Samples() int {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == nil {
		return 0
	}
	return state.SampleCount()
}

// Snapshot returns the averaged render of the current state, or nil before
// the first Start
func (c *Controller) Snapshot() *Image {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == nil {
		return nil
	}
	return state.Image()
}

// prepare validates the bundle and builds a tile renderer over a fresh state
// at the given resolution
func (c *Controller) prepare(b *Bundle, params config.Params, resolution int) (*TileRenderer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	camera := b.Scene.Camera(b.Camera)
	integ, err := integrator.New(params.Sampler, b.BVH, b.Lights, params)
	if err != nil {
		return nil, err
	}
	width, height := camera.Resolution(resolution)
	state := NewState(width, height, params.Seed)
	return NewTileRenderer(camera, integ, state, params.Clamp), nil
}

// Start resets the render state for b and begins a run of params.Samples
// passes. A running render is stopped first.
func (c *Controller) Start(b *Bundle, params config.Params, obs Observer) error {
	c.Stop()

	renderer, err := c.prepare(b, params, params.Resolution)
	if err != nil {
		return err
	}
	state := renderer.state
	c.canvas.Resize(state.Width, state.Height)

	c.mu.Lock()
	c.state = state
	c.bundle = b
	c.mu.Unlock()

	c.logger.Info("render started", "scene", b.Name, "width", state.Width, "height", state.Height,
		"samples", params.Samples, "sampler", params.Sampler)
	c.launch(&job{
		state:    state,
		renderer: renderer,
		tiles:    NewTileGrid(state.Width, state.Height, params.TileSize),
		workers:  params.Workers,
		passes:   params.Samples,
		total:    params.Samples,
		observer: observerOrNop(obs),
	})
	return nil
}

// Step renders exactly one more pass on the existing state without
// resetting it. It does nothing while a run is in progress and returns
// ErrNotStarted when there is no state for b at params' resolution.
func (c *Controller) Step(b *Bundle, params config.Params, obs Observer) error {
	c.mu.Lock()
	if c.status == Running {
		c.mu.Unlock()
		return nil
	}
	state := c.state
	same := c.bundle == b
	c.mu.Unlock()

	if state == nil || !same {
		return ErrNotStarted
	}
	if err := b.Validate(); err != nil {
		return err
	}
	camera := b.Scene.Camera(b.Camera)
	width, height := camera.Resolution(params.Resolution)
	if width != state.Width || height != state.Height {
		return ErrNotStarted
	}
	integ, err := integrator.New(params.Sampler, b.BVH, b.Lights, params)
	if err != nil {
		return err
	}

	c.launch(&job{
		state:    state,
		renderer: NewTileRenderer(camera, integ, state, params.Clamp),
		tiles:    NewTileGrid(state.Width, state.Height, params.TileSize),
		workers:  params.Workers,
		passes:   1,
		total:    max(params.Samples, state.SampleCount()+1),
		observer: observerOrNop(obs),
	})
	return nil
}

// launch marks the controller running and starts the run goroutine
func (c *Controller) launch(j *job) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.status = Running
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.run(ctx, j, done)
}

// run executes the passes of a job, checking for cancellation between
// passes so that the pass in flight always completes
func (c *Controller) run(ctx context.Context, j *job, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		if c.done == done {
			c.status = Idle
			c.cancel = nil
		}
		c.mu.Unlock()
		close(done)
	}()

	pool := NewWorkerPool(j.renderer, len(j.tiles), j.workers)
	pool.Start()
	defer pool.Stop()

	j.observer.Progress("render image", j.state.SampleCount(), j.total)

	for range j.passes {
		select {
		case <-ctx.Done():
			c.logger.Info("render stopped", "samples", j.state.SampleCount())
			return
		default:
		}

		startTime := time.Now()
		render := c.renderPass(pool, j)
		samples := j.state.SampleCount()
		c.logger.Debug("pass completed", "samples", samples, "duration", time.Since(startTime),
			"workers", pool.GetNumWorkers())

		j.observer.Progress("render image", samples, j.total)
		j.observer.Update(render, c.canvas.Snapshot(), samples, j.total)
	}
}

// renderPass adds one sample to every pixel and returns the averaged image.
// Pass k+1 is only submitted after every tile of pass k has completed.
func (c *Controller) renderPass(pool *WorkerPool, j *job) *Image {
	j.state.mu.Lock()
	defer j.state.mu.Unlock()

	for id, tile := range j.tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: id})
	}
	for range j.tiles {
		pool.GetResult()
	}

	j.state.Samples++
	return j.state.image()
}

// Stop cancels the current run and blocks until it has exited. The pass in
// flight completes first. Stop is a no-op while idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Wait blocks until the current run finishes or is stopped
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Preview synchronously renders one sample per pixel at the preview
// resolution into a throwaway state and publishes it with current 0. The
// controller's own state is untouched.
func (c *Controller) Preview(b *Bundle, params config.Params, obs Observer) error {
	renderer, err := c.prepare(b, params, params.PreviewResolution())
	if err != nil {
		return err
	}
	state := renderer.state
	tiles := NewTileGrid(state.Width, state.Height, params.TileSize)

	pool := NewWorkerPool(renderer, len(tiles), params.Workers)
	pool.Start()
	defer pool.Stop()

	render := c.renderPass(pool, &job{state: state, renderer: renderer, tiles: tiles})
	observerOrNop(obs).Update(render, c.canvas.Snapshot(), 0, params.Samples)
	return nil
}

// Restart stops the current run, publishes a preview and starts a new run
func (c *Controller) Restart(b *Bundle, params config.Params, obs Observer) error {
	c.Stop()
	if err := c.Preview(b, params, obs); err != nil {
		return err
	}
	return c.Start(b, params, obs)
}

func observerOrNop(obs Observer) Observer {
	if obs == nil {
		return NopObserver{}
	}
	return obs
}
