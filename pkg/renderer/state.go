package renderer

import (
	"math/rand/v2"
	"sync"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// State is the accumulation state of a progressive render
type State struct {
	Width   int
	Height  int
	Samples int // Completed passes, one sample per pixel each

	mu    sync.RWMutex // Held for writing during a pass
	accum []core.Vec4  // Sum of samples, W counts them
	rngs  []rand.PCG   // One stream per pixel
}

// NewState allocates a cleared state with freshly seeded pixel streams
func NewState(width, height int, seed uint64) *State {
	s := &State{
		Width:  width,
		Height: height,
		accum:  make([]core.Vec4, width*height),
		rngs:   make([]rand.PCG, width*height),
	}
	core.SeedPixelRNGs(s.rngs, seed)
	return s
}

// Image returns the averaged radiance as an opaque image
func (s *State) Image() *Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image()
}

// image averages the accumulation buffer; callers hold mu
func (s *State) image() *Image {
	img := NewImage(s.Width, s.Height)
	for i, sum := range s.accum {
		if sum.W > 0 {
			c := sum.RGB().Multiply(1 / sum.W)
			img.Pix[i] = core.NewVec4(c.X, c.Y, c.Z, 1)
		} else {
			img.Pix[i] = core.NewVec4(0, 0, 0, 1)
		}
	}
	return img
}

// SampleCount returns the number of completed passes
func (s *State) SampleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Samples
}
