package renderer

import (
	"image"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// canvasSeedOffset separates the canvas streams from the sampling streams
const canvasSeedOffset = 0x5bd1e995

// DefaultPaintColor is the opaque color brush strokes deposit
var DefaultPaintColor = core.NewVec4(1, 1, 1, 1)

// Brush records where and how large the last stroke was
type Brush struct {
	Origin image.Point // Center of the stroke in canvas pixels
	Width  int
	Height int
}

// Canvas is an overlay image painted with a stochastic brush. It has its
// own per-pixel random streams so painting never touches sampling state.
type Canvas struct {
	Color core.Vec4 // Paint color

	mu     sync.RWMutex
	seed   uint64
	width  int
	height int
	pix    []core.Vec4
	rngs   []rand.PCG
	brush  Brush
}

// NewCanvas creates an empty canvas; call Resize before painting
func NewCanvas(seed uint64) *Canvas {
	return &Canvas{Color: DefaultPaintColor, seed: seed}
}

// Resize changes the canvas size. The canvas is cleared only when the size
// actually changes.
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width == c.width && height == c.height && c.pix != nil {
		return
	}
	c.width, c.height = width, height
	c.pix = make([]core.Vec4, width*height)
	c.rngs = make([]rand.PCG, width*height)
	core.SeedPixelRNGs(c.rngs, c.seed+canvasSeedOffset)
}

// Size returns the canvas dimensions
func (c *Canvas) Size() (width, height int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// Clear erases every stroke
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.pix)
}

// Brush returns the parameters of the last stroke
func (c *Canvas) Brush() Brush {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.brush
}

// Snapshot returns a copy of the canvas
func (c *Canvas) Snapshot() *Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img := NewImage(c.width, c.height)
	copy(img.Pix, c.pix)
	return img
}

// Paint deposits a stochastic stroke in the width x height rectangle
// centered at center. A pixel is painted when its radial falloff minus a
// random number from its stream reaches threshold. Pixels outside the
// canvas are skipped. It returns the number of pixels painted.
func (c *Canvas) Paint(center image.Point, width, height int, threshold float32) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.brush = Brush{Origin: center, Width: width, Height: height}
	if width <= 0 || height <= 0 {
		return 0
	}

	rect := image.Rect(center.X-width/2, center.Y-height/2, center.X-width/2+width, center.Y-height/2+height)
	rect = rect.Intersect(image.Rect(0, 0, c.width, c.height))
	if rect.Empty() {
		return 0
	}

	radius := float32(width) / 2
	var painted atomic.Int64

	// Rows are independent, split them across workers
	rows := make(chan int, rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		rows <- y
	}
	close(rows)

	var wg sync.WaitGroup
	workers := min(runtime.NumCPU(), rect.Dy())
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				count := 0
				for x := rect.Min.X; x < rect.Max.X; x++ {
					index := y*c.width + x
					dx := float32(x - center.X)
					dy := float32(y - center.Y)
					falloff := clamp01(1 - math32.Sqrt(dx*dx+dy*dy)/radius)
					if falloff-random32(&c.rngs[index]) >= threshold {
						c.pix[index] = c.Color
						count++
					}
				}
				painted.Add(int64(count))
			}
		}()
	}
	wg.Wait()

	return int(painted.Load())
}

// random32 returns a float32 in [0, 1) from a pixel stream
func random32(pcg *rand.PCG) float32 {
	return float32(pcg.Uint64()>>40) / (1 << 24)
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}

// WindowToCanvas maps a pointer position in window pixels to canvas pixels
// by normalized position. Positions outside the window map outside the
// canvas.
func WindowToCanvas(pos, window, canvas image.Point) image.Point {
	if window.X <= 0 || window.Y <= 0 {
		return pos
	}
	u := float32(pos.X) / float32(window.X)
	v := float32(pos.Y) / float32(window.Y)
	return image.Pt(
		int(math32.Floor(u*float32(canvas.X))),
		int(math32.Floor(v*float32(canvas.Y))),
	)
}
