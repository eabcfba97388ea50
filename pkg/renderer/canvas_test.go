package renderer

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

func newTestCanvas(width, height int) *Canvas {
	c := NewCanvas(7)
	c.Resize(width, height)
	return c
}

func TestPaintStaysInsideBrushRectangle(t *testing.T) {
	tests := []struct {
		name          string
		center        image.Point
		width, height int
	}{
		{"centered", image.Pt(50, 50), 20, 20},
		{"odd size", image.Pt(50, 50), 15, 9},
		{"clipped left", image.Pt(2, 50), 30, 30},
		{"clipped corner", image.Pt(99, 99), 30, 30},
		{"outside", image.Pt(-100, -100), 30, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCanvas(100, 100)
			painted := c.Paint(tt.center, tt.width, tt.height, 0)

			rect := image.Rect(
				tt.center.X-tt.width/2, tt.center.Y-tt.height/2,
				tt.center.X-tt.width/2+tt.width, tt.center.Y-tt.height/2+tt.height,
			)
			snapshot := c.Snapshot()
			count := 0
			for y := 0; y < snapshot.Height; y++ {
				for x := 0; x < snapshot.Width; x++ {
					if snapshot.At(x, y).W == 0 {
						continue
					}
					count++
					assert.True(t, image.Pt(x, y).In(rect), "pixel (%d,%d) painted outside %v", x, y, rect)
				}
			}
			assert.Equal(t, count, painted)
			assert.Equal(t, Brush{Origin: tt.center, Width: tt.width, Height: tt.height}, c.Brush())
		})
	}
}

func TestPaintCenterAlwaysPainted(t *testing.T) {
	c := newTestCanvas(64, 64)
	for i := 0; i < 50; i++ {
		c.Clear()
		require.Greater(t, c.Paint(image.Pt(32, 32), 10, 10, 0), 0)
		assert.Equal(t, DefaultPaintColor, c.Snapshot().At(32, 32))
	}
}

func TestPaintThreshold(t *testing.T) {
	c := newTestCanvas(64, 64)

	// Nothing reaches a threshold of one: falloff <= 1 and rnd >= 0 with
	// equality only at the center for rnd == 0
	assert.LessOrEqual(t, c.Paint(image.Pt(32, 32), 20, 20, 1), 1)

	// Higher thresholds paint fewer pixels on average
	low := 0
	high := 0
	for i := 0; i < 20; i++ {
		c.Clear()
		low += c.Paint(image.Pt(32, 32), 30, 30, 0)
		c.Clear()
		high += c.Paint(image.Pt(32, 32), 30, 30, 0.5)
	}
	assert.Greater(t, low, high)
}

func TestPaintDoesNotTouchRender(t *testing.T) {
	b := testBundle(t)
	c := NewController(nil, 1)
	require.NoError(t, c.Start(b, testParams(2), nil))
	c.Wait()
	before := c.Snapshot()

	c.Canvas().Paint(image.Pt(50, 50), 40, 40, 0)
	assert.Equal(t, before.Pix, c.Snapshot().Pix)
}

func TestCanvasResize(t *testing.T) {
	c := newTestCanvas(10, 10)
	c.Paint(image.Pt(5, 5), 4, 4, 0)

	// Same size keeps the strokes
	c.Resize(10, 10)
	assert.Equal(t, DefaultPaintColor, c.Snapshot().At(5, 5))

	c.Resize(20, 10)
	w, h := c.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
	for _, p := range c.Snapshot().Pix {
		assert.Equal(t, core.Vec4{}, p)
	}
}

func TestWindowToCanvas(t *testing.T) {
	tests := []struct {
		pos, window, canvas, want image.Point
	}{
		{image.Pt(0, 0), image.Pt(800, 600), image.Pt(400, 300), image.Pt(0, 0)},
		{image.Pt(400, 300), image.Pt(800, 600), image.Pt(400, 300), image.Pt(200, 150)},
		{image.Pt(799, 599), image.Pt(800, 600), image.Pt(100, 100), image.Pt(99, 99)},
		{image.Pt(-10, 10), image.Pt(100, 100), image.Pt(100, 100), image.Pt(-10, 10)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WindowToCanvas(tt.pos, tt.window, tt.canvas), "%v", tt.pos)
	}
}

func TestImageRGBA(t *testing.T) {
	img := NewImage(2, 1)
	img.Set(0, 0, core.NewVec4(1, 0.5, 0, 1))
	img.Set(1, 0, core.NewVec4(4, 4, 4, 0))

	rgba := img.RGBA(0)
	assert.Equal(t, uint8(255), rgba.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(0), rgba.RGBAAt(0, 0).B)
	assert.Equal(t, uint8(255), rgba.RGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), rgba.RGBAAt(1, 0).A)

	stats := img.Stats()
	assert.Equal(t, 2, stats.TotalPixels)
	assert.Equal(t, 1, stats.CoveredPixels)
	assert.InDelta(t, 4, stats.MaxLuminance, 1e-9)
}

func TestTileGridCoversImage(t *testing.T) {
	tiles := NewTileGrid(100, 70, 32)
	assert.Len(t, tiles, 4*3)

	covered := 0
	for i, tile := range tiles {
		assert.Equal(t, i, tile.ID)
		covered += tile.Bounds.Dx() * tile.Bounds.Dy()
	}
	assert.Equal(t, 100*70, covered)
}
