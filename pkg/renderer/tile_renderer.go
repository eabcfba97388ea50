package renderer

import (
	"image"
	"math"

	"github.com/df07/go-interactive-raytracer/pkg/core"
	"github.com/df07/go-interactive-raytracer/pkg/integrator"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

// TileRenderer adds one sample per pixel to a region of a render state
type TileRenderer struct {
	camera     *scene.Camera
	integrator integrator.Integrator
	state      *State
	clamp      float64
}

// NewTileRenderer creates a tile renderer writing into state
func NewTileRenderer(camera *scene.Camera, integ integrator.Integrator, state *State, clamp float64) *TileRenderer {
	return &TileRenderer{
		camera:     camera,
		integrator: integ,
		state:      state,
		clamp:      clamp,
	}
}

// RenderTileBounds samples every pixel in bounds once. Tiles do not
// overlap, so concurrent calls for different tiles are safe.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle) {
	width := float64(tr.state.Width)
	height := float64(tr.state.Height)

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			index := j*tr.state.Width + i
			sampler := core.NewPCGSampler(&tr.state.rngs[index])

			puv := sampler.Get2D()
			uv := core.NewVec2((float64(i)+puv.X)/width, (float64(j)+puv.Y)/height)
			ray := tr.camera.Ray(uv, sampler.Get2D())

			radiance := tr.clampRadiance(tr.integrator.Radiance(ray, sampler))
			tr.state.accum[index] = tr.state.accum[index].Add(core.NewVec4(radiance.X, radiance.Y, radiance.Z, 1))
		}
	}
}

// clampRadiance drops invalid samples and scales down samples brighter
// than the clamp value
func (tr *TileRenderer) clampRadiance(c core.Vec3) core.Vec3 {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) ||
		math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) || math.IsInf(c.Z, 0) {
		return core.Vec3{}
	}
	if tr.clamp <= 0 {
		return c
	}
	if m := c.MaxComponent(); m > tr.clamp {
		return c.Multiply(tr.clamp / m)
	}
	return c
}
