package scene

import (
	"math"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// DefaultCameraName matches authoring.DefaultCameraName
const DefaultCameraName = "default"

// filmSize returns the film extent, keeping the longer side at Film
func (c *Camera) filmSize() core.Vec2 {
	if c.Aspect >= 1 {
		return core.NewVec2(c.Film, c.Film/c.Aspect)
	}
	return core.NewVec2(c.Film*c.Aspect, c.Film)
}

// Ray generates a camera ray for image coordinates uv in [0,1]^2 (v grows
// downward) and lens sample luv in [0,1]^2.
func (c *Camera) Ray(uv, luv core.Vec2) core.Ray {
	film := c.filmSize()
	lens := core.SamplePointInUnitDisk(luv)

	if c.Orthographic {
		scale := 1 / c.Lens
		q := core.NewVec3(film.X*(0.5-uv.X)*scale, film.Y*(uv.Y-0.5)*scale, c.Lens)
		e := core.NewVec3(-q.X+lens.X*c.Aperture/2, -q.Y+lens.Y*c.Aperture/2, 0)
		p := core.NewVec3(-q.X, -q.Y, -c.focus())
		d := p.Subtract(e).Normalize()
		return core.NewRay(c.Frame.TransformPoint(e), c.Frame.TransformDirection(d))
	}

	q := core.NewVec3(film.X*(0.5-uv.X), film.Y*(uv.Y-0.5), c.Lens)
	dc := q.Negate().Normalize()
	if c.Aperture == 0 {
		return core.NewRay(c.Frame.O, c.Frame.TransformDirection(dc))
	}

	// Thin lens: aim through the lens point at the focus plane
	e := core.NewVec3(lens.X*c.Aperture/2, lens.Y*c.Aperture/2, 0)
	p := dc.Multiply(c.focus() / math.Abs(dc.Z))
	d := p.Subtract(e).Normalize()
	return core.NewRay(c.Frame.TransformPoint(e), c.Frame.TransformDirection(d))
}

func (c *Camera) focus() float64 {
	if c.Focus <= 0 {
		return 1e4
	}
	return c.Focus
}

// Resolution returns the image size for a maximum resolution, following the
// camera aspect: the longer side gets resolution pixels.
func (c *Camera) Resolution(resolution int) (width, height int) {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	if aspect >= 1 {
		return resolution, max(1, int(math.Round(float64(resolution)/aspect)))
	}
	return max(1, int(math.Round(float64(resolution)*aspect))), resolution
}

// FindCamera returns the camera with the given name, falling back to the
// camera named "default" and then to the first camera. It returns NoCamera
// only when the scene has no cameras.
func (s *Scene) FindCamera(name string) CameraID {
	if len(s.Cameras) == 0 {
		return NoCamera
	}
	if name != "" {
		for i := range s.Cameras {
			if s.Cameras[i].Name == name {
				return CameraID(i)
			}
		}
	}
	for i := range s.Cameras {
		if s.Cameras[i].Name == DefaultCameraName {
			return CameraID(i)
		}
	}
	return 0
}

// AddDefaultCamera adds a camera framing the scene bounds from the +Z side
func (s *Scene) AddDefaultCamera() CameraID {
	const (
		lens   = 0.050
		film   = 0.036
		aspect = 16.0 / 9.0
	)

	center := core.Vec3{}
	radius := 1.0
	if bounds := s.Bounds(); bounds.IsValid() {
		center = bounds.Center()
		radius = max(radius, bounds.Size().Length()/2)
	}

	// Back off until the bounding sphere fits the horizontal field of view
	distance := radius * lens / (film / 2) * 1.2
	from := center.Add(core.NewVec3(0, 0, distance+radius))

	return s.AddCamera(Camera{
		Name:     DefaultCameraName,
		Frame:    core.LookAtFrame(from, center, core.NewVec3(0, 1, 0)),
		Lens:     lens,
		Film:     film,
		Aspect:   aspect,
		Focus:    from.Subtract(center).Length(),
		Aperture: 0,
	})
}
