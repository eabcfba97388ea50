// Package lights collects the emitters of a render scene and samples them
// for direct lighting.
package lights

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/core"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

// ErrInvalidInstance is returned when an emissive instance cannot be sampled
var ErrInvalidInstance = errors.New("invalid light instance")

// Kind tells apart area lights from environments
type Kind int

const (
	AreaLight Kind = iota
	EnvironmentLight
)

// triangle is one world-space emitting triangle of an area light
type triangle struct {
	p0, p1, p2 core.Vec3
	normal     core.Vec3
}

// Light is one emitter: an emissive instance or an environment
type Light struct {
	Kind        Kind
	Instance    scene.InstanceID    // NoInstance for environments
	Environment scene.EnvironmentID // NoEnvironment for area lights
	Emission    core.Vec3           // Material emission of area lights
	Area        float64             // Total world-space area of area lights

	triangles []triangle
	cdf       []float64 // Cumulative triangle areas
}

// Set holds every light of one scene
type Set struct {
	Scene  *scene.Scene // Scene the set was built from
	Lights []Light
}

// Sample is a sampled light direction as seen from a shading point
type Sample struct {
	Direction core.Vec3 // Unit direction toward the light
	Distance  float64   // Distance to the light, +Inf for environments
	Emission  core.Vec3 // Radiance arriving along Direction
	PDF       float64   // Solid angle density, including light selection
}

// Build collects the emissive instances and the emitting environments of s.
// An empty set is valid.
func Build(s *scene.Scene, params config.Params) (*Set, error) {
	set := &Set{Scene: s}

	for i := range s.Instances {
		instance := &s.Instances[i]
		material := s.Material(instance.Material)
		if material == nil || (material.Emission.IsZero() && s.Texture(material.EmissionTex) == nil) {
			continue
		}
		shape := s.Shape(instance.Shape)
		if shape == nil {
			return nil, fmt.Errorf("%w: %q has no shape", ErrInvalidInstance, instance.Name)
		}

		light, err := areaLight(scene.InstanceID(i), instance, shape, material.Emission)
		if err != nil {
			return nil, err
		}
		// Points and lines have no area and cannot be sampled
		if light.Area == 0 {
			continue
		}
		set.Lights = append(set.Lights, light)
	}

	for i := range s.Environments {
		env := &s.Environments[i]
		if env.Emission.IsZero() {
			continue
		}
		set.Lights = append(set.Lights, Light{
			Kind:        EnvironmentLight,
			Instance:    scene.NoInstance,
			Environment: scene.EnvironmentID(i),
		})
	}
	return set, nil
}

// areaLight transforms the triangles and quads of an emissive shape to world
// space and builds the area distribution over them
func areaLight(id scene.InstanceID, instance *scene.Instance, shape *scene.Shape, emission core.Vec3) (Light, error) {
	light := Light{
		Kind:        AreaLight,
		Instance:    id,
		Environment: scene.NoEnvironment,
		Emission:    emission,
	}

	add := func(a, b, c int) error {
		n := len(shape.Positions)
		if a < 0 || a >= n || b < 0 || b >= n || c < 0 || c >= n {
			return fmt.Errorf("%w: %q has a vertex index out of range", ErrInvalidInstance, instance.Name)
		}
		p0 := instance.Frame.TransformPoint(shape.Positions[a])
		p1 := instance.Frame.TransformPoint(shape.Positions[b])
		p2 := instance.Frame.TransformPoint(shape.Positions[c])
		cross := p1.Subtract(p0).Cross(p2.Subtract(p0))
		area := cross.Length() / 2
		if area == 0 {
			return nil
		}
		light.triangles = append(light.triangles, triangle{p0: p0, p1: p1, p2: p2, normal: cross.Normalize()})
		light.Area += area
		light.cdf = append(light.cdf, light.Area)
		return nil
	}

	for _, t := range shape.Triangles {
		if err := add(t[0], t[1], t[2]); err != nil {
			return light, err
		}
	}
	for _, q := range shape.Quads {
		if err := add(q[0], q[1], q[3]); err != nil {
			return light, err
		}
		if q[2] != q[3] {
			if err := add(q[2], q[3], q[1]); err != nil {
				return light, err
			}
		}
	}
	return light, nil
}

// Empty reports whether the scene has no lights
func (s *Set) Empty() bool {
	return len(s.Lights) == 0
}

// Len returns the number of lights
func (s *Set) Len() int {
	return len(s.Lights)
}

// Pick selects a light uniformly, returning it and its selection probability
func (s *Set) Pick(u float64) (*Light, float64) {
	if len(s.Lights) == 0 {
		return nil, 0
	}
	index := min(int(u*float64(len(s.Lights))), len(s.Lights)-1)
	return &s.Lights[index], 1 / float64(len(s.Lights))
}

// SampleDirect picks a light and samples a direction toward it from point.
// It returns false when the set is empty or the sample carries no energy.
func (s *Set) SampleDirect(point, normal core.Vec3, sampler core.Sampler) (Sample, bool) {
	light, pickPDF := s.Pick(sampler.Get1D())
	if light == nil {
		return Sample{}, false
	}

	if light.Kind == EnvironmentLight {
		direction := core.SampleCosineHemisphere(normal, sampler.Get2D())
		cosine := direction.Dot(normal)
		if cosine <= 0 {
			return Sample{}, false
		}
		return Sample{
			Direction: direction,
			Distance:  math.Inf(1),
			Emission:  s.Scene.EnvironmentRadiance(light.Environment, direction),
			PDF:       cosine / math.Pi * pickPDF,
		}, true
	}

	q, lightNormal := light.samplePoint(sampler.Get1D(), sampler.Get2D())
	toLight := q.Subtract(point)
	distance := toLight.Length()
	if distance == 0 {
		return Sample{}, false
	}
	direction := toLight.Multiply(1 / distance)
	cosine := math.Abs(lightNormal.Dot(direction))
	if cosine == 0 {
		return Sample{}, false
	}
	return Sample{
		Direction: direction,
		Distance:  distance,
		Emission:  light.Emission,
		PDF:       distance * distance / (cosine * light.Area) * pickPDF,
	}, true
}

// samplePoint picks a triangle by area and a uniform point on it
func (l *Light) samplePoint(u float64, uv core.Vec2) (core.Vec3, core.Vec3) {
	target := u * l.Area
	index := sort.SearchFloat64s(l.cdf, target)
	index = min(index, len(l.triangles)-1)
	t := &l.triangles[index]

	su := math.Sqrt(uv.X)
	b0 := 1 - su
	b1 := uv.Y * su
	b2 := 1 - b0 - b1
	point := t.p0.Multiply(b0).Add(t.p1.Multiply(b1)).Add(t.p2.Multiply(b2))
	return point, t.normal
}
