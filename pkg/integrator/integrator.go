// Package integrator computes the radiance carried by camera rays.
package integrator

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-interactive-raytracer/pkg/accel"
	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/core"
	"github.com/df07/go-interactive-raytracer/pkg/lights"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

// ErrUnknownSampler is returned by New for sampler names it does not know
var ErrUnknownSampler = errors.New("unknown sampler")

// rayEpsilon offsets secondary rays from surfaces
const rayEpsilon = 1e-4

// defaultColor shades instances without a material
var defaultColor = core.NewVec3(0.5, 0.5, 0.5)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// Radiance returns the radiance arriving at the camera along ray.
	// It may be called concurrently with different samplers.
	Radiance(ray core.Ray, sampler core.Sampler) core.Vec3
}

// New creates the integrator registered under name
func New(name string, bvh *accel.BVH, lightSet *lights.Set, params config.Params) (Integrator, error) {
	if lightSet == nil {
		lightSet = &lights.Set{Scene: bvh.Scene}
	}
	base := tracer{scene: bvh.Scene, bvh: bvh, lights: lightSet, bounces: max(1, params.Bounces)}
	switch name {
	case "eyelight":
		return &EyelightIntegrator{base}, nil
	case "direct":
		return &DirectIntegrator{base}, nil
	case "path":
		return &PathIntegrator{base}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSampler, name)
	}
}

// IsLit reports whether the named sampler depends on scene lights.
// Unknown names are not lit.
func IsLit(name string) bool {
	return name == "direct" || name == "path"
}

// tracer holds what every integrator needs to trace rays
type tracer struct {
	scene   *scene.Scene
	bvh     *accel.BVH
	lights  *lights.Set
	bounces int
}

// surface is the shading information at a hit point
type surface struct {
	position core.Vec3
	normal   core.Vec3 // Facing the incoming ray
	color    core.Vec3
	emission core.Vec3
}

// shade resolves the material at a hit
func (t *tracer) shade(ray core.Ray, hit accel.Hit) surface {
	normal := hit.Normal
	if normal.Dot(ray.Direction) > 0 {
		normal = normal.Negate()
	}
	s := surface{position: hit.Position, normal: normal, color: defaultColor}

	instance := &t.scene.Instances[hit.Instance]
	if material := t.scene.Material(instance.Material); material != nil {
		s.color = t.scene.EvalColor(material, hit.UV)
		s.emission = t.scene.EvalEmission(material, hit.UV)
	}
	return s
}

// direct estimates the light reflected toward the viewer by a diffuse
// surface from one light sample
func (t *tracer) direct(s surface, sampler core.Sampler) core.Vec3 {
	sample, ok := t.lights.SampleDirect(s.position, s.normal, sampler)
	if !ok || sample.PDF <= 0 {
		return core.Vec3{}
	}
	cosine := sample.Direction.Dot(s.normal)
	if cosine <= 0 {
		return core.Vec3{}
	}

	origin := s.position.Add(s.normal.Multiply(rayEpsilon))
	shadow := core.NewRay(origin, sample.Direction)
	if _, occluded := t.bvh.Intersect(shadow, rayEpsilon, sample.Distance*(1-rayEpsilon)); occluded {
		return core.Vec3{}
	}

	// Lambertian: color/pi * cos / pdf
	return s.color.MultiplyVec(sample.Emission).Multiply(cosine / (sample.PDF * math.Pi))
}
