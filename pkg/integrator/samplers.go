package integrator

import (
	"math"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// EyelightIntegrator shades surfaces as if lit by a light at the camera.
// It ignores the scene lights.
type EyelightIntegrator struct {
	tracer
}

// Radiance returns the eyelight shading of the first hit
func (e *EyelightIntegrator) Radiance(ray core.Ray, sampler core.Sampler) core.Vec3 {
	hit, ok := e.bvh.Intersect(ray, rayEpsilon, math.Inf(1))
	if !ok {
		return e.scene.EvalEnvironment(ray.Direction)
	}
	s := e.shade(ray, hit)
	cosine := math.Abs(s.normal.Dot(ray.Direction.Normalize()))
	return s.emission.Add(s.color.Multiply(cosine))
}

// DirectIntegrator computes emission plus single-bounce direct lighting
type DirectIntegrator struct {
	tracer
}

// Radiance returns the directly lit shading of the first hit
func (d *DirectIntegrator) Radiance(ray core.Ray, sampler core.Sampler) core.Vec3 {
	hit, ok := d.bvh.Intersect(ray, rayEpsilon, math.Inf(1))
	if !ok {
		return d.scene.EvalEnvironment(ray.Direction)
	}
	s := d.shade(ray, hit)
	return s.emission.Add(d.direct(s, sampler))
}

// PathIntegrator implements unidirectional path tracing over diffuse
// surfaces with next event estimation at every bounce
type PathIntegrator struct {
	tracer
}

// Russian roulette starts after this many bounces
const rouletteDepth = 3

// Radiance traces a path of up to the configured number of bounces
func (p *PathIntegrator) Radiance(ray core.Ray, sampler core.Sampler) core.Vec3 {
	var radiance core.Vec3
	throughput := core.NewVec3(1, 1, 1)

	for bounce := 0; bounce < p.bounces; bounce++ {
		hit, ok := p.bvh.Intersect(ray, rayEpsilon, math.Inf(1))
		if !ok {
			// Environments are sampled as lights after the first bounce
			if bounce == 0 {
				radiance = radiance.Add(p.scene.EvalEnvironment(ray.Direction))
			}
			break
		}

		s := p.shade(ray, hit)
		// Emission after the first bounce is accounted for by light sampling
		if bounce == 0 {
			radiance = radiance.Add(s.emission)
		}
		radiance = radiance.Add(throughput.MultiplyVec(p.direct(s, sampler)))

		// Cosine sampling cancels the Lambertian cos/pi term
		throughput = throughput.MultiplyVec(s.color)
		if bounce >= rouletteDepth {
			survive := min(throughput.MaxComponent(), 0.95)
			if sampler.Get1D() >= survive {
				break
			}
			throughput = throughput.Multiply(1 / survive)
		}

		direction := core.SampleCosineHemisphere(s.normal, sampler.Get2D())
		ray = core.NewRay(s.position.Add(s.normal.Multiply(rayEpsilon)), direction)
	}
	return radiance
}
