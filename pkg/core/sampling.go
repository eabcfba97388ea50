package core

import (
	"math"
	"math/rand/v2"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// PCGSampler draws from a PCG stream stored elsewhere, typically one entry
// of a per-pixel RNG array. The stream advances in place.
type PCGSampler struct {
	pcg *rand.PCG
}

// NewPCGSampler wraps a PCG stream
func NewPCGSampler(pcg *rand.PCG) PCGSampler {
	return PCGSampler{pcg: pcg}
}

// Get1D returns a random float64 in [0, 1)
func (s PCGSampler) Get1D() float64 {
	return float64(s.pcg.Uint64()>>11) / (1 << 53)
}

// Get2D returns two random float64 values in [0, 1)
func (s PCGSampler) Get2D() Vec2 {
	return NewVec2(s.Get1D(), s.Get1D())
}

// SeedPixelRNGs initializes one independent PCG stream per pixel.
// Streams are keyed by seed and pixel index so results are reproducible.
func SeedPixelRNGs(rngs []rand.PCG, seed uint64) {
	for i := range rngs {
		rngs[i].Seed(splitmix64(seed+uint64(i)), splitmix64(^uint64(i)))
	}
}

// splitmix64 scrambles neighboring integers into unrelated seeds
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// SampleCosineHemisphere generates a cosine-weighted direction around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	a := 2.0 * math.Pi * sample.X
	r := math.Sqrt(sample.Y)

	x := r * math.Cos(a)
	y := r * math.Sin(a)
	z := math.Sqrt(max(0, 1.0-sample.Y))

	var nt Vec3
	if math.Abs(normal.X) > 0.1 {
		nt = NewVec3(0, 1, 0)
	} else {
		nt = NewVec3(1, 0, 0)
	}
	tangent := nt.Cross(normal).Normalize()
	bitangent := normal.Cross(tangent)

	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(z))
}

// SamplePointInUnitDisk maps a 2D sample to a point in the unit disk (for depth of field)
func SamplePointInUnitDisk(sample Vec2) Vec2 {
	r := math.Sqrt(sample.X)
	theta := 2 * math.Pi * sample.Y
	return NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}
