package integrator

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-interactive-raytracer/pkg/accel"
	"github.com/df07/go-interactive-raytracer/pkg/authoring"
	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/core"
	"github.com/df07/go-interactive-raytracer/pkg/lights"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

// build converts src and builds its accelerator and lights
func build(t *testing.T, src *authoring.Scene) (*accel.BVH, *lights.Set) {
	t.Helper()
	s, _, err := scene.Convert(src, nil, nil)
	require.NoError(t, err)
	bvh, err := accel.Build(s, config.Default())
	require.NoError(t, err)
	set, err := lights.Build(s, config.Default())
	require.NoError(t, err)
	return bvh, set
}

// wallScene is a single quad in the z=0 plane with the given material
func wallScene(material *authoring.Material) *authoring.Scene {
	src := &authoring.Scene{}
	quad := src.AddShape(authoring.MakeQuad("quad", 2))
	src.AddMaterial(material)
	src.AddInstance(&authoring.Instance{Name: "wall", Frame: core.IdentityFrame(), Shape: quad, Material: material})
	return src
}

var towardWall = core.NewRay(core.NewVec3(0.1, 0.2, 3), core.NewVec3(0, 0, -1))

func TestNewKnowsEverySampler(t *testing.T) {
	bvh, set := build(t, &authoring.Scene{})
	for _, name := range config.SamplerNames {
		integrator, err := New(name, bvh, set, config.Default())
		require.NoError(t, err, name)
		assert.NotNil(t, integrator)
	}

	_, err := New("bidirectional", bvh, set, config.Default())
	assert.ErrorIs(t, err, ErrUnknownSampler)
}

func TestIsLit(t *testing.T) {
	tests := []struct {
		name string
		lit  bool
	}{
		{"eyelight", false},
		{"direct", true},
		{"path", true},
		{"unknown", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.lit, IsLit(tt.name), tt.name)
	}
}

func TestEyelight(t *testing.T) {
	bvh, set := build(t, wallScene(&authoring.Material{Name: "grey", Color: core.NewVec3(0.8, 0.6, 0.4)}))
	integrator, err := New("eyelight", bvh, set, config.Default())
	require.NoError(t, err)

	sampler := core.NewPCGSampler(rand.NewPCG(1, 2))
	got := integrator.Radiance(towardWall, sampler)
	assert.InDelta(t, 0.8, got.X, 1e-9)
	assert.InDelta(t, 0.6, got.Y, 1e-9)
	assert.InDelta(t, 0.4, got.Z, 1e-9)

	// Misses see the (empty) environment
	miss := integrator.Radiance(core.NewRay(core.NewVec3(0, 0, 3), core.NewVec3(0, 0, 1)), sampler)
	assert.True(t, miss.IsZero())
}

func TestLitSamplersWithoutLightsAreBlack(t *testing.T) {
	bvh, set := build(t, wallScene(&authoring.Material{Name: "white", Color: core.NewVec3(1, 1, 1)}))
	require.True(t, set.Empty())

	for _, name := range []string{"direct", "path"} {
		integrator, err := New(name, bvh, set, config.Default())
		require.NoError(t, err)
		sampler := core.NewPCGSampler(rand.NewPCG(1, 2))
		for i := 0; i < 16; i++ {
			assert.True(t, integrator.Radiance(towardWall, sampler).IsZero(), name)
		}
	}
}

func TestEmitterIsVisible(t *testing.T) {
	bvh, set := build(t, wallScene(&authoring.Material{Name: "lamp", Emission: core.NewVec3(2, 3, 4)}))
	require.Equal(t, 1, set.Len())

	for _, name := range config.SamplerNames {
		integrator, err := New(name, bvh, set, config.Default())
		require.NoError(t, err)
		got := integrator.Radiance(towardWall, core.NewPCGSampler(rand.NewPCG(5, 6)))
		assert.InDelta(t, 2, got.X, 1e-9, name)
		assert.InDelta(t, 4, got.Z, 1e-9, name)
	}
}

func TestDirectUnderWhiteSky(t *testing.T) {
	// A white diffuse floor under a uniform white environment reflects
	// radiance equal to its albedo
	src := &authoring.Scene{}
	quad := src.AddShape(authoring.MakeQuad("floor", 100))
	white := src.AddMaterial(&authoring.Material{Name: "white", Color: core.NewVec3(0.5, 0.5, 0.5)})
	src.AddInstance(&authoring.Instance{Name: "floor", Frame: core.IdentityFrame(), Shape: quad, Material: white})
	src.AddEnvironment(&authoring.Environment{Name: "white", Frame: core.IdentityFrame(), Emission: core.NewVec3(1, 1, 1)})

	bvh, set := build(t, src)
	integrator, err := New("direct", bvh, set, config.Default())
	require.NoError(t, err)

	sampler := core.NewPCGSampler(rand.NewPCG(9, 9))
	const n = 2000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += integrator.Radiance(towardWall, sampler).X
	}
	assert.InDelta(t, 0.5, sum/n, 1e-6)
	assert.False(t, math.IsNaN(sum))
}
