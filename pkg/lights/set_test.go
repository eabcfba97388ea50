package lights

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-interactive-raytracer/pkg/authoring"
	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/core"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

// lightScene returns a render scene with a 2x2 emitting quad in the y=1 plane
// and a diffuse wall
func lightScene(t *testing.T, addSky bool) *scene.Scene {
	t.Helper()
	src := &authoring.Scene{}
	quad := src.AddShape(authoring.MakeQuad("quad", 2))
	lamp := src.AddMaterial(&authoring.Material{Name: "lamp", Emission: core.NewVec3(4, 4, 4)})
	white := src.AddMaterial(&authoring.Material{Name: "white", Color: core.NewVec3(0.8, 0.8, 0.8)})

	src.AddInstance(&authoring.Instance{
		Name:     "light",
		Frame:    core.LookAtFrame(core.NewVec3(0, 1, 0), core.Vec3{}, core.NewVec3(0, 0, 1)),
		Shape:    quad,
		Material: lamp,
	})
	src.AddInstance(&authoring.Instance{Name: "wall", Frame: core.IdentityFrame(), Shape: quad, Material: white})
	if addSky {
		src.AddSky()
	}

	s, _, err := scene.Convert(src, nil, nil)
	require.NoError(t, err)
	return s
}

func TestBuildEmptySet(t *testing.T) {
	s := &scene.Scene{}
	set, err := Build(s, config.Default())
	require.NoError(t, err)
	assert.True(t, set.Empty())
	assert.Same(t, s, set.Scene)

	_, ok := set.SampleDirect(core.Vec3{}, core.NewVec3(0, 1, 0), core.NewPCGSampler(rand.NewPCG(1, 2)))
	assert.False(t, ok)
}

func TestBuildCollectsEmitters(t *testing.T) {
	tests := []struct {
		name   string
		addSky bool
		want   []Kind
	}{
		{"area light only", false, []Kind{AreaLight}},
		{"area light and sky", true, []Kind{AreaLight, EnvironmentLight}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Build(lightScene(t, tt.addSky), config.Default())
			require.NoError(t, err)
			require.Equal(t, len(tt.want), set.Len())
			for i, kind := range tt.want {
				assert.Equal(t, kind, set.Lights[i].Kind)
			}
			assert.Equal(t, scene.InstanceID(0), set.Lights[0].Instance)
			assert.InDelta(t, 4, set.Lights[0].Area, 1e-9)
		})
	}
}

func TestSampleDirectAreaLight(t *testing.T) {
	set, err := Build(lightScene(t, false), config.Default())
	require.NoError(t, err)

	sampler := core.NewPCGSampler(rand.NewPCG(7, 11))
	point := core.Vec3{}
	normal := core.NewVec3(0, 1, 0)

	// The estimator of the solid angle subtended by the light converges to
	// the analytic value for a square seen from its center axis
	const n = 20000
	sum := 0.0
	for i := 0; i < n; i++ {
		sample, ok := set.SampleDirect(point, normal, sampler)
		require.True(t, ok)
		assert.Greater(t, sample.Direction.Y, 0.0)
		assert.LessOrEqual(t, sample.Distance, math.Sqrt(3)+1e-9)
		assert.Equal(t, core.NewVec3(4, 4, 4), sample.Emission)
		sum += 1 / sample.PDF
	}
	want := 4 * math.Asin(0.5)
	assert.InDelta(t, want, sum/n, 0.03)
}

func TestSampleDirectEnvironment(t *testing.T) {
	s := &scene.Scene{}
	s.AddEnvironment(scene.Environment{
		Name:        "white",
		Frame:       core.IdentityFrame(),
		Emission:    core.NewVec3(1, 1, 1),
		EmissionTex: scene.NoTexture,
	})
	set, err := Build(s, config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	sampler := core.NewPCGSampler(rand.NewPCG(3, 5))
	normal := core.NewVec3(0, 0, 1)
	for i := 0; i < 100; i++ {
		sample, ok := set.SampleDirect(core.Vec3{}, normal, sampler)
		if !ok {
			continue
		}
		assert.True(t, math.IsInf(sample.Distance, 1))
		assert.Greater(t, sample.Direction.Dot(normal), 0.0)
		assert.InDelta(t, sample.Direction.Dot(normal)/math.Pi, sample.PDF, 1e-9)
	}
}

func TestBuildInvalidInstance(t *testing.T) {
	s := &scene.Scene{}
	lamp := s.AddMaterial(scene.Material{Name: "lamp", Emission: core.NewVec3(1, 1, 1), EmissionTex: scene.NoTexture, ColorTex: scene.NoTexture})
	s.AddInstance(scene.Instance{Name: "lamp", Frame: core.IdentityFrame(), Shape: scene.NoShape, Material: lamp})

	_, err := Build(s, config.Default())
	assert.ErrorIs(t, err, ErrInvalidInstance)
}
