package scene

import (
	"math"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// Eval looks up the texture at uv with nearest filtering and repeat wrapping.
// LDR texels are returned in linear [0,1] without color space conversion.
func (t *Texture) Eval(uv core.Vec2) core.Vec4 {
	if t.Width == 0 || t.Height == 0 {
		return core.NewVec4(1, 1, 1, 1)
	}
	s := uv.X - math.Floor(uv.X)
	r := uv.Y - math.Floor(uv.Y)
	i := min(int(s*float64(t.Width)), t.Width-1)
	j := min(int(r*float64(t.Height)), t.Height-1)
	idx := j*t.Width + i

	if len(t.HDR) > 0 {
		return t.HDR[idx]
	}
	if len(t.LDR) > 0 {
		c := t.LDR[idx]
		return core.NewVec4(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
	}
	return core.NewVec4(1, 1, 1, 1)
}

// EvalColor returns the material base color modulated by its color texture
func (s *Scene) EvalColor(m *Material, uv core.Vec2) core.Vec3 {
	if tex := s.Texture(m.ColorTex); tex != nil {
		return m.Color.MultiplyVec(tex.Eval(uv).RGB())
	}
	return m.Color
}

// EvalEmission returns the material emission modulated by its emission texture
func (s *Scene) EvalEmission(m *Material, uv core.Vec2) core.Vec3 {
	if tex := s.Texture(m.EmissionTex); tex != nil {
		return m.Emission.MultiplyVec(tex.Eval(uv).RGB())
	}
	return m.Emission
}

// EvalEnvironment returns the radiance arriving from direction dir, summed
// over every environment.
func (s *Scene) EvalEnvironment(dir core.Vec3) core.Vec3 {
	var radiance core.Vec3
	for i := range s.Environments {
		radiance = radiance.Add(s.EnvironmentRadiance(EnvironmentID(i), dir))
	}
	return radiance
}

// EnvironmentRadiance returns the radiance one environment emits toward -dir.
// Environment textures are latitude-longitude maps in the environment frame.
func (s *Scene) EnvironmentRadiance(id EnvironmentID, dir core.Vec3) core.Vec3 {
	if id < 0 || int(id) >= len(s.Environments) {
		return core.Vec3{}
	}
	env := &s.Environments[id]
	emission := env.Emission
	if tex := s.Texture(env.EmissionTex); tex != nil {
		// Express dir in the environment frame
		local := core.NewVec3(dir.Dot(env.Frame.X), dir.Dot(env.Frame.Y), dir.Dot(env.Frame.Z)).Normalize()
		u := math.Atan2(local.Z, local.X) / (2 * math.Pi)
		v := math.Acos(max(-1, min(1, local.Y))) / math.Pi
		emission = emission.MultiplyVec(tex.Eval(core.NewVec2(u, v)).RGB())
	}
	return emission
}
