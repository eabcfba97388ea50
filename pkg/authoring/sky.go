package authoring

import (
	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// Sky gradient colors, top of the sky and horizon
var (
	skyZenith  = core.NewVec3(0.5, 0.7, 1.0)
	skyHorizon = core.NewVec3(1.0, 1.0, 1.0)
	skyGround  = core.NewVec3(0.3, 0.3, 0.3)
)

const (
	skyTextureWidth  = 64
	skyTextureHeight = 32
)

// AddSky synthesizes a default environment: a latitude-longitude gradient
// texture and an environment that emits it. It returns the new environment.
func (s *Scene) AddSky() *Environment {
	texture := &Texture{
		Name:   "sky",
		Width:  skyTextureWidth,
		Height: skyTextureHeight,
		HDR:    make([]core.Vec4, skyTextureWidth*skyTextureHeight),
	}

	for j := 0; j < skyTextureHeight; j++ {
		// j = 0 is the zenith, j = height-1 is the nadir
		elevation := 1 - 2*(float64(j)+0.5)/float64(skyTextureHeight)

		var c core.Vec3
		if elevation >= 0 {
			c = skyHorizon.Multiply(1 - elevation).Add(skyZenith.Multiply(elevation))
		} else {
			c = skyGround
		}
		for i := 0; i < skyTextureWidth; i++ {
			texture.HDR[j*skyTextureWidth+i] = core.NewVec4(c.X, c.Y, c.Z, 1)
		}
	}
	s.AddTexture(texture)

	return s.AddEnvironment(&Environment{
		Name:        "sky",
		Frame:       core.IdentityFrame(),
		Emission:    core.NewVec3(1, 1, 1),
		EmissionTex: texture,
	})
}
