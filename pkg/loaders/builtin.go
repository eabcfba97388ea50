package loaders

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/df07/go-interactive-raytracer/pkg/authoring"
	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// BuiltinPrefix marks scene sources that are generated instead of read
const BuiltinPrefix = "builtin:"

// Sphere tessellation used by the built-in scenes
const sphereSteps = 48

var builtins = map[string]struct {
	description string
	build       func() *authoring.Scene
}{
	"cornell":   {"Cornell box with two spheres", NewCornellScene},
	"spheres":   {"Spheres on a ground plane under a sky", NewSpheresScene},
	"materials": {"Row of material samples on a checkered floor", NewMaterialsScene},
}

// BuiltinNames returns the names of the built-in scenes, sorted
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a freshly built copy of the named built-in scene
func Builtin(name string) (*authoring.Scene, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in scene %q", name)
	}
	return b.build(), nil
}

// lookAtCamera creates a pinhole camera from a vertical field of view
func lookAtCamera(name string, from, to core.Vec3, vfov, aspect float64) *authoring.Camera {
	const film = 0.036
	filmHeight := film
	if aspect >= 1 {
		filmHeight = film / aspect
	}
	return &authoring.Camera{
		Name:   name,
		Frame:  core.LookAtFrame(from, to, core.NewVec3(0, 1, 0)),
		Lens:   filmHeight / 2 / math.Tan(vfov*math.Pi/360),
		Film:   film,
		Aspect: aspect,
		Focus:  from.Subtract(to).Length(),
	}
}

// placed returns a frame rotated by degrees around axis, then moved to center
func placed(center, axis core.Vec3, degrees float64) core.Frame {
	return core.TranslateFrame(center).Compose(core.RotateFrame(axis, degrees))
}

var (
	xAxis = core.NewVec3(1, 0, 0)
	yAxis = core.NewVec3(0, 1, 0)
)

// NewCornellScene creates a classic Cornell box scene with quad walls and area lighting
func NewCornellScene() *authoring.Scene {
	s := &authoring.Scene{}

	// Cornell box dimensions (standard 555x555x555 units)
	const boxSize = 555.0
	const half = boxSize / 2

	s.AddCamera(lookAtCamera(authoring.DefaultCameraName,
		core.NewVec3(half, half, -800), core.NewVec3(half, half, 0), 40, 1))

	white := s.AddMaterial(&authoring.Material{Name: "white", Color: core.NewVec3(0.73, 0.73, 0.73), Roughness: 1})
	red := s.AddMaterial(&authoring.Material{Name: "red", Color: core.NewVec3(0.65, 0.05, 0.05), Roughness: 1})
	green := s.AddMaterial(&authoring.Material{Name: "green", Color: core.NewVec3(0.12, 0.45, 0.15), Roughness: 1})
	light := s.AddMaterial(&authoring.Material{Name: "light", Emission: core.NewVec3(15, 15, 15)})
	metal := s.AddMaterial(&authoring.Material{Name: "metal", Color: core.NewVec3(0.8, 0.8, 0.9), Metallic: 1})
	glass := s.AddMaterial(&authoring.Material{Name: "glass", Color: core.NewVec3(1, 1, 1), IOR: 1.5, Transmission: 1})

	wall := s.AddShape(authoring.MakeQuad("wall", boxSize))
	walls := []struct {
		name     string
		center   core.Vec3
		axis     core.Vec3
		degrees  float64
		material *authoring.Material
	}{
		{"floor", core.NewVec3(half, 0, half), xAxis, -90, white},
		{"ceiling", core.NewVec3(half, boxSize, half), xAxis, 90, white},
		{"back", core.NewVec3(half, half, boxSize), yAxis, 180, white},
		{"right", core.NewVec3(0, half, half), yAxis, 90, green},
		{"left", core.NewVec3(boxSize, half, half), yAxis, -90, red},
	}
	for _, w := range walls {
		s.AddInstance(&authoring.Instance{
			Name:     w.name,
			Frame:    placed(w.center, w.axis, w.degrees),
			Shape:    wall,
			Material: w.material,
		})
	}

	// Ceiling light (smaller quad in the center of the ceiling, facing down)
	lamp := s.AddShape(authoring.MakeQuad("lamp", 130))
	s.AddInstance(&authoring.Instance{
		Name:     "light",
		Frame:    placed(core.NewVec3(half, boxSize-1, half), xAxis, 90),
		Shape:    lamp,
		Material: light,
	})

	small := s.AddShape(authoring.MakeSphere("small-sphere", 82.5, sphereSteps))
	large := s.AddShape(authoring.MakeSphere("large-sphere", 90, sphereSteps))
	s.AddInstance(&authoring.Instance{Name: "metal-sphere", Frame: core.TranslateFrame(core.NewVec3(370, 82.5, 169)), Shape: small, Material: metal})
	s.AddInstance(&authoring.Instance{Name: "glass-sphere", Frame: core.TranslateFrame(core.NewVec3(185, 90, 351)), Shape: large, Material: glass})

	return s
}

// NewSpheresScene creates spheres of different materials on a ground plane
// under a sky, lit by a distant spherical light
func NewSpheresScene() *authoring.Scene {
	s := &authoring.Scene{}
	s.AddCamera(lookAtCamera(authoring.DefaultCameraName,
		core.NewVec3(0, 0.75, 2), core.NewVec3(0, 0.5, -1), 40, 16.0/9.0))
	s.AddCamera(lookAtCamera("top",
		core.NewVec3(0, 4, -0.99), core.NewVec3(0, 0, -1), 40, 16.0/9.0))

	ground := s.AddMaterial(&authoring.Material{Name: "ground", Color: core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6)})
	red := s.AddMaterial(&authoring.Material{Name: "coated-red", Color: core.NewVec3(0.65, 0.25, 0.2), Coat: 1})
	silver := s.AddMaterial(&authoring.Material{Name: "silver", Color: core.NewVec3(0.8, 0.8, 0.8), Metallic: 1})
	gold := s.AddMaterial(&authoring.Material{Name: "gold", Color: core.NewVec3(0.8, 0.6, 0.2), Metallic: 1, Roughness: 0.3})
	glass := s.AddMaterial(&authoring.Material{Name: "glass", Color: core.NewVec3(1, 1, 1), IOR: 1.5, Transmission: 1})
	sun := s.AddMaterial(&authoring.Material{Name: "sun", Emission: core.NewVec3(15, 14, 13)})

	plane := s.AddShape(authoring.MakeQuad("ground", 20))
	s.AddInstance(&authoring.Instance{Name: "ground", Frame: placed(core.Vec3{}, xAxis, -90), Shape: plane, Material: ground})

	unit := s.AddShape(authoring.MakeSphere("sphere", 0.5, sphereSteps))
	quarter := s.AddShape(authoring.MakeSphere("small-sphere", 0.25, sphereSteps))
	spheres := []struct {
		name     string
		center   core.Vec3
		shape    *authoring.Shape
		material *authoring.Material
	}{
		{"center", core.NewVec3(0, 0.5, -1), unit, red},
		{"left", core.NewVec3(-1, 0.5, -1), unit, silver},
		{"right", core.NewVec3(1, 0.5, -1), unit, gold},
		{"glass", core.NewVec3(0.5, 0.25, -0.5), quarter, glass},
	}
	for _, sp := range spheres {
		s.AddInstance(&authoring.Instance{Name: sp.name, Frame: core.TranslateFrame(sp.center), Shape: sp.shape, Material: sp.material})
	}

	lamp := s.AddShape(authoring.MakeSphere("sun", 10, sphereSteps))
	s.AddInstance(&authoring.Instance{Name: "sun", Frame: core.TranslateFrame(core.NewVec3(30, 30.5, 15)), Shape: lamp, Material: sun})

	s.AddSky()
	return s
}

// checkerTexture returns an LDR checkerboard with n squares per side
func checkerTexture(name string, size, n int, a, b color.RGBA) *authoring.Texture {
	t := &authoring.Texture{Name: name, Width: size, Height: size, LDR: make([]color.RGBA, size*size)}
	cell := max(1, size/n)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			t.LDR[y*size+x] = c
		}
	}
	return t
}

// NewMaterialsScene creates a row of spheres with increasing roughness
// on a checkered floor under an area light
func NewMaterialsScene() *authoring.Scene {
	s := &authoring.Scene{}
	s.AddCamera(lookAtCamera(authoring.DefaultCameraName,
		core.NewVec3(0, 1.5, 5), core.NewVec3(0, 0.4, 0), 35, 16.0/9.0))

	checker := s.AddTexture(checkerTexture("checker", 256, 16,
		color.RGBA{R: 200, G: 200, B: 200, A: 255}, color.RGBA{R: 60, G: 60, B: 60, A: 255}))
	floor := s.AddMaterial(&authoring.Material{Name: "floor", Color: core.NewVec3(1, 1, 1), ColorTex: checker, Roughness: 1})
	lightMaterial := s.AddMaterial(&authoring.Material{Name: "light", Emission: core.NewVec3(8, 8, 8)})

	plane := s.AddShape(authoring.MakeQuad("floor", 12))
	s.AddInstance(&authoring.Instance{Name: "floor", Frame: placed(core.Vec3{}, xAxis, -90), Shape: plane, Material: floor})

	panel := s.AddShape(authoring.MakeQuad("panel", 3))
	s.AddInstance(&authoring.Instance{Name: "light", Frame: placed(core.NewVec3(0, 4, 1), xAxis, 90), Shape: panel, Material: lightMaterial})

	sphere := s.AddShape(authoring.MakeSphere("sphere", 0.4, sphereSteps))
	const count = 5
	for i := 0; i < count; i++ {
		roughness := float64(i) / float64(count-1)
		m := s.AddMaterial(&authoring.Material{
			Name:      fmt.Sprintf("rough-%d", i),
			Color:     core.NewVec3(0.2+0.15*float64(i), 0.3, 0.8-0.15*float64(i)),
			Specular:  1,
			Roughness: roughness,
			IOR:       1.5,
		})
		x := (float64(i) - (count-1)/2.0) * 1.0
		s.AddInstance(&authoring.Instance{
			Name:     fmt.Sprintf("sample-%d", i),
			Frame:    core.TranslateFrame(core.NewVec3(x, 0.4, 0)),
			Shape:    sphere,
			Material: m,
		})
	}

	return s
}
