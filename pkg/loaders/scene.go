// Package loaders reads authoring scenes from YAML files and built-in
// generators, and reads and writes images.
package loaders

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-interactive-raytracer/pkg/authoring"
	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// ErrUnknownReference is returned when a scene file references an entity
// name that it does not define
var ErrUnknownReference = errors.New("unknown entity reference")

// SceneLoader loads authoring scenes. Sources starting with "builtin:" name
// a built-in scene; anything else is a YAML file path.
type SceneLoader struct {
	// BaseDir resolves relative scene paths, empty for the working directory
	BaseDir string
}

// Load reads the scene at path
func (l *SceneLoader) Load(path string) (*authoring.Scene, error) {
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		return Builtin(name)
	}
	if l.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.BaseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var file sceneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode scene %q: %w", path, err)
	}
	s, err := file.build(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", path, err)
	}
	return s, nil
}

// vec3 is a YAML triple
type vec3 [3]float64

func (v vec3) vec() core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

// frameSpec places an entity: scale, then rotation, then translation.
// A lookat block overrides the others.
type frameSpec struct {
	Translate vec3        `yaml:"translate"`
	Rotate    *[4]float64 `yaml:"rotate"` // axis x, y, z and angle in degrees
	Scale     float64     `yaml:"scale"`
	LookAt    *lookAtSpec `yaml:"lookat"`
}

type lookAtSpec struct {
	From vec3  `yaml:"from"`
	To   vec3  `yaml:"to"`
	Up   *vec3 `yaml:"up"`
}

func (f *frameSpec) frame() core.Frame {
	if f == nil {
		return core.IdentityFrame()
	}
	if f.LookAt != nil {
		up := core.NewVec3(0, 1, 0)
		if f.LookAt.Up != nil {
			up = f.LookAt.Up.vec()
		}
		return core.LookAtFrame(f.LookAt.From.vec(), f.LookAt.To.vec(), up)
	}

	frame := core.IdentityFrame()
	if f.Scale != 0 {
		frame = core.ScaleFrame(f.Scale)
	}
	if f.Rotate != nil {
		r := f.Rotate
		frame = core.RotateFrame(core.NewVec3(r[0], r[1], r[2]), r[3]).Compose(frame)
	}
	return core.TranslateFrame(f.Translate.vec()).Compose(frame)
}

type cameraSpec struct {
	Name         string     `yaml:"name"`
	Frame        *frameSpec `yaml:"frame"`
	Orthographic bool       `yaml:"orthographic"`
	Lens         float64    `yaml:"lens"`
	Film         float64    `yaml:"film"`
	Aspect       float64    `yaml:"aspect"`
	Focus        float64    `yaml:"focus"`
	Aperture     float64    `yaml:"aperture"`
}

type textureSpec struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

type materialSpec struct {
	Name         string   `yaml:"name"`
	Emission     vec3     `yaml:"emission"`
	Color        vec3     `yaml:"color"`
	Specular     float64  `yaml:"specular"`
	Roughness    float64  `yaml:"roughness"`
	Metallic     float64  `yaml:"metallic"`
	IOR          float64  `yaml:"ior"`
	Spectint     *vec3    `yaml:"spectint"`
	Coat         float64  `yaml:"coat"`
	Transmission float64  `yaml:"transmission"`
	Translucency float64  `yaml:"translucency"`
	Scattering   vec3     `yaml:"scattering"`
	ScAnisotropy float64  `yaml:"scanisotropy"`
	TrDepth      float64  `yaml:"trdepth"`
	Opacity      *float64 `yaml:"opacity"`
	Thin         bool     `yaml:"thin"`

	Textures map[string]string `yaml:"textures"` // slot -> texture name
}

type shapeSpec struct {
	Name      string       `yaml:"name"`
	Generator string       `yaml:"generator"` // quad, cube or sphere
	Size      float64      `yaml:"size"`
	Steps     int          `yaml:"steps"`
	Points    []int        `yaml:"points"`
	Lines     [][2]int     `yaml:"lines"`
	Triangles [][3]int     `yaml:"triangles"`
	Quads     [][4]int     `yaml:"quads"`
	Positions []vec3       `yaml:"positions"`
	Normals   []vec3       `yaml:"normals"`
	Texcoords [][2]float64 `yaml:"texcoords"`
	Radius    []float64    `yaml:"radius"`
	Smooth    bool         `yaml:"smooth"`
}

type instanceSpec struct {
	Name     string     `yaml:"name"`
	Frame    *frameSpec `yaml:"frame"`
	Shape    string     `yaml:"shape"`
	Material string     `yaml:"material"`
}

type environmentSpec struct {
	Name     string     `yaml:"name"`
	Frame    *frameSpec `yaml:"frame"`
	Emission vec3       `yaml:"emission"`
	Texture  string     `yaml:"texture"`
}

// sceneFile is the YAML scene layout. Entities reference each other by name.
type sceneFile struct {
	Name         string            `yaml:"name"`
	Cameras      []cameraSpec      `yaml:"cameras"`
	Textures     []textureSpec     `yaml:"textures"`
	Materials    []materialSpec    `yaml:"materials"`
	Shapes       []shapeSpec       `yaml:"shapes"`
	Instances    []instanceSpec    `yaml:"instances"`
	Environments []environmentSpec `yaml:"environments"`
}

// lookup resolves a name in a table; the empty name is the null reference
func lookup[T any](table map[string]*T, name, kind, owner string) (*T, error) {
	if name == "" {
		return nil, nil
	}
	v, ok := table[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s references %s %q", ErrUnknownReference, owner, kind, name)
	}
	return v, nil
}

// build creates the authoring scene, resolving names in dependency order
func (f *sceneFile) build(dir string) (*authoring.Scene, error) {
	s := &authoring.Scene{Name: f.Name}

	for _, c := range f.Cameras {
		camera := &authoring.Camera{
			Name:         c.Name,
			Frame:        c.Frame.frame(),
			Orthographic: c.Orthographic,
			Lens:         orDefault(c.Lens, 0.05),
			Film:         orDefault(c.Film, 0.036),
			Aspect:       orDefault(c.Aspect, 1.5),
			Focus:        c.Focus,
			Aperture:     c.Aperture,
		}
		if camera.Focus == 0 && c.Frame != nil && c.Frame.LookAt != nil {
			camera.Focus = c.Frame.LookAt.From.vec().Subtract(c.Frame.LookAt.To.vec()).Length()
		}
		s.AddCamera(camera)
	}

	textures := map[string]*authoring.Texture{}
	for _, t := range f.Textures {
		file := t.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		texture, err := LoadImage(file)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", t.Name, err)
		}
		texture.Name = t.Name
		textures[t.Name] = s.AddTexture(texture)
	}

	materials := map[string]*authoring.Material{}
	for _, m := range f.Materials {
		material, err := m.material(textures)
		if err != nil {
			return nil, err
		}
		materials[m.Name] = s.AddMaterial(material)
	}

	shapes := map[string]*authoring.Shape{}
	for _, sh := range f.Shapes {
		shape, err := sh.shape()
		if err != nil {
			return nil, err
		}
		shapes[sh.Name] = s.AddShape(shape)
	}

	for _, i := range f.Instances {
		shape, err := lookup(shapes, i.Shape, "shape", "instance "+i.Name)
		if err != nil {
			return nil, err
		}
		material, err := lookup(materials, i.Material, "material", "instance "+i.Name)
		if err != nil {
			return nil, err
		}
		s.AddInstance(&authoring.Instance{Name: i.Name, Frame: i.Frame.frame(), Shape: shape, Material: material})
	}

	for _, e := range f.Environments {
		texture, err := lookup(textures, e.Texture, "texture", "environment "+e.Name)
		if err != nil {
			return nil, err
		}
		s.AddEnvironment(&authoring.Environment{Name: e.Name, Frame: e.Frame.frame(), Emission: e.Emission.vec(), EmissionTex: texture})
	}

	return s, nil
}

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func (m *materialSpec) material(textures map[string]*authoring.Texture) (*authoring.Material, error) {
	material := &authoring.Material{
		Name:         m.Name,
		Emission:     m.Emission.vec(),
		Color:        m.Color.vec(),
		Specular:     m.Specular,
		Roughness:    m.Roughness,
		Metallic:     m.Metallic,
		IOR:          orDefault(m.IOR, 1.5),
		Spectint:     core.NewVec3(1, 1, 1),
		Coat:         m.Coat,
		Transmission: m.Transmission,
		Translucency: m.Translucency,
		Scattering:   m.Scattering.vec(),
		ScAnisotropy: m.ScAnisotropy,
		TrDepth:      orDefault(m.TrDepth, 0.01),
		Opacity:      1,
		Thin:         m.Thin,
	}
	if m.Spectint != nil {
		material.Spectint = m.Spectint.vec()
	}
	if m.Opacity != nil {
		material.Opacity = *m.Opacity
	}

	slots := map[string]**authoring.Texture{
		"emission":     &material.EmissionTex,
		"color":        &material.ColorTex,
		"specular":     &material.SpecularTex,
		"metallic":     &material.MetallicTex,
		"roughness":    &material.RoughnessTex,
		"transmission": &material.TransmissionTex,
		"translucency": &material.TranslucencyTex,
		"spectint":     &material.SpectintTex,
		"scattering":   &material.ScatteringTex,
		"coat":         &material.CoatTex,
		"opacity":      &material.OpacityTex,
		"normal":       &material.NormalTex,
	}
	for slot, name := range m.Textures {
		target, ok := slots[slot]
		if !ok {
			return nil, fmt.Errorf("material %q: unknown texture slot %q", m.Name, slot)
		}
		texture, err := lookup(textures, name, "texture", "material "+m.Name)
		if err != nil {
			return nil, err
		}
		*target = texture
	}
	return material, nil
}

func (sh *shapeSpec) shape() (*authoring.Shape, error) {
	size := orDefault(sh.Size, 1)
	var shape *authoring.Shape
	switch sh.Generator {
	case "quad":
		shape = authoring.MakeQuad(sh.Name, size)
	case "cube":
		shape = authoring.MakeCube(sh.Name, size)
	case "sphere":
		shape = authoring.MakeSphere(sh.Name, size/2, max(sh.Steps, 32))
	case "":
		shape = &authoring.Shape{
			Name:      sh.Name,
			Points:    sh.Points,
			Lines:     sh.Lines,
			Triangles: sh.Triangles,
			Quads:     sh.Quads,
			Radius:    sh.Radius,
			Smooth:    sh.Smooth,
		}
		for _, p := range sh.Positions {
			shape.Positions = append(shape.Positions, p.vec())
		}
		for _, n := range sh.Normals {
			shape.Normals = append(shape.Normals, n.vec())
		}
		for _, t := range sh.Texcoords {
			shape.Texcoords = append(shape.Texcoords, core.NewVec2(t[0], t[1]))
		}
	default:
		return nil, fmt.Errorf("shape %q: unknown generator %q", sh.Name, sh.Generator)
	}
	return shape, nil
}
