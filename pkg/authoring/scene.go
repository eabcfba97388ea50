// Package authoring holds the authoring-time scene graph produced by scene
// loaders. Entities are identified by pointer and reference each other by
// pointer; a nil pointer is the null reference.
package authoring

import (
	"image/color"
	"slices"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// Camera is a pinhole or thin-lens camera
type Camera struct {
	Name         string
	Frame        core.Frame
	Orthographic bool
	Lens         float64 // Focal length
	Film         float64 // Film width
	Aspect       float64 // Film aspect ratio (width / height)
	Focus        float64 // Focus distance
	Aperture     float64 // Lens aperture, 0 for pinhole
}

// Texture is an image texture with either HDR or LDR pixels
type Texture struct {
	Name   string
	Width  int
	Height int
	HDR    []core.Vec4
	LDR    []color.RGBA
}

// Material describes surface appearance. Texture slots may be nil.
type Material struct {
	Name         string
	Emission     core.Vec3
	Color        core.Vec3
	Specular     float64
	Roughness    float64
	Metallic     float64
	IOR          float64
	Spectint     core.Vec3
	Coat         float64
	Transmission float64
	Translucency float64
	Scattering   core.Vec3
	ScAnisotropy float64
	TrDepth      float64
	Opacity      float64
	Thin         bool

	EmissionTex     *Texture
	ColorTex        *Texture
	SpecularTex     *Texture
	MetallicTex     *Texture
	RoughnessTex    *Texture
	TransmissionTex *Texture
	TranslucencyTex *Texture
	SpectintTex     *Texture
	ScatteringTex   *Texture
	CoatTex         *Texture
	OpacityTex      *Texture
	NormalTex       *Texture
}

// Shape is an indexed mesh with optional per-vertex attributes
type Shape struct {
	Name          string
	Points        []int
	Lines         [][2]int
	Triangles     [][3]int
	Quads         [][4]int
	QuadsPos      [][4]int
	QuadsNorm     [][4]int
	QuadsTexcoord [][4]int
	Positions     []core.Vec3
	Normals       []core.Vec3
	Texcoords     []core.Vec2
	Colors        []core.Vec4
	Radius        []float64
	Tangents      []core.Vec4
	Subdivisions  int
	CatmullClark  bool
	Smooth        bool
	Displacement  float64

	DisplacementTex *Texture
}

// Instance places a shape with a material in the world
type Instance struct {
	Name     string
	Frame    core.Frame
	Shape    *Shape
	Material *Material
}

// Environment is an emitter at infinity
type Environment struct {
	Name        string
	Frame       core.Frame
	Emission    core.Vec3
	EmissionTex *Texture
}

// Scene is an authoring scene graph. Entities are kept in insertion order.
type Scene struct {
	Name         string
	Cameras      []*Camera
	Textures     []*Texture
	Materials    []*Material
	Shapes       []*Shape
	Instances    []*Instance
	Environments []*Environment
}

// Clone returns a scene with its own entity lists. The entities themselves
// are shared, so adding to the clone leaves s unchanged.
func (s *Scene) Clone() *Scene {
	return &Scene{
		Name:         s.Name,
		Cameras:      slices.Clone(s.Cameras),
		Textures:     slices.Clone(s.Textures),
		Materials:    slices.Clone(s.Materials),
		Shapes:       slices.Clone(s.Shapes),
		Instances:    slices.Clone(s.Instances),
		Environments: slices.Clone(s.Environments),
	}
}

// EntityCount returns the total number of entities of every kind
func (s *Scene) EntityCount() int {
	return len(s.Cameras) + len(s.Textures) + len(s.Materials) +
		len(s.Shapes) + len(s.Instances) + len(s.Environments)
}

// AddCamera appends a camera and returns it
func (s *Scene) AddCamera(c *Camera) *Camera {
	s.Cameras = append(s.Cameras, c)
	return c
}

// AddTexture appends a texture and returns it
func (s *Scene) AddTexture(t *Texture) *Texture {
	s.Textures = append(s.Textures, t)
	return t
}

// AddMaterial appends a material and returns it
func (s *Scene) AddMaterial(m *Material) *Material {
	s.Materials = append(s.Materials, m)
	return m
}

// AddShape appends a shape and returns it
func (s *Scene) AddShape(sh *Shape) *Shape {
	s.Shapes = append(s.Shapes, sh)
	return sh
}

// AddInstance appends an instance and returns it
func (s *Scene) AddInstance(i *Instance) *Instance {
	s.Instances = append(s.Instances, i)
	return i
}

// AddEnvironment appends an environment and returns it
func (s *Scene) AddEnvironment(e *Environment) *Environment {
	s.Environments = append(s.Environments, e)
	return e
}
