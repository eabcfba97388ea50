// Package scene holds the render-time scene: entities stored in arenas owned
// by a Scene and referencing each other by index.
package scene

import (
	"image/color"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// Entity indices. The -1 sentinels are the null references.
type (
	CameraID      int32
	TextureID     int32
	MaterialID    int32
	ShapeID       int32
	InstanceID    int32
	EnvironmentID int32
)

const (
	NoCamera      CameraID      = -1
	NoTexture     TextureID     = -1
	NoMaterial    MaterialID    = -1
	NoShape       ShapeID       = -1
	NoInstance    InstanceID    = -1
	NoEnvironment EnvironmentID = -1
)

// Camera is a render camera
type Camera struct {
	Name         string
	Frame        core.Frame
	Orthographic bool
	Lens         float64
	Film         float64
	Aspect       float64
	Focus        float64
	Aperture     float64
}

// Texture is a render texture. Either HDR or LDR is populated.
type Texture struct {
	Name   string
	Width  int
	Height int
	HDR    []core.Vec4
	LDR    []color.RGBA
}

// Material is a render material. Texture slots hold NoTexture when unset.
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

	EmissionTex     TextureID
	ColorTex        TextureID
	SpecularTex     TextureID
	MetallicTex     TextureID
	RoughnessTex    TextureID
	TransmissionTex TextureID
	TranslucencyTex TextureID
	SpectintTex     TextureID
	ScatteringTex   TextureID
	CoatTex         TextureID
	OpacityTex      TextureID
	NormalTex       TextureID
}

// Shape is a render shape
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

	DisplacementTex TextureID
}

// Bounds returns the local bounding box of the shape's positions
func (s *Shape) Bounds() core.AABB {
	if len(s.Positions) == 0 {
		return core.EmptyAABB()
	}
	return core.NewAABBFromPoints(s.Positions...)
}

// Instance is a render instance
type Instance struct {
	Name     string
	Frame    core.Frame
	Shape    ShapeID
	Material MaterialID
}

// Environment is a render environment
type Environment struct {
	Name        string
	Frame       core.Frame
	Emission    core.Vec3
	EmissionTex TextureID
}

// Scene owns every render entity
type Scene struct {
	Name         string
	Cameras      []Camera
	Textures     []Texture
	Materials    []Material
	Shapes       []Shape
	Instances    []Instance
	Environments []Environment
}

// AddCamera appends a camera and returns its index
func (s *Scene) AddCamera(c Camera) CameraID {
	s.Cameras = append(s.Cameras, c)
	return CameraID(len(s.Cameras) - 1)
}

// AddTexture appends a texture and returns its index
func (s *Scene) AddTexture(t Texture) TextureID {
	s.Textures = append(s.Textures, t)
	return TextureID(len(s.Textures) - 1)
}

// AddMaterial appends a material and returns its index
func (s *Scene) AddMaterial(m Material) MaterialID {
	s.Materials = append(s.Materials, m)
	return MaterialID(len(s.Materials) - 1)
}

// AddShape appends a shape and returns its index
func (s *Scene) AddShape(sh Shape) ShapeID {
	s.Shapes = append(s.Shapes, sh)
	return ShapeID(len(s.Shapes) - 1)
}

// AddInstance appends an instance and returns its index
func (s *Scene) AddInstance(i Instance) InstanceID {
	s.Instances = append(s.Instances, i)
	return InstanceID(len(s.Instances) - 1)
}

// AddEnvironment appends an environment and returns its index
func (s *Scene) AddEnvironment(e Environment) EnvironmentID {
	s.Environments = append(s.Environments, e)
	return EnvironmentID(len(s.Environments) - 1)
}

// Camera returns the camera for id, or nil for NoCamera or an out of range id
func (s *Scene) Camera(id CameraID) *Camera {
	if id < 0 || int(id) >= len(s.Cameras) {
		return nil
	}
	return &s.Cameras[id]
}

// Texture returns the texture for id, or nil for NoTexture
func (s *Scene) Texture(id TextureID) *Texture {
	if id < 0 || int(id) >= len(s.Textures) {
		return nil
	}
	return &s.Textures[id]
}

// Material returns the material for id, or nil for NoMaterial
func (s *Scene) Material(id MaterialID) *Material {
	if id < 0 || int(id) >= len(s.Materials) {
		return nil
	}
	return &s.Materials[id]
}

// Shape returns the shape for id, or nil for NoShape
func (s *Scene) Shape(id ShapeID) *Shape {
	if id < 0 || int(id) >= len(s.Shapes) {
		return nil
	}
	return &s.Shapes[id]
}

// InstanceBounds returns the world bounds of an instance
func (s *Scene) InstanceBounds(id InstanceID) core.AABB {
	instance := &s.Instances[id]
	shape := s.Shape(instance.Shape)
	if shape == nil || len(shape.Positions) == 0 {
		return core.EmptyAABB()
	}
	return instance.Frame.TransformBox(shape.Bounds())
}

// Bounds returns the world bounds of all instances
func (s *Scene) Bounds() core.AABB {
	bounds := core.EmptyAABB()
	for i := range s.Instances {
		bounds = bounds.Union(s.InstanceBounds(InstanceID(i)))
	}
	return bounds
}
