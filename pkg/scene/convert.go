package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/df07/go-interactive-raytracer/pkg/authoring"
)

// ErrDanglingReference is returned when an authoring entity references an
// entity that is not part of the scene being converted.
var ErrDanglingReference = errors.New("dangling entity reference")

// Progress receives conversion progress notifications
type Progress interface {
	Progress(message string, current, total int)
}

// ProgressFunc adapts a function to the Progress interface
type ProgressFunc func(message string, current, total int)

// Progress calls f(message, current, total)
func (f ProgressFunc) Progress(message string, current, total int) {
	f(message, current, total)
}

// Remap maps authoring entities to the render entities converted from them.
// Each table maps nil to the matching null index.
type Remap struct {
	Cameras      map[*authoring.Camera]CameraID
	Textures     map[*authoring.Texture]TextureID
	Materials    map[*authoring.Material]MaterialID
	Shapes       map[*authoring.Shape]ShapeID
	Instances    map[*authoring.Instance]InstanceID
	Environments map[*authoring.Environment]EnvironmentID
}

func newRemap() *Remap {
	return &Remap{
		Cameras:      map[*authoring.Camera]CameraID{nil: NoCamera},
		Textures:     map[*authoring.Texture]TextureID{nil: NoTexture},
		Materials:    map[*authoring.Material]MaterialID{nil: NoMaterial},
		Shapes:       map[*authoring.Shape]ShapeID{nil: NoShape},
		Instances:    map[*authoring.Instance]InstanceID{nil: NoInstance},
		Environments: map[*authoring.Environment]EnvironmentID{nil: NoEnvironment},
	}
}

// resolve translates one reference through a remap table
func resolve[K comparable, V any](table map[K]V, ref K, kind, owner string) (V, error) {
	id, ok := table[ref]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: %s references a %s outside the scene", ErrDanglingReference, owner, kind)
	}
	return id, nil
}

// Converter translates authoring scenes into render scenes
type Converter struct {
	Progress Progress // Optional progress observer

	remap   *Remap
	current int
	total   int
}

// Convert translates src into a render scene using a converter with the given
// progress observer (which may be nil). It returns the scene and the render
// camera converted from selected, or NoCamera if selected is nil or not
// part of src.
func Convert(src *authoring.Scene, selected *authoring.Camera, progress Progress) (*Scene, CameraID, error) {
	c := &Converter{Progress: progress}
	return c.Convert(src, selected)
}

// Remap returns the tables built by the last conversion
func (c *Converter) Remap() *Remap {
	return c.remap
}

func (c *Converter) tick(message string) {
	c.current++
	if c.Progress != nil {
		c.Progress.Progress(message, c.current, c.total)
	}
}

// Convert translates src into a render scene. Entity kinds are processed in
// dependency order so every reference resolves against an already built table.
func (c *Converter) Convert(src *authoring.Scene, selected *authoring.Camera) (*Scene, CameraID, error) {
	c.remap = newRemap()
	c.current = 0
	c.total = src.EntityCount() + 1

	dst := &Scene{Name: src.Name}

	for _, cam := range src.Cameras {
		c.tick("converting cameras")
		c.remap.Cameras[cam] = dst.AddCamera(Camera{
			Name:         cam.Name,
			Frame:        cam.Frame,
			Orthographic: cam.Orthographic,
			Lens:         cam.Lens,
			Film:         cam.Film,
			Aspect:       cam.Aspect,
			Focus:        cam.Focus,
			Aperture:     cam.Aperture,
		})
	}

	for _, tex := range src.Textures {
		c.tick("converting textures")
		c.remap.Textures[tex] = dst.AddTexture(Texture{
			Name:   tex.Name,
			Width:  tex.Width,
			Height: tex.Height,
			HDR:    slices.Clone(tex.HDR),
			LDR:    slices.Clone(tex.LDR),
		})
	}

	for _, mat := range src.Materials {
		c.tick("converting materials")
		m, err := c.convertMaterial(mat)
		if err != nil {
			return nil, NoCamera, err
		}
		c.remap.Materials[mat] = dst.AddMaterial(m)
	}

	for _, shape := range src.Shapes {
		c.tick("converting shapes")
		displacementTex, err := resolve(c.remap.Textures, shape.DisplacementTex, "texture", "shape "+shape.Name)
		if err != nil {
			return nil, NoCamera, err
		}
		c.remap.Shapes[shape] = dst.AddShape(Shape{
			Name:            shape.Name,
			Points:          slices.Clone(shape.Points),
			Lines:           slices.Clone(shape.Lines),
			Triangles:       slices.Clone(shape.Triangles),
			Quads:           slices.Clone(shape.Quads),
			QuadsPos:        slices.Clone(shape.QuadsPos),
			QuadsNorm:       slices.Clone(shape.QuadsNorm),
			QuadsTexcoord:   slices.Clone(shape.QuadsTexcoord),
			Positions:       slices.Clone(shape.Positions),
			Normals:         slices.Clone(shape.Normals),
			Texcoords:       slices.Clone(shape.Texcoords),
			Colors:          slices.Clone(shape.Colors),
			Radius:          slices.Clone(shape.Radius),
			Tangents:        slices.Clone(shape.Tangents),
			Subdivisions:    shape.Subdivisions,
			CatmullClark:    shape.CatmullClark,
			Smooth:          shape.Smooth,
			Displacement:    shape.Displacement,
			DisplacementTex: displacementTex,
		})
	}

	for _, inst := range src.Instances {
		c.tick("converting instances")
		owner := "instance " + inst.Name
		shape, err := resolve(c.remap.Shapes, inst.Shape, "shape", owner)
		if err != nil {
			return nil, NoCamera, err
		}
		material, err := resolve(c.remap.Materials, inst.Material, "material", owner)
		if err != nil {
			return nil, NoCamera, err
		}
		c.remap.Instances[inst] = dst.AddInstance(Instance{
			Name:     inst.Name,
			Frame:    inst.Frame,
			Shape:    shape,
			Material: material,
		})
	}

	for _, env := range src.Environments {
		c.tick("converting environments")
		emissionTex, err := resolve(c.remap.Textures, env.EmissionTex, "texture", "environment "+env.Name)
		if err != nil {
			return nil, NoCamera, err
		}
		c.remap.Environments[env] = dst.AddEnvironment(Environment{
			Name:        env.Name,
			Frame:       env.Frame,
			Emission:    env.Emission,
			EmissionTex: emissionTex,
		})
	}

	c.tick("converting done")

	// A selection outside the scene is a valid "no camera" result
	camera, ok := c.remap.Cameras[selected]
	if !ok {
		camera = NoCamera
	}
	return dst, camera, nil
}

func (c *Converter) convertMaterial(mat *authoring.Material) (Material, error) {
	m := Material{
		Name:         mat.Name,
		Emission:     mat.Emission,
		Color:        mat.Color,
		Specular:     mat.Specular,
		Roughness:    mat.Roughness,
		Metallic:     mat.Metallic,
		IOR:          mat.IOR,
		Spectint:     mat.Spectint,
		Coat:         mat.Coat,
		Transmission: mat.Transmission,
		Translucency: mat.Translucency,
		Scattering:   mat.Scattering,
		ScAnisotropy: mat.ScAnisotropy,
		TrDepth:      mat.TrDepth,
		Opacity:      mat.Opacity,
		Thin:         mat.Thin,
	}

	slots := []struct {
		dst *TextureID
		src *authoring.Texture
	}{
		{&m.EmissionTex, mat.EmissionTex},
		{&m.ColorTex, mat.ColorTex},
		{&m.SpecularTex, mat.SpecularTex},
		{&m.MetallicTex, mat.MetallicTex},
		{&m.RoughnessTex, mat.RoughnessTex},
		{&m.TransmissionTex, mat.TransmissionTex},
		{&m.TranslucencyTex, mat.TranslucencyTex},
		{&m.SpectintTex, mat.SpectintTex},
		{&m.ScatteringTex, mat.ScatteringTex},
		{&m.CoatTex, mat.CoatTex},
		{&m.OpacityTex, mat.OpacityTex},
		{&m.NormalTex, mat.NormalTex},
	}
	for _, slot := range slots {
		id, err := resolve(c.remap.Textures, slot.src, "texture", "material "+mat.Name)
		if err != nil {
			return Material{}, err
		}
		*slot.dst = id
	}
	return m, nil
}
