// Package renderer runs progressive renders of one scene bundle at a time
// and composites interactive brush strokes on a separate canvas.
package renderer

import (
	"errors"

	"github.com/df07/go-interactive-raytracer/pkg/accel"
	"github.com/df07/go-interactive-raytracer/pkg/lights"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

var (
	// ErrMismatchedBundle is returned when a bundle's accelerator or light
	// set was built from a different scene
	ErrMismatchedBundle = errors.New("bundle accelerator and lights do not belong to its scene")

	// ErrNoCamera is returned when a bundle has no usable render camera
	ErrNoCamera = errors.New("bundle has no camera")

	// ErrNotStarted is returned by Step when there is no render state
	// compatible with the requested bundle and parameters
	ErrNotStarted = errors.New("render not started")
)

// Bundle is everything needed to render one scene
type Bundle struct {
	Name   string         // Source the scene was loaded from
	Scene  *scene.Scene   // Render scene
	Camera scene.CameraID // Render camera
	BVH    *accel.BVH     // Built from Scene
	Lights *lights.Set    // Built from Scene
}

// Validate checks that the accelerator and the light set were built from the
// bundle's scene and that the camera exists
func (b *Bundle) Validate() error {
	if b == nil || b.Scene == nil || b.BVH == nil || b.Lights == nil {
		return ErrMismatchedBundle
	}
	if b.BVH.Scene != b.Scene || b.Lights.Scene != b.Scene {
		return ErrMismatchedBundle
	}
	if b.Scene.Camera(b.Camera) == nil {
		return ErrNoCamera
	}
	return nil
}
