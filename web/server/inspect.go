package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-interactive-raytracer/pkg/accel"
	"github.com/df07/go-interactive-raytracer/pkg/core"
	"github.com/df07/go-interactive-raytracer/pkg/renderer"
	"github.com/df07/go-interactive-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit        bool           `json:"hit"`
	Instance   string         `json:"instance,omitempty"`
	Shape      string         `json:"shape,omitempty"`
	Material   string         `json:"material,omitempty"`
	Point      [3]float64     `json:"point"`
	Normal     [3]float64     `json:"normal"`
	Distance   float64        `json:"distance"`
	Properties map[string]any `json:"properties,omitempty"`
}

// inspectPixel casts a ray through the center of pixel (x, y) of a
// width x height image and returns the closest hit
func inspectPixel(b *renderer.Bundle, width, height, x, y int) (accel.Hit, bool) {
	camera := b.Scene.Camera(b.Camera)
	uv := core.NewVec2((float64(x)+0.5)/float64(width), (float64(y)+0.5)/float64(height))
	ray := camera.Ray(uv, core.Vec2{})
	return b.BVH.Intersect(ray, 0, math.Inf(1))
}

func vec3Array(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// materialInfo extracts the material properties shown by the inspector
func materialInfo(m *scene.Material) map[string]any {
	properties := map[string]any{
		"color":        vec3Array(m.Color),
		"hex":          hexColor(m.Color),
		"roughness":    m.Roughness,
		"metallic":     m.Metallic,
		"ior":          m.IOR,
		"transmission": m.Transmission,
		"opacity":      m.Opacity,
		"textured":     m.ColorTex != scene.NoTexture,
	}
	if !m.Emission.IsZero() || m.EmissionTex != scene.NoTexture {
		properties["emission"] = vec3Array(m.Emission)
	}
	return properties
}

// geometryInfo extracts the shape properties shown by the inspector
func geometryInfo(s *scene.Scene, id scene.InstanceID, shape *scene.Shape) map[string]any {
	bounds := s.InstanceBounds(id)
	boundingBox := map[string]any{
		"min": vec3Array(bounds.Min),
		"max": vec3Array(bounds.Max),
	}
	return map[string]any{
		"points":      len(shape.Points),
		"lines":       len(shape.Lines),
		"triangles":   len(shape.Triangles),
		"quads":       len(shape.Quads),
		"vertices":    len(shape.Positions),
		"boundingBox": boundingBox,
	}
}

// handleInspect handles ray casting inspection requests for the active
// scene at the current resolution
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	// Parse pixel coordinates
	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	_, bundle := s.session.Active()
	width, height := bundle.Scene.Camera(bundle.Camera).Resolution(s.session.Params().Resolution)
	if pixelX < 0 || pixelX >= width || pixelY < 0 || pixelY >= height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	hit, ok := inspectPixel(bundle, width, height, pixelX, pixelY)
	if !ok {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	instance := &bundle.Scene.Instances[hit.Instance]
	response := InspectResponse{
		Hit:        true,
		Instance:   instance.Name,
		Point:      vec3Array(hit.Position),
		Normal:     vec3Array(hit.Normal),
		Distance:   hit.T,
		Properties: map[string]any{},
	}
	if shape := bundle.Scene.Shape(instance.Shape); shape != nil {
		response.Shape = shape.Name
		response.Properties["geometry"] = geometryInfo(bundle.Scene, hit.Instance, shape)
	}
	if material := bundle.Scene.Material(instance.Material); material != nil {
		response.Material = material.Name
		response.Properties["material"] = materialInfo(material)
	}
	writeJSON(w, http.StatusOK, response)
}
