// Package config defines the render and view parameters shared by the
// session, the renderer and the display layer.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidParams is returned by Validate for out-of-range parameters
var ErrInvalidParams = errors.New("invalid params")

// Params contains render and view configuration
type Params struct {
	// Render
	Camera         string  `toml:"camera" json:"camera"`                  // Camera name, empty for the scene default
	Resolution     int     `toml:"resolution" json:"resolution"`          // Image size along the longer side
	Sampler        string  `toml:"sampler" json:"sampler"`                // Sampler name
	Samples        int     `toml:"samples" json:"samples"`                // Target samples per pixel
	Bounces        int     `toml:"bounces" json:"bounces"`                // Maximum ray bounces
	Clamp          float64 `toml:"clamp" json:"clamp"`                    // Per-sample radiance clamp
	Seed           uint64  `toml:"seed" json:"seed"`                      // Seed for the per-pixel RNG
	HighQualityBVH bool    `toml:"highquality_bvh" json:"highqualityBVH"` // Smaller BVH leaves
	PreviewRatio   int     `toml:"preview_ratio" json:"previewRatio"`     // Resolution divisor for previews
	TileSize       int     `toml:"tile_size" json:"tileSize"`             // Tile edge in pixels
	Workers        int     `toml:"workers" json:"workers"`                // Parallel workers (0 = CPU count)
	Exposure       float64 `toml:"exposure" json:"exposure"`              // Display exposure in stops

	// View
	Scenes    []string `toml:"scenes" json:"scenes"`       // Scene sources, loaded in order
	AddSky    bool     `toml:"addsky" json:"addsky"`       // Add a default sky before conversion
	Output    string   `toml:"output" json:"output"`       // Output image path
	SaveBatch bool     `toml:"savebatch" json:"savebatch"` // Save every scene in batch mode

	// Brush
	BrushWidth     int     `toml:"brush_width" json:"brushWidth"`
	BrushHeight    int     `toml:"brush_height" json:"brushHeight"`
	BrushThreshold float64 `toml:"brush_threshold" json:"brushThreshold"`
}

// Default returns sensible default values
func Default() Params {
	return Params{
		Camera:         "",
		Resolution:     720,
		Sampler:        "direct",
		Samples:        64,
		Bounces:        4,
		Clamp:          10,
		Seed:           961748941,
		HighQualityBVH: false,
		PreviewRatio:   2,
		TileSize:       64,
		Workers:        0,
		Exposure:       0,
		Scenes: []string{
			"builtin:cornell",
			"builtin:spheres",
			"builtin:materials",
		},
		AddSky:         false,
		Output:         "out.png",
		SaveBatch:      false,
		BrushWidth:     40,
		BrushHeight:    40,
		BrushThreshold: 0.5,
	}
}

// Clone returns a copy of p that shares no slices with it
func (p Params) Clone() Params {
	p.Scenes = slices.Clone(p.Scenes)
	return p
}

// Validate checks every parameter against its schema limits
func (p Params) Validate() error {
	for _, field := range Schema() {
		if err := field.check(p); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	if len(p.Scenes) == 0 {
		return fmt.Errorf("%w: scenes must not be empty", ErrInvalidParams)
	}
	return nil
}

// PreviewResolution returns the resolution used for low-sample previews
func (p Params) PreviewResolution() int {
	ratio := max(1, p.PreviewRatio)
	return max(1, p.Resolution/ratio)
}

// Load reads params from a TOML file. Keys missing from the file keep their
// default values.
func Load(path string) (Params, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read params %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode params %q: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("params %q: %w", path, err)
	}
	return p, nil
}

// Save writes params to a TOML file
func Save(path string, p Params) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write params %q: %w", path, err)
	}
	return nil
}
