package config

import (
	"fmt"
	"slices"
)

// SamplerNames lists the samplers a session can be configured with
var SamplerNames = []string{"eyelight", "direct", "path"}

// Field describes one parameter for display layers that build property panels
type Field struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "int", "float", "bool", "string", "enum" or "list"
	Description string   `json:"description"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Choices     []string `json:"choices,omitempty"`

	number func(Params) float64
	text   func(Params) string
}

func limit(v float64) *float64 { return &v }

func intField(name, description string, lo, hi float64, get func(Params) int) Field {
	return Field{
		Name: name, Type: "int", Description: description,
		Min: limit(lo), Max: limit(hi),
		number: func(p Params) float64 { return float64(get(p)) },
	}
}

func floatField(name, description string, lo, hi float64, get func(Params) float64) Field {
	return Field{
		Name: name, Type: "float", Description: description,
		Min: limit(lo), Max: limit(hi),
		number: get,
	}
}

// Schema returns the parameter schema published to the display layer.
// Names match the JSON tags of Params.
func Schema() []Field {
	return []Field{
		{Name: "camera", Type: "string", Description: "Camera name"},
		intField("resolution", "Image resolution", 16, 8192, func(p Params) int { return p.Resolution }),
		{
			Name: "sampler", Type: "enum", Description: "Sampler type", Choices: SamplerNames,
			text: func(p Params) string { return p.Sampler },
		},
		intField("samples", "Number of samples", 1, 1<<16, func(p Params) int { return p.Samples }),
		intField("bounces", "Number of bounces", 1, 128, func(p Params) int { return p.Bounces }),
		floatField("clamp", "Clamp value", 0, 1e6, func(p Params) float64 { return p.Clamp }),
		{Name: "seed", Type: "int", Description: "Random seed"},
		{Name: "highqualityBVH", Type: "bool", Description: "Use high quality BVH"},
		intField("previewRatio", "Preview resolution divisor", 1, 64, func(p Params) int { return p.PreviewRatio }),
		intField("tileSize", "Tile size", 8, 1024, func(p Params) int { return p.TileSize }),
		intField("workers", "Parallel workers, 0 for CPU count", 0, 1024, func(p Params) int { return p.Workers }),
		floatField("exposure", "Display exposure", -20, 20, func(p Params) float64 { return p.Exposure }),
		{Name: "scenes", Type: "list", Description: "Scene filenames"},
		{Name: "addsky", Type: "bool", Description: "Add sky"},
		{Name: "output", Type: "string", Description: "Output filename"},
		{Name: "savebatch", Type: "bool", Description: "Save batch"},
		intField("brushWidth", "Brush width", 1, 4096, func(p Params) int { return p.BrushWidth }),
		intField("brushHeight", "Brush height", 1, 4096, func(p Params) int { return p.BrushHeight }),
		floatField("brushThreshold", "Brush threshold", 0, 1, func(p Params) float64 { return p.BrushThreshold }),
	}
}

// check validates the field's value in p
func (f Field) check(p Params) error {
	if f.number != nil {
		v := f.number(p)
		if (f.Min != nil && v < *f.Min) || (f.Max != nil && v > *f.Max) {
			return fmt.Errorf("%s must be between %g and %g, got: %g", f.Name, *f.Min, *f.Max, v)
		}
	}
	if f.text != nil && len(f.Choices) > 0 {
		v := f.text(p)
		if !slices.Contains(f.Choices, v) {
			return fmt.Errorf("%s must be one of %v, got: %q", f.Name, f.Choices, v)
		}
	}
	return nil
}
