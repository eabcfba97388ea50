package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-interactive-raytracer/pkg/core"
)

// displayGamma is applied when converting linear radiance for display
const displayGamma = 2.2

// Image is a linear float RGBA image
type Image struct {
	Width  int
	Height int
	Pix    []core.Vec4 // Row-major, Width*Height entries
}

// NewImage allocates a transparent black image
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]core.Vec4, width*height)}
}

// At returns the pixel at (x, y)
func (img *Image) At(x, y int) core.Vec4 {
	return img.Pix[y*img.Width+x]
}

// Set stores the pixel at (x, y)
func (img *Image) Set(x, y int, c core.Vec4) {
	img.Pix[y*img.Width+x] = c
}

// Bounds returns the image rectangle
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// Clone returns a deep copy
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height, Pix: make([]core.Vec4, len(img.Pix))}
	copy(out.Pix, img.Pix)
	return out
}

// RGBA converts the image for display: exposure scaling in stops, gamma
// correction and clamping. Alpha is preserved (premultiplied).
func (img *Image) RGBA(exposure float64) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	scale := math.Exp2(exposure)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.SetRGBA(x, y, toColor(img.At(x, y), scale))
		}
	}
	return out
}

// toColor converts a linear color to a gamma-corrected 8-bit color
func toColor(c core.Vec4, scale float64) color.RGBA {
	alpha := max(0, min(1, c.W))
	rgb := c.RGB().Multiply(scale)
	rgb = core.NewVec3(gamma(rgb.X), gamma(rgb.Y), gamma(rgb.Z)).Clamp(0, 1).Multiply(alpha)
	return color.RGBA{
		R: uint8(255*rgb.X + 0.5),
		G: uint8(255*rgb.Y + 0.5),
		B: uint8(255*rgb.Z + 0.5),
		A: uint8(255*alpha + 0.5),
	}
}

func gamma(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Pow(v, 1/displayGamma)
}

// Stats computes summary statistics of the image
func (img *Image) Stats() RenderStats {
	stats := RenderStats{
		TotalPixels:  len(img.Pix),
		MinLuminance: math.Inf(1),
	}
	if len(img.Pix) == 0 {
		stats.MinLuminance = 0
		return stats
	}

	sum := 0.0
	for _, p := range img.Pix {
		if p.W > 0 {
			stats.CoveredPixels++
		}
		luminance := p.RGB().Luminance()
		if math.IsNaN(luminance) || math.IsInf(luminance, 0) {
			stats.InvalidPixels++
			continue
		}
		if luminance == 0 {
			stats.BlackPixels++
		}
		sum += luminance
		stats.MinLuminance = min(stats.MinLuminance, luminance)
		stats.MaxLuminance = max(stats.MaxLuminance, luminance)
	}

	valid := stats.TotalPixels - stats.InvalidPixels
	if valid > 0 {
		stats.AverageLuminance = sum / float64(valid)
	} else {
		stats.MinLuminance = 0
	}
	return stats
}
