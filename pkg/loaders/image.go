package loaders

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/df07/go-interactive-raytracer/pkg/authoring"
)

// LoadImage loads a PNG, JPEG, BMP, TIFF or WebP image as an LDR texture
func LoadImage(filename string) (*authoring.Texture, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Decode image (auto-detects the format from the file header)
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	texture := &authoring.Texture{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		LDR:    make([]color.RGBA, bounds.Dx()*bounds.Dy()),
	}
	for y := 0; y < texture.Height; y++ {
		for x := 0; x < texture.Width; x++ {
			c := rgba.NRGBAAt(x, y)
			texture.LDR[y*texture.Width+x] = color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	return texture, nil
}

// SavePNG writes img to path as a PNG file
func SavePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return file.Close()
}
