package renderer

// RenderStats contains statistics about an image
type RenderStats struct {
	TotalPixels      int     // Total number of pixels
	CoveredPixels    int     // Pixels with non-zero alpha
	BlackPixels      int     // Pixels with zero luminance
	InvalidPixels    int     // Pixels with NaN or infinite luminance
	AverageLuminance float64 // Mean luminance of valid pixels
	MinLuminance     float64 // Minimum luminance of valid pixels
	MaxLuminance     float64 // Maximum luminance of valid pixels
}
