package server

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"time"

	"golang.org/x/image/draw"

	"github.com/df07/go-interactive-raytracer/pkg/renderer"
)

// ProgressUpdate reports how many samples per pixel are done
type ProgressUpdate struct {
	Message string `json:"message"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// FrameUpdate is published after every completed pass and every preview
type FrameUpdate struct {
	Current   int    `json:"current"` // Samples per pixel, 0 for previews
	Total     int    `json:"total"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// CanvasUpdate carries the brush strokes on their own
type CanvasUpdate struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageData string `json:"imageData"` // Base64 encoded PNG with alpha
}

// Stats represents render statistics
type Stats struct {
	TotalPixels      int     `json:"totalPixels"`
	BlackPixels      int     `json:"blackPixels"`
	InvalidPixels    int     `json:"invalidPixels"`
	AverageLuminance float64 `json:"averageLuminance"`
	MinLuminance     float64 `json:"minLuminance"`
	MaxLuminance     float64 `json:"maxLuminance"`
}

func newStats(stats renderer.RenderStats) Stats {
	return Stats{
		TotalPixels:      stats.TotalPixels,
		BlackPixels:      stats.BlackPixels,
		InvalidPixels:    stats.InvalidPixels,
		AverageLuminance: stats.AverageLuminance,
		MinLuminance:     stats.MinLuminance,
		MaxLuminance:     stats.MaxLuminance,
	}
}

// Progress implements renderer.Observer
func (s *Server) Progress(message string, current, total int) {
	if current == 0 {
		s.mu.Lock()
		s.runStart = time.Now()
		s.mu.Unlock()
	}
	s.publish("progress", ProgressUpdate{Message: message, Current: current, Total: total})
}

// Update implements renderer.Observer. It publishes the render with the
// canvas composited on top as a "render" event, and the canvas alone as a
// "canvas" event.
func (s *Server) Update(render, canvas *renderer.Image, current, total int) {
	s.mu.Lock()
	exposure := s.exposure
	if current == 0 {
		s.runStart = time.Now()
	}
	elapsed := time.Since(s.runStart)
	s.mu.Unlock()

	frame := composeFrame(render, canvas, exposure)
	imageData, err := imageToBase64PNG(frame)
	if err != nil {
		s.logger.Error("failed to encode frame", "error", err)
		return
	}

	msg, err := newEvent("render", FrameUpdate{
		Current:   current,
		Total:     total,
		Width:     frame.Bounds().Dx(),
		Height:    frame.Bounds().Dy(),
		ImageData: imageData,
		Stats:     newStats(render.Stats()),
		ElapsedMs: elapsed.Milliseconds(),
	})
	if err != nil {
		s.logger.Error("failed to encode frame event", "error", err)
		return
	}
	s.mu.Lock()
	s.lastFrame = msg
	s.mu.Unlock()
	s.hub.broadcast(msg)

	if canvas == nil || s.hub.count() == 0 {
		return
	}
	canvasData, err := imageToBase64PNG(canvas.RGBA(0))
	if err != nil {
		s.logger.Error("failed to encode canvas", "error", err)
		return
	}
	s.publish("canvas", CanvasUpdate{Width: canvas.Width, Height: canvas.Height, ImageData: canvasData})
}

// composeFrame tone maps the render, scales it to the canvas size and draws
// the canvas over it. Previews are rendered smaller than the canvas.
func composeFrame(render, canvas *renderer.Image, exposure float64) *image.RGBA {
	base := render.RGBA(exposure)
	if canvas == nil || canvas.Width == 0 || canvas.Height == 0 {
		return base
	}

	frame := image.NewRGBA(canvas.Bounds())
	if base.Bounds() == frame.Bounds() {
		draw.Draw(frame, frame.Bounds(), base, image.Point{}, draw.Src)
	} else {
		draw.BiLinear.Scale(frame, frame.Bounds(), base, base.Bounds(), draw.Src, nil)
	}
	draw.Draw(frame, frame.Bounds(), canvas.RGBA(0), image.Point{}, draw.Over)
	return frame
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
