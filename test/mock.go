package test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// MockFrameGenerator creates deterministic test images.
//
// @example
// gen := NewMockFrameGenerator(640, 480)
// img := gen.GenerateSquareFrame(100, 100, 50)
type MockFrameGenerator struct {
	width  int
	height int
	// Background is the fill of every generated frame.
	Background color.RGBA
	// Foreground is the fill of the square drawn by GenerateSquareFrame.
	Foreground color.RGBA
}

// NewMockFrameGenerator creates a new frame generator with specified dimensions.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// Returns:
// - A configured MockFrameGenerator instance with a mid-gray background.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{
		width:      width,
		height:     height,
		Background: color.RGBA{128, 128, 128, 255},
		Foreground: color.RGBA{255, 255, 255, 255},
	}
}

// GenerateStaticFrame creates a uniform frame filled with the background color.
func (g *MockFrameGenerator) GenerateStaticFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = g.Background.R, g.Background.G, g.Background.B, 255
	}
	return img
}

// GenerateSquareFrame creates a frame with a foreground square at (x, y).
//
// Arguments:
// - x: X coordinate of the square.
// - y: Y coordinate of the square.
// - size: Side of the square in pixels.
//
// Returns:
// - An RGBA frame.
func (g *MockFrameGenerator) GenerateSquareFrame(x, y, size int) *image.RGBA {
	img := g.GenerateStaticFrame()
	r := image.Rect(x, y, x+size, y+size).Intersect(img.Bounds())
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			img.SetRGBA(px, py, g.Foreground)
		}
	}
	return img
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
