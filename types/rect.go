package types

import "fmt"

// Rect represents a rectangular region of interest in pixels.
//
// The zero value is an empty rectangle.
type Rect struct {
	// Origin is the top-left corner.
	Origin Dim2d `json:"origin" yaml:"origin"`
	// Size is the extent of the region.
	Size Dim2d `json:"size" yaml:"size"`
}

// NewRect creates a rectangle from its origin and size components.
func NewRect(x, y, width, height int) Rect {
	return Rect{Origin: Dim2d{X: x, Y: y}, Size: Dim2d{X: width, Y: height}}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Size.X == 0 || r.Size.Y == 0
}

// String implements fmt.Stringer.
func (r Rect) String() string {
	return fmt.Sprintf("Rect(origin=(%d, %d), size=(%d, %d))",
		r.Origin.X, r.Origin.Y, r.Size.X, r.Size.Y)
}

// Placement records where a letterboxed image was written inside an input tensor.
//
// The embedded Rect is the area of the tensor pixel grid covered by the resized,
// unpadded image content. Scale is the exact factor applied to the source image and
// Source is the size of the image before resizing. Detection postprocessing inverts
// the letterbox with (coord - Origin) / Scale.
type Placement struct {
	Rect
	// Scale is the resize factor applied to the source image.
	Scale float64 `json:"scale" yaml:"scale"`
	// Source is the size of the original image.
	Source Dim2d `json:"source" yaml:"source"`
}

// Empty reports whether the placement cannot be used to map coordinates back.
func (p Placement) Empty() bool {
	return p.Rect.Empty() || p.Scale <= 0
}

// String implements fmt.Stringer.
func (p Placement) String() string {
	return fmt.Sprintf("Placement(rect=%s, scale=%g, source=(%d, %d))",
		p.Rect, p.Scale, p.Source.X, p.Source.Y)
}
