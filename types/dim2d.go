package types

import "fmt"

// Dim2d represents a two-dimensional size or position.
type Dim2d struct {
	// X is the width or horizontal component.
	X int `json:"x" yaml:"x"`
	// Y is the height or vertical component.
	Y int `json:"y" yaml:"y"`
}

// Add returns the componentwise sum of d and o.
func (d Dim2d) Add(o Dim2d) Dim2d {
	return Dim2d{X: d.X + o.X, Y: d.Y + o.Y}
}

// String implements fmt.Stringer.
func (d Dim2d) String() string {
	return fmt.Sprintf("Dim2d(x=%d, y=%d)", d.X, d.Y)
}
