package types

import "fmt"

// DefaultVisibility is the visibility of a landmark whose model reports none.
const DefaultVisibility float32 = -1.0

// Landmark represents a 3D keypoint.
type Landmark struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
	// Visibility is metadata and does not take part in equality.
	Visibility float32 `json:"visibility" yaml:"visibility"`
}

// NewLandmark creates a landmark at the given coordinates with default visibility.
func NewLandmark(x, y, z int) Landmark {
	return Landmark{X: x, Y: y, Z: z, Visibility: DefaultVisibility}
}

// Equal compares coordinates only.
func (l Landmark) Equal(o Landmark) bool {
	return l.X == o.X && l.Y == o.Y && l.Z == o.Z
}

// String implements fmt.Stringer.
func (l Landmark) String() string {
	return fmt.Sprintf("Landmark(x=%d, y=%d, z=%d, visibility=%g)", l.X, l.Y, l.Z, l.Visibility)
}
