package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// Mask represents an instance segmentation as a dense row-major grid.
type Mask struct {
	width  int
	height int
	data   []float32
}

// NewMask creates a zero-filled mask. Negative dimensions are treated as zero.
func NewMask(width, height int) Mask {
	width, height = max(width, 0), max(height, 0)
	return Mask{width: width, height: height, data: make([]float32, width*height)}
}

// Width returns the mask width in pixels.
func (m Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m Mask) Height() int { return m.height }

// Empty reports whether the mask has no pixels.
func (m Mask) Empty() bool { return m.width == 0 || m.height == 0 }

// SetValue sets the pixel at (row, col).
//
// Arguments:
//   - row: The row index, must be < Height().
//   - col: The column index, must be < Width().
//   - val: The value to store.
//
// Returns:
//   - error: ErrOutOfRange when the coordinates are outside the mask.
func (m Mask) SetValue(row, col int, val float32) error {
	if row < 0 || col < 0 || row >= m.height || col >= m.width {
		return errors.Wrapf(ErrOutOfRange, "mask (%d, %d) in %dx%d", row, col, m.width, m.height)
	}
	m.data[row*m.width+col] = val
	return nil
}

// Buffer returns the mask values in row-major order.
func (m Mask) Buffer() []float32 { return m.data }

// String implements fmt.Stringer.
func (m Mask) String() string {
	return fmt.Sprintf("Mask(width=%d, height=%d)", m.width, m.height)
}
