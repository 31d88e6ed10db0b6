package tensor

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/types"
)

// Quantization holds affine quantization parameters.
//
// A real value v is stored as clamp(round(v/Scale) + ZeroPoint) and read back as
// (raw - ZeroPoint) * Scale.
type Quantization struct {
	Scale     float32 `json:"scale" yaml:"scale"`
	ZeroPoint int32   `json:"zero_point" yaml:"zero_point"`
}

// Normalization describes the input normalization applied to pixel values before
// encoding: (p - Means[c]) / Scale.
type Normalization struct {
	Means []float32 `json:"means" yaml:"means"`
	Scale float32   `json:"scale" yaml:"scale"`
}

// Mean returns the mean for channel c. A single mean applies to all channels.
func (n *Normalization) Mean(c int) float32 {
	switch {
	case len(n.Means) == 0:
		return 0
	case len(n.Means) == 1:
		return n.Means[0]
	case c < len(n.Means):
		return n.Means[c]
	default:
		return 0
	}
}

// Apply normalizes the pixel value p of channel c.
func (n *Normalization) Apply(p float32, c int) float32 {
	return (p - n.Mean(c)) / n.Scale
}

func (q *Quantization) validate(dt types.DataType) error {
	if dt.IsFloat() {
		return errors.Wrapf(ErrInvalidTensor, "quantization on %s", dt)
	}
	if !(q.Scale > 0) {
		return errors.Wrapf(ErrInvalidTensor, "quantization scale %g", q.Scale)
	}
	return nil
}

func (n *Normalization) validate() error {
	if !(n.Scale > 0) {
		return errors.Wrapf(ErrInvalidTensor, "normalization scale %g", n.Scale)
	}
	return nil
}
