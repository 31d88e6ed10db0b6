// Package postprocess - Turns network outputs into classification and detection results.
package postprocess

import "github.com/pkg/errors"

var (
	// ErrNoOutputs is returned when the output collection is empty.
	ErrNoOutputs = errors.New("no output tensors")
	// ErrNoClasses is returned when a classification output holds no scores.
	ErrNoClasses = errors.New("no classes in output tensor")
	// ErrEmptyPlacement is returned when detections cannot be mapped back to the source
	// image because no valid placement was supplied.
	ErrEmptyPlacement = errors.New("empty placement rectangle")
	// ErrShapeMismatch is returned when output tensors do not match the detection encoding.
	ErrShapeMismatch = errors.New("output tensors do not match detection format")
)
