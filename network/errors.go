package network

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-synap/models"
)

var (
	// ErrLoad matches every error returned by Load and LoadBytes.
	ErrLoad = errors.New("unable to load model")
	// ErrPredict matches every error returned by Predict.
	ErrPredict = errors.New("failed to predict")
)

// LoadError reports a failed load. Source is the file path, or "memory (N bytes)" for
// containers loaded from memory.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if strings.HasPrefix(e.Source, "memory (") {
		return fmt.Sprintf("Unable to load model from %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("Unable to load model from file %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes every LoadError match ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// PredictError reports a failed prediction and wraps its cause.
type PredictError struct {
	Err error
}

func (e *PredictError) Error() string { return "Failed to predict: " + e.Err.Error() }

func (e *PredictError) Unwrap() error { return e.Err }

// Is makes every PredictError match ErrPredict.
func (e *PredictError) Is(target error) bool { return target == ErrPredict }

func loadError(source string, err error) error {
	return &LoadError{Source: source, Err: err}
}

func memorySource(blob []byte) string { return models.MemorySource(len(blob)) }
