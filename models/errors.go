package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingEntry is returned when a container lacks a required archive member.
	ErrMissingEntry = errors.New("missing entry")
	// ErrMalformed is returned for metadata that cannot be interpreted.
	ErrMalformed = errors.New("malformed metadata")
)

// InvalidModelError is the single error kind reported for any container that cannot be
// parsed. Field names the offending member or metadata path.
type InvalidModelError struct {
	Source string
	Field  string
	Err    error
}

func (e *InvalidModelError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid model %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("invalid model %s: %s: %v", e.Source, e.Field, e.Err)
}

func (e *InvalidModelError) Unwrap() error { return e.Err }

func invalid(source, field string, err error) *InvalidModelError {
	return &InvalidModelError{Source: source, Field: field, Err: err}
}
