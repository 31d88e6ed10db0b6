package types

import "github.com/pkg/errors"

// ErrOutOfRange is returned when an index falls outside a value's bounds.
var ErrOutOfRange = errors.New("index out of range")
