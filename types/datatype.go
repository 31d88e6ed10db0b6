package types

import (
	"strings"

	"github.com/pkg/errors"
)

// DataType is the element type of a tensor.
type DataType int

const (
	Invalid DataType = iota
	Byte
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float16
	Float32
)

// ErrInvalidDataType is returned when an operation needs a concrete element type.
var ErrInvalidDataType = errors.New("invalid data type")

var dataTypeNames = [...]string{
	Invalid: "invalid",
	Byte:    "byte",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Float16: "float16",
	Float32: "float32",
}

// ByteWidth returns the size in bytes of one element.
func (d DataType) ByteWidth() (int, error) {
	switch d {
	case Byte, Int8, Uint8:
		return 1, nil
	case Int16, Uint16, Float16:
		return 2, nil
	case Int32, Uint32, Float32:
		return 4, nil
	case Invalid:
		return 0, errors.Wrap(ErrInvalidDataType, "no byte width")
	}
	return 0, errors.Wrapf(ErrInvalidDataType, "unknown data type %d", int(d))
}

// IsFloat reports whether the type is floating point.
func (d DataType) IsFloat() bool { return d == Float16 || d == Float32 }

// IsSigned reports whether the type is a signed integer.
func (d DataType) IsSigned() bool { return d == Int8 || d == Int16 || d == Int32 }

// IsUnsigned reports whether the type is an unsigned integer. Byte counts as unsigned.
func (d DataType) IsUnsigned() bool {
	return d == Byte || d == Uint8 || d == Uint16 || d == Uint32
}

// String implements fmt.Stringer.
func (d DataType) String() string {
	if d < 0 || int(d) >= len(dataTypeNames) {
		return "invalid"
	}
	return dataTypeNames[d]
}

// ParseDataType returns the data type with the given name.
func ParseDataType(name string) (DataType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range dataTypeNames {
		if i != int(Invalid) && n == name {
			return DataType(i), nil
		}
	}
	return Invalid, errors.Wrapf(ErrInvalidDataType, "%q", name)
}
