package types

import "strings"

// Layout describes how tensor dimensions are ordered. It is descriptive only.
type Layout int

const (
	LayoutNone Layout = 0
	LayoutNCHW Layout = 1
	LayoutNHWC Layout = 2
)

// ParseLayout maps a model format string to a layout. Unknown values map to LayoutNone.
func ParseLayout(s string) Layout {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nchw":
		return LayoutNCHW
	case "nhwc":
		return LayoutNHWC
	default:
		return LayoutNone
	}
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	switch l {
	case LayoutNCHW:
		return "nchw"
	case LayoutNHWC:
		return "nhwc"
	default:
		return "none"
	}
}
