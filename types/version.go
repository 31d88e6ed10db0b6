package types

import "fmt"

// Version is a framework version triple.
type Version struct {
	Major    int `json:"major" yaml:"major"`
	Minor    int `json:"minor" yaml:"minor"`
	Subminor int `json:"subminor" yaml:"subminor"`
}

// String implements fmt.Stringer.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Subminor)
}
