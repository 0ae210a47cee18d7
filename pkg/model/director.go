package model

import "strings"

// Director defines a movie director. An invalid (empty) name normalizes to
// the zero value.
type Director struct {
	FullName string `json:"director_full_name"`
}

// NewDirector creates a director from a raw name, trimming whitespace.
func NewDirector(fullName string) Director {
	return Director{FullName: strings.TrimSpace(fullName)}
}

// Equal reports whether two directors carry the same name, case-sensitive.
func (d Director) Equal(other Director) bool {
	return d.FullName == other.FullName
}

// Less orders directors by name.
func (d Director) Less(other Director) bool {
	return d.FullName < other.FullName
}

func (d Director) String() string {
	return "<Director " + d.FullName + ">"
}
