package model

import "strings"

// Genre defines a movie genre, keyed by name.
type Genre struct {
	Name string `json:"genre_name"`
}

// NewGenre creates a genre from a raw name, trimming whitespace.
func NewGenre(name string) Genre {
	return Genre{Name: strings.TrimSpace(name)}
}

// Equal reports whether two genres carry the same name, case-sensitive.
func (g Genre) Equal(other Genre) bool {
	return g.Name == other.Name
}

// Less orders genres by name.
func (g Genre) Less(other Genre) bool {
	return g.Name < other.Name
}

func (g Genre) String() string {
	return "<Genre " + g.Name + ">"
}
