package model

import "strings"

// Actor defines a movie actor. The colleague list is a directed
// "worked with" relation: adding b to a does not add a to b.
type Actor struct {
	FullName string `json:"actor_full_name"`

	colleagues []*Actor
}

// NewActor creates an actor from a raw name, trimming whitespace.
func NewActor(fullName string) *Actor {
	return &Actor{FullName: strings.TrimSpace(fullName)}
}

// Equal reports whether two actors carry the same name, case-sensitive.
func (a *Actor) Equal(other *Actor) bool {
	if other == nil {
		return false
	}
	return a.FullName == other.FullName
}

// Less orders actors by name.
func (a *Actor) Less(other *Actor) bool {
	return a.FullName < other.FullName
}

// AddColleague records that this actor worked with another one.
func (a *Actor) AddColleague(colleague *Actor) {
	if colleague == nil {
		return
	}
	a.colleagues = append(a.colleagues, colleague)
}

// WorkedWith reports whether the given actor was recorded as a colleague.
func (a *Actor) WorkedWith(colleague *Actor) bool {
	for _, c := range a.colleagues {
		if c.Equal(colleague) {
			return true
		}
	}
	return false
}

// Colleagues returns the recorded colleague list.
func (a *Actor) Colleagues() []*Actor {
	return a.colleagues
}

func (a *Actor) String() string {
	return "<Actor " + a.FullName + ">"
}
