package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRuntime is returned when a non-positive runtime is assigned.
var ErrInvalidRuntime = errors.New("runtime minutes must be positive")

// earliestReleaseYear is the oldest release year accepted on construction.
const earliestReleaseYear = 1900

// Movie defines a catalogue movie. Rank is the externally assigned dataset
// position used as the repository lookup key; it does not participate in
// equality, which is by title and release year.
type Movie struct {
	Rank           int      `json:"rank"`
	Title          string   `json:"title"`
	ReleaseYear    int      `json:"release_year"`
	Description    string   `json:"description"`
	Director       Director `json:"director"`
	Actors         []*Actor `json:"actors"`
	Genres         []Genre  `json:"genres"`
	RuntimeMinutes int      `json:"runtime_minutes"`
	Rating         *float64 `json:"rating"`
	Votes          *int     `json:"votes"`
	Revenue        *float64 `json:"revenue"`
	Metascore      *int     `json:"metascore"`
}

// NewMovie creates a movie from a raw title and release year. An empty title
// stays empty and a year before 1900 normalizes to zero, matching the
// null-on-invalid construction rule of the rest of the domain.
func NewMovie(title string, year int) *Movie {
	m := &Movie{Title: strings.TrimSpace(title)}
	if year >= earliestReleaseYear {
		m.ReleaseYear = year
	}
	return m
}

// SetRuntimeMinutes assigns the runtime, rejecting non-positive values.
func (m *Movie) SetRuntimeMinutes(minutes int) error {
	if minutes < 1 {
		return ErrInvalidRuntime
	}
	m.RuntimeMinutes = minutes
	return nil
}

// Equal reports whether two movies share title and release year. Rank is
// deliberately excluded.
func (m *Movie) Equal(other *Movie) bool {
	if other == nil {
		return false
	}
	return m.Title == other.Title && m.ReleaseYear == other.ReleaseYear
}

// Less orders movies by title, then release year.
func (m *Movie) Less(other *Movie) bool {
	if m.Title != other.Title {
		return m.Title < other.Title
	}
	return m.ReleaseYear < other.ReleaseYear
}

// AddActor appends an actor to the cast.
func (m *Movie) AddActor(a *Actor) {
	if a == nil {
		return
	}
	m.Actors = append(m.Actors, a)
}

// RemoveActor removes the first matching actor, if present.
func (m *Movie) RemoveActor(a *Actor) {
	for i, existing := range m.Actors {
		if existing.Equal(a) {
			m.Actors = append(m.Actors[:i], m.Actors[i+1:]...)
			return
		}
	}
}

// AddGenre appends a genre.
func (m *Movie) AddGenre(g Genre) {
	m.Genres = append(m.Genres, g)
}

// RemoveGenre removes the first matching genre, if present.
func (m *Movie) RemoveGenre(g Genre) {
	for i, existing := range m.Genres {
		if existing.Equal(g) {
			m.Genres = append(m.Genres[:i], m.Genres[i+1:]...)
			return
		}
	}
}

// HasGenre reports whether the movie carries the given genre.
func (m *Movie) HasGenre(g Genre) bool {
	for _, existing := range m.Genres {
		if existing.Equal(g) {
			return true
		}
	}
	return false
}

func (m *Movie) String() string {
	return fmt.Sprintf("<Movie %s, %d>", m.Title, m.ReleaseYear)
}
