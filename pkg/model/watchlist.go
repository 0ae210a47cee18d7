package model

import (
	"errors"
	"sort"
	"strings"
)

// DefaultWatchListName is used when a watchlist is created with a blank name.
const DefaultWatchListName = "New Watchlist"

// ErrInvalidOwner is returned when a watchlist is created without an owner.
var ErrInvalidOwner = errors.New("a watchlist requires a valid owner")

// WatchList is a named, ordered, de-duplicated list of movies owned by one
// user. Membership is decided by Movie.Equal, so two ranks sharing a title
// and year count as the same entry.
type WatchList struct {
	Owner *User
	Name  string

	movies []*Movie
}

// NewWatchList creates a watchlist for the given owner. A blank name falls
// back to DefaultWatchListName.
func NewWatchList(owner *User, name string) (*WatchList, error) {
	if owner == nil {
		return nil, ErrInvalidOwner
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultWatchListName
	}
	return &WatchList{Owner: owner, Name: name}, nil
}

// Add appends a movie unless an equal one is already listed.
func (w *WatchList) Add(m *Movie) {
	if m == nil {
		return
	}
	for _, existing := range w.movies {
		if existing.Equal(m) {
			return
		}
	}
	w.movies = append(w.movies, m)
}

// Remove deletes the first equal movie, if present.
func (w *WatchList) Remove(m *Movie) {
	for i, existing := range w.movies {
		if existing.Equal(m) {
			w.movies = append(w.movies[:i], w.movies[i+1:]...)
			return
		}
	}
}

// Select returns the movie at the given position, or nil when out of range.
func (w *WatchList) Select(index int) *Movie {
	if index < 0 || index >= len(w.movies) {
		return nil
	}
	return w.movies[index]
}

// Size returns the number of listed movies.
func (w *WatchList) Size() int {
	return len(w.movies)
}

// First returns the first listed movie, or nil for an empty list.
func (w *WatchList) First() *Movie {
	if len(w.movies) == 0 {
		return nil
	}
	return w.movies[0]
}

// Movies returns the listed movies in order.
func (w *WatchList) Movies() []*Movie {
	return w.movies
}

// Clear removes every movie.
func (w *WatchList) Clear() {
	w.movies = nil
}

// Rename changes the watchlist name, ignoring blank input.
func (w *WatchList) Rename(name string) {
	name = strings.TrimSpace(name)
	if name != "" {
		w.Name = name
	}
}

// SortedByTitle returns a new slice ordered by title; the list itself is not
// mutated.
func (w *WatchList) SortedByTitle() []*Movie {
	return w.sortedBy(func(a, b *Movie) bool { return a.Title < b.Title })
}

// SortedByYear returns a new slice ordered by release year.
func (w *WatchList) SortedByYear() []*Movie {
	return w.sortedBy(func(a, b *Movie) bool { return a.ReleaseYear < b.ReleaseYear })
}

// SortedByRuntime returns a new slice ordered by runtime minutes.
func (w *WatchList) SortedByRuntime() []*Movie {
	return w.sortedBy(func(a, b *Movie) bool { return a.RuntimeMinutes < b.RuntimeMinutes })
}

func (w *WatchList) sortedBy(less func(a, b *Movie) bool) []*Movie {
	out := make([]*Movie, len(w.movies))
	copy(out, w.movies)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Share creates a new watchlist for another user holding the same movie
// references.
func (w *WatchList) Share(user *User) (*WatchList, error) {
	shared, err := NewWatchList(user, "")
	if err != nil {
		return nil, err
	}
	for _, m := range w.movies {
		shared.Add(m)
	}
	return shared, nil
}

// Recommendations builds a "Movie Recommendations" watchlist from the given
// candidates: a candidate qualifies when its genre set equals the genre set
// of some listed movie.
func (w *WatchList) Recommendations(candidates []*Movie) (*WatchList, error) {
	if len(w.movies) == 0 {
		return nil, errors.New("no recommendations for an empty watchlist")
	}
	recommended, err := NewWatchList(w.Owner, "Movie Recommendations")
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates {
		for _, listed := range w.movies {
			if sameGenreSet(candidate.Genres, listed.Genres) {
				recommended.Add(candidate)
				break
			}
		}
	}
	return recommended, nil
}

func sameGenreSet(a, b []Genre) bool {
	if len(a) != len(b) {
		return false
	}
	as := sortedGenreNames(a)
	bs := sortedGenreNames(b)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func sortedGenreNames(genres []Genre) []string {
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	sort.Strings(names)
	return names
}
