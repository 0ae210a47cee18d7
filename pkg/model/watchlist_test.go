package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatchList(t *testing.T) *WatchList {
	t.Helper()
	w, err := NewWatchList(NewUser("martin", "pw12345"), "")
	require.NoError(t, err)
	return w
}

func moanaLikeMovies(t *testing.T) (*Movie, *Movie, *Movie) {
	t.Helper()
	m1 := NewMovie("Moana", 2016)
	require.NoError(t, m1.SetRuntimeMinutes(107))
	m2 := NewMovie("Arrival", 2016)
	require.NoError(t, m2.SetRuntimeMinutes(116))
	m3 := NewMovie("Alien", 1979)
	require.NoError(t, m3.SetRuntimeMinutes(117))
	return m1, m2, m3
}

func TestWatchListRequiresOwner(t *testing.T) {
	_, err := NewWatchList(nil, "mine")
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestWatchListDefaultName(t *testing.T) {
	w := newTestWatchList(t)
	assert.Equal(t, DefaultWatchListName, w.Name)

	w.Rename("  ")
	assert.Equal(t, DefaultWatchListName, w.Name, "blank rename is ignored")
	w.Rename("Sci-fi nights")
	assert.Equal(t, "Sci-fi nights", w.Name)
}

func TestWatchListAddRemove(t *testing.T) {
	w := newTestWatchList(t)
	m1, m2, _ := moanaLikeMovies(t)

	w.Add(m1)
	w.Add(m1)
	w.Add(m2)
	assert.Equal(t, 2, w.Size(), "membership is de-duplicated")

	w.Remove(m1)
	assert.Equal(t, 1, w.Size())
	assert.True(t, w.First().Equal(m2))

	w.Remove(m1) // absent, no-op
	assert.Equal(t, 1, w.Size())
}

func TestWatchListSelect(t *testing.T) {
	w := newTestWatchList(t)
	m1, m2, _ := moanaLikeMovies(t)
	w.Add(m1)
	w.Add(m2)

	assert.True(t, w.Select(0).Equal(m1))
	assert.True(t, w.Select(1).Equal(m2))
	assert.Nil(t, w.Select(2))
	assert.Nil(t, w.Select(-1))
}

func TestWatchListClearAndFirst(t *testing.T) {
	w := newTestWatchList(t)
	assert.Nil(t, w.First())

	m1, _, _ := moanaLikeMovies(t)
	w.Add(m1)
	w.Clear()
	assert.Zero(t, w.Size())
}

func TestWatchListSortedViews(t *testing.T) {
	w := newTestWatchList(t)
	m1, m2, m3 := moanaLikeMovies(t)
	w.Add(m1)
	w.Add(m2)
	w.Add(m3)

	byTitle := w.SortedByTitle()
	assert.Equal(t, []string{"Alien", "Arrival", "Moana"}, titles(byTitle))

	byYear := w.SortedByYear()
	assert.Equal(t, 1979, byYear[0].ReleaseYear)

	byRuntime := w.SortedByRuntime()
	assert.Equal(t, 107, byRuntime[0].RuntimeMinutes)

	// the list itself keeps insertion order
	assert.Equal(t, []string{"Moana", "Arrival", "Alien"}, titles(w.Movies()))
}

func TestWatchListShare(t *testing.T) {
	w := newTestWatchList(t)
	m1, m2, _ := moanaLikeMovies(t)
	w.Add(m1)
	w.Add(m2)

	other := NewUser("ian", "pw67890")
	shared, err := w.Share(other)
	assert.NoError(t, err)
	assert.Equal(t, other, shared.Owner)
	assert.Equal(t, DefaultWatchListName, shared.Name)
	assert.Equal(t, 2, shared.Size())

	_, err = w.Share(nil)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestWatchListRecommendations(t *testing.T) {
	w := newTestWatchList(t)
	listed := NewMovie("Moana", 2016)
	listed.AddGenre(NewGenre("Animation"))
	listed.AddGenre(NewGenre("Comedy"))
	w.Add(listed)

	match := NewMovie("Zootopia", 2016)
	match.AddGenre(NewGenre("Comedy"))
	match.AddGenre(NewGenre("Animation"))

	miss := NewMovie("Alien", 1979)
	miss.AddGenre(NewGenre("Horror"))

	recommended, err := w.Recommendations([]*Movie{match, miss})
	assert.NoError(t, err)
	assert.Equal(t, "Movie Recommendations", recommended.Name)
	assert.Equal(t, 1, recommended.Size())
	assert.True(t, recommended.First().Equal(match), "genre sets match regardless of order")
}

func TestWatchListRecommendationsEmpty(t *testing.T) {
	w := newTestWatchList(t)
	_, err := w.Recommendations(nil)
	assert.Error(t, err)
}

func titles(movies []*Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}
