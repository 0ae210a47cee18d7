package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDirector(t *testing.T) {
	d := NewDirector("  Taika Waititi ")
	assert.Equal(t, "Taika Waititi", d.FullName)
	assert.Equal(t, "<Director Taika Waititi>", d.String())

	assert.Empty(t, NewDirector("").FullName)
	assert.False(t, NewDirector("b").Equal(NewDirector("B")), "equality is case-sensitive")
	assert.True(t, NewDirector("Brad Pitt").Less(NewDirector("Cameron Diaz")))
}

func TestGenre(t *testing.T) {
	g := NewGenre(" Comedy ")
	assert.Equal(t, "Comedy", g.Name)
	assert.Empty(t, NewGenre("  ").Name)
	assert.True(t, NewGenre("Action").Less(NewGenre("Comedy")))
}

func TestActorColleagues(t *testing.T) {
	a1 := NewActor("Taika Waititi")
	a2 := NewActor("Bob bob")
	a1.AddColleague(a2)

	assert.True(t, a1.WorkedWith(a2))
	assert.False(t, a2.WorkedWith(a1), "the relation is directed")
	assert.Len(t, a1.Colleagues(), 1)
}

func TestNewMovieNormalization(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		year      int
		wantTitle string
		wantYear  int
	}{
		{name: "valid", title: "Moana", year: 2016, wantTitle: "Moana", wantYear: 2016},
		{name: "trims title", title: "  Moana ", year: 2016, wantTitle: "Moana", wantYear: 2016},
		{name: "too early year", title: "wow", year: 1899, wantTitle: "wow", wantYear: 0},
		{name: "empty title", title: "", year: 2016, wantTitle: "", wantYear: 2016},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMovie(tt.title, tt.year)
			assert.Equal(t, tt.wantTitle, m.Title)
			assert.Equal(t, tt.wantYear, m.ReleaseYear)
		})
	}
}

func TestMovieEqualityIgnoresRank(t *testing.T) {
	m1 := NewMovie("wow", 2016)
	m2 := NewMovie("wow", 2016)
	m1.Rank = 1
	m2.Rank = 500

	assert.True(t, m1.Equal(m2))

	m3 := NewMovie("wow", 1899)
	assert.False(t, m1.Equal(m3))
	assert.True(t, NewMovie("", 0).Less(NewMovie("x", 0)))
}

func TestMovieRuntime(t *testing.T) {
	m := NewMovie("wow", 2016)
	assert.ErrorIs(t, m.SetRuntimeMinutes(0), ErrInvalidRuntime)
	assert.NoError(t, m.SetRuntimeMinutes(107))
	assert.Equal(t, 107, m.RuntimeMinutes)
}

func TestMovieCastAndGenres(t *testing.T) {
	m := NewMovie("wow", 2016)
	a := NewActor("a")
	m.AddActor(a)
	m.AddActor(NewActor("b"))
	m.RemoveActor(a)
	assert.Len(t, m.Actors, 1)
	assert.Equal(t, "b", m.Actors[0].FullName)

	m.AddGenre(NewGenre("Comedy"))
	assert.True(t, m.HasGenre(NewGenre("Comedy")))
	m.RemoveGenre(NewGenre("Comedy"))
	assert.False(t, m.HasGenre(NewGenre("Comedy")))
}

func TestReviewConstruction(t *testing.T) {
	movie := NewMovie("Moana", 2016)

	r := NewReview(movie, " Great film ", 8)
	assert.Equal(t, "Great film", r.Text)
	assert.Equal(t, 8, r.Rating)
	assert.WithinDuration(t, time.Now(), r.Timestamp, time.Second)

	invalid := NewReview(nil, "text", 11)
	assert.Nil(t, invalid.Movie)
	assert.Zero(t, invalid.Rating)
}

func TestReviewEquality(t *testing.T) {
	movie := NewMovie("Moana", 2016)
	r1 := NewReview(movie, "x", 5)
	r2 := &Review{Movie: movie, Text: "x", Rating: 5, Timestamp: r1.Timestamp}
	assert.True(t, r1.Equal(r2))

	r3 := NewReview(movie, "x", 5)
	r3.Timestamp = r1.Timestamp.Add(time.Minute)
	assert.False(t, r1.Equal(r3))
}

func TestUserNormalization(t *testing.T) {
	u := NewUser(" Martin ", "pw12345")
	assert.Equal(t, "martin", u.Username)
	assert.Equal(t, "<User martin>", u.String())
	assert.True(t, NewUser("a", "x").Less(NewUser("b", "y")))
	assert.False(t, NewUser("a", "x").Equal(NewUser("b", "y")))
}

func TestUserWatchMovie(t *testing.T) {
	u := NewUser("martin", "pw12345")
	m := NewMovie("Moana", 2016)
	assert.NoError(t, m.SetRuntimeMinutes(107))

	u.WatchMovie(m)
	u.WatchMovie(m)

	assert.Len(t, u.WatchedMovies, 2, "no dedup guard on watching")
	assert.Equal(t, 214, u.TimeSpentWatchingMovies)
	assert.True(t, u.HasWatched(m))
}

func TestUserReviews(t *testing.T) {
	u := NewUser("martin", "pw12345")
	r := NewReview(NewMovie("Moana", 2016), "good", 8)
	u.AddReview(r)
	assert.True(t, u.HasReview(r))
	assert.Len(t, u.Reviews, 1)
}
