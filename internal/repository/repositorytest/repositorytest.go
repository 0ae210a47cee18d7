// Package repositorytest runs the storage contract against a backend. Both
// the memory and the database repositories must behave identically for
// everything the battery covers.
package repositorytest

import (
	"context"
	"testing"

	"moviecatalog/internal/repository"
	"moviecatalog/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a fresh, empty repository per subtest.
type Factory func(t *testing.T) repository.Repository

// Run exercises the storage contract against the given backend.
func Run(t *testing.T, newRepo Factory) {
	t.Run("directors", func(t *testing.T) { testDirectors(t, newRepo(t)) })
	t.Run("genres", func(t *testing.T) { testGenres(t, newRepo(t)) })
	t.Run("actors", func(t *testing.T) { testActors(t, newRepo(t)) })
	t.Run("movies", func(t *testing.T) { testMovies(t, newRepo(t)) })
	t.Run("movie ordering", func(t *testing.T) { testMovieOrdering(t, newRepo(t)) })
	t.Run("genre search", func(t *testing.T) { testGenreSearch(t, newRepo(t)) })
	t.Run("reviews", func(t *testing.T) { testReviews(t, newRepo(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newRepo(t)) })
}

func testDirectors(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.AddDirector(ctx, model.NewDirector("Taika Waititi")))
	require.NoError(t, repo.AddDirector(ctx, model.NewDirector("Taika Waititi")))

	d, err := repo.GetDirector(ctx, "Taika Waititi")
	require.NoError(t, err)
	assert.Equal(t, "Taika Waititi", d.FullName)

	_, err = repo.GetDirector(ctx, "Nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testGenres(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	for _, name := range []string{"Action", "Comedy", "Action", "Horror"} {
		require.NoError(t, repo.AddGenre(ctx, model.NewGenre(name)))
	}
	genres, err := repo.GetGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Genre{{Name: "Action"}, {Name: "Comedy"}, {Name: "Horror"}}, genres)
}

func testActors(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.AddActor(ctx, model.NewActor("Angelina Jolie")))
	require.NoError(t, repo.AddActor(ctx, model.NewActor("Angelina Jolie")))

	a, err := repo.GetActor(ctx, "Angelina Jolie")
	require.NoError(t, err)
	assert.Equal(t, "Angelina Jolie", a.FullName)

	_, err = repo.GetActor(ctx, "Nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testMovies(t *testing.T, repo repository.Repository) {
	ctx := context.Background()

	_, err := repo.GetFirstMovie(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetLastMovie(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rating := 8.1
	votes := 757074
	movie := model.NewMovie("Guardians of the Galaxy", 2014)
	movie.Rank = 1
	movie.Description = "A group of intergalactic criminals."
	movie.Director = model.NewDirector("James Gunn")
	movie.AddActor(model.NewActor("Chris Pratt"))
	movie.AddActor(model.NewActor("Vin Diesel"))
	movie.AddGenre(model.NewGenre("Action"))
	movie.AddGenre(model.NewGenre("Sci-Fi"))
	require.NoError(t, movie.SetRuntimeMinutes(121))
	movie.Rating = &rating
	movie.Votes = &votes
	// Revenue and Metascore stay nil, as an N/A dataset row leaves them.

	require.NoError(t, repo.AddDirector(ctx, movie.Director))
	for _, g := range movie.Genres {
		require.NoError(t, repo.AddGenre(ctx, g))
	}
	for _, a := range movie.Actors {
		require.NoError(t, repo.AddActor(ctx, a))
	}
	require.NoError(t, repo.AddMovie(ctx, movie))

	got, err := repo.GetMovie(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Guardians of the Galaxy", got.Title)
	assert.Equal(t, 2014, got.ReleaseYear)
	assert.Equal(t, "A group of intergalactic criminals.", got.Description)
	assert.Equal(t, "James Gunn", got.Director.FullName)
	assert.Equal(t, 121, got.RuntimeMinutes)
	require.Len(t, got.Actors, 2)
	assert.Equal(t, "Chris Pratt", got.Actors[0].FullName)
	assert.Equal(t, "Vin Diesel", got.Actors[1].FullName)
	require.Len(t, got.Genres, 2)
	assert.Equal(t, "Action", got.Genres[0].Name)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 8.1, *got.Rating)
	require.NotNil(t, got.Votes)
	assert.Equal(t, 757074, *got.Votes)
	assert.Nil(t, got.Revenue)
	assert.Nil(t, got.Metascore)

	_, err = repo.GetMovie(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := repo.GetNumberOfMovies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testMovieOrdering(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	for rank, title := range []string{"First", "Second", "Third"} {
		m := model.NewMovie(title, 2001+rank)
		m.Rank = rank + 1
		require.NoError(t, m.SetRuntimeMinutes(91+rank))
		require.NoError(t, repo.AddMovie(ctx, m))
	}

	first, err := repo.GetFirstMovie(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Rank)
	last, err := repo.GetLastMovie(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, last.Rank)

	// Requested order wins over stored order; unknown ranks are skipped.
	movies, err := repo.GetMoviesByRank(ctx, []int{3, 42, 1})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Third", movies[0].Title)
	assert.Equal(t, "First", movies[1].Title)
}

func testGenreSearch(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	action := model.NewGenre("Action")
	drama := model.NewGenre("Drama")
	require.NoError(t, repo.AddGenre(ctx, action))
	require.NoError(t, repo.AddGenre(ctx, drama))

	for _, rank := range []int{3, 1, 2} {
		m := model.NewMovie("Movie", 2000+rank)
		m.Rank = rank
		require.NoError(t, m.SetRuntimeMinutes(100))
		if rank != 2 {
			m.AddGenre(action)
		}
		require.NoError(t, repo.AddMovie(ctx, m))
	}

	ranks, err := repo.GetMovieRanksForGenre(ctx, "Action")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ranks)

	ranks, err = repo.GetMovieRanksForGenre(ctx, "Drama")
	require.NoError(t, err)
	require.NotNil(t, ranks)
	assert.Empty(t, ranks)

	ranks, err = repo.GetMovieRanksForGenre(ctx, "Western")
	require.NoError(t, err)
	require.NotNil(t, ranks)
	assert.Empty(t, ranks)
}

func testReviews(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	movie := model.NewMovie("Sing", 2016)
	movie.Rank = 1
	require.NoError(t, movie.SetRuntimeMinutes(108))
	require.NoError(t, repo.AddMovie(ctx, movie))

	err := repo.AddReview(ctx, model.NewReview(nil, "no movie", 5))
	assert.ErrorIs(t, err, repository.ErrNoMovieForReview)

	absent := model.NewMovie("Absent", 2001)
	absent.Rank = 42
	err = repo.AddReview(ctx, model.NewReview(absent, "absent movie", 5))
	assert.ErrorIs(t, err, repository.ErrNoMovieForReview)

	reviews, err := repo.GetReviews(ctx)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	review := model.NewReview(movie, "Surprisingly good.", 8)
	require.NoError(t, repo.AddReview(ctx, review))

	reviews, err = repo.GetReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Surprisingly good.", reviews[0].Text)
	assert.Equal(t, 8, reviews[0].Rating)
	require.NotNil(t, reviews[0].Movie)
	assert.True(t, reviews[0].Movie.Equal(movie))
}

func testUsers(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.AddUser(ctx, model.NewUser("nton939", "hash")))

	user, err := repo.GetUser(ctx, "nton939")
	require.NoError(t, err)
	assert.Equal(t, "nton939", user.Username)
	assert.Equal(t, "hash", user.Password)

	_, err = repo.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.AddUser(ctx, model.NewUser("nton939", "other"))
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}
