package database_test

import (
	"context"
	"database/sql"
	"testing"

	"moviecatalog/internal/repository"
	"moviecatalog/internal/repository/database"
	"moviecatalog/internal/repository/repositorytest"
	"moviecatalog/pkg/model"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRepo(t *testing.T) *database.Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, "sqlite3"))
	return database.New(db, zap.NewNop())
}

func TestContract(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) repository.Repository {
		return newRepo(t)
	})
}

func TestAddMovieDuplicateRank(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	movie := model.NewMovie("Sing", 2016)
	movie.Rank = 1
	require.NoError(t, movie.SetRuntimeMinutes(108))
	require.NoError(t, repo.AddMovie(ctx, movie))

	other := model.NewMovie("Other", 2017)
	other.Rank = 1
	require.NoError(t, other.SetRuntimeMinutes(100))
	assert.ErrorIs(t, repo.AddMovie(ctx, other), repository.ErrDuplicateKey)
}

func TestAddMovieRegistersReferenceRows(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	// AddMovie may run before the reference entities exist; it inserts them.
	movie := model.NewMovie("Sing", 2016)
	movie.Rank = 1
	movie.Director = model.NewDirector("Christophe Lourdelet")
	movie.AddActor(model.NewActor("Matthew McConaughey"))
	movie.AddGenre(model.NewGenre("Animation"))
	require.NoError(t, movie.SetRuntimeMinutes(108))
	require.NoError(t, repo.AddMovie(ctx, movie))

	d, err := repo.GetDirector(ctx, "Christophe Lourdelet")
	require.NoError(t, err)
	assert.Equal(t, "Christophe Lourdelet", d.FullName)

	a, err := repo.GetActor(ctx, "Matthew McConaughey")
	require.NoError(t, err)
	assert.Equal(t, "Matthew McConaughey", a.FullName)

	genres, err := repo.GetGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Genre{{Name: "Animation"}}, genres)
}

func TestReviewUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	movie := model.NewMovie("Sing", 2016)
	movie.Rank = 1
	require.NoError(t, movie.SetRuntimeMinutes(108))
	require.NoError(t, repo.AddMovie(ctx, movie))
	user := model.NewUser("nton939", "hash")
	require.NoError(t, repo.AddUser(ctx, user))

	review := model.NewReview(movie, "Surprisingly good.", 8)
	review.User = user
	require.NoError(t, repo.AddReview(ctx, review))

	reviews, err := repo.GetReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].User)
	assert.Equal(t, "nton939", reviews[0].User.Username)
}

func TestWatchListsUnsupported(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	owner := model.NewUser("nton939", "hash")
	list, err := model.NewWatchList(owner, "weekend")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.AddWatchList(ctx, list), repository.ErrUnsupported)
	_, err = repo.GetWatchLists(ctx, owner)
	assert.ErrorIs(t, err, repository.ErrUnsupported)
}
