package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"moviecatalog/internal/repository"
	"moviecatalog/internal/repository/memory"
	"moviecatalog/internal/repository/repositorytest"
	"moviecatalog/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContract(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) repository.Repository {
		return memory.New(zap.NewNop())
	})
}

func TestAddMovieOverwritesRankIndex(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(zap.NewNop())

	old := model.NewMovie("Old", 2000)
	old.Rank = 1
	require.NoError(t, repo.AddMovie(ctx, old))
	replacement := model.NewMovie("Replacement", 2001)
	replacement.Rank = 1
	require.NoError(t, repo.AddMovie(ctx, replacement))

	got, err := repo.GetMovie(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Replacement", got.Title)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(zap.NewNop())

	movie := model.NewMovie("Guardians of the Galaxy", 2014)
	movie.Rank = 1
	require.NoError(t, repo.AddMovie(ctx, movie))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		username := fmt.Sprintf("user%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AddUser(ctx, model.NewUser(username, "hash")))
			_, err := repo.GetUser(ctx, username)
			assert.NoError(t, err)
			assert.NoError(t, repo.AddReview(ctx, model.NewReview(movie, "great", 9)))
			_, err = repo.GetReviews(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	reviews, err := repo.GetReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, reviews, 8)
	for i := 0; i < 8; i++ {
		_, err := repo.GetUser(ctx, fmt.Sprintf("user%d", i))
		assert.NoError(t, err)
	}
}

func TestWatchLists(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(zap.NewNop())

	owner := model.NewUser("nton939", "hash")
	other := model.NewUser("yeezy", "hash")
	require.NoError(t, repo.AddUser(ctx, owner))
	require.NoError(t, repo.AddUser(ctx, other))

	lists, err := repo.GetWatchLists(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, lists)
	assert.Empty(t, lists)

	list, err := model.NewWatchList(owner, "weekend")
	require.NoError(t, err)
	require.NoError(t, repo.AddWatchList(ctx, list))

	lists, err = repo.GetWatchLists(ctx, owner)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "weekend", lists[0].Name)

	lists, err = repo.GetWatchLists(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, lists)
}
