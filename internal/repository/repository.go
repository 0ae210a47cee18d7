package repository

import (
	"context"
	"errors"

	"moviecatalog/pkg/model"
)

// Sentinel errors shared by every repository implementation. Lookups on an
// unknown key signal ErrNotFound instead of failing hard; the only add
// operation that rejects its input is AddReview, which refuses a review whose
// movie is missing. Callers rely on that asymmetry.
var (
	// ErrNotFound is returned when a looked-up entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrNoMovieForReview is returned when a review references a nil movie or
	// one the repository does not hold.
	ErrNoMovieForReview = errors.New("review references a movie not present in the repository")
	// ErrDuplicateKey is returned by the sql repository on a primary-key
	// collision.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnsupported is returned for operations a backend deliberately does
	// not implement.
	ErrUnsupported = errors.New("operation not supported by this repository")
)

// Repository is the catalogue storage contract, implemented by the memory
// and sql backends.
//
// Ordering contract: GetFirstMovie/GetLastMovie follow load order (the sql
// backend orders by primary key, which equals load order for the
// rank-ascending reference dataset). GetMoviesByRank preserves the input
// order filtered to existing ranks. GetMovieRanksForGenre returns ascending
// ranks and an empty slice for an unknown genre.
type Repository interface {
	AddDirector(ctx context.Context, d model.Director) error
	GetDirector(ctx context.Context, fullName string) (model.Director, error)

	AddGenre(ctx context.Context, g model.Genre) error
	GetGenres(ctx context.Context) ([]model.Genre, error)

	AddActor(ctx context.Context, a *model.Actor) error
	GetActor(ctx context.Context, fullName string) (*model.Actor, error)

	AddMovie(ctx context.Context, m *model.Movie) error
	GetMovie(ctx context.Context, rank int) (*model.Movie, error)
	GetNumberOfMovies(ctx context.Context) (int, error)
	GetFirstMovie(ctx context.Context) (*model.Movie, error)
	GetLastMovie(ctx context.Context) (*model.Movie, error)
	GetMoviesByRank(ctx context.Context, ranks []int) ([]*model.Movie, error)
	GetMovieRanksForGenre(ctx context.Context, genreName string) ([]int, error)

	AddReview(ctx context.Context, r *model.Review) error
	GetReviews(ctx context.Context) ([]*model.Review, error)

	AddUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, username string) (*model.User, error)

	AddWatchList(ctx context.Context, w *model.WatchList) error
	GetWatchLists(ctx context.Context, owner *model.User) ([]*model.WatchList, error)
}
