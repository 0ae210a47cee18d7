package memory

import (
	"context"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"moviecatalog/internal/repository"
	"moviecatalog/pkg/logging"
	"moviecatalog/pkg/model"
)

const tracerID = "catalog-repository-memory"

// Repository is the collection-backed catalogue store: parallel slices per
// entity kind plus a rank index over movies. The movie slice keeps load
// order, which is what GetFirstMovie/GetLastMovie report. The embedded lock
// makes the store safe for the per-request goroutines of the HTTP server.
type Repository struct {
	sync.RWMutex
	directors    []model.Director
	genres       []model.Genre
	actors       []*model.Actor
	movies       []*model.Movie
	moviesByRank map[int]*model.Movie
	reviews      []*model.Review
	users        []*model.User
	watchlists   []*model.WatchList
	logger       *zap.Logger
}

// New creates an empty memory repository.
func New(logger *zap.Logger) *Repository {
	logger = logger.With(
		zap.String(logging.FieldComponent, "repository"),
		zap.String(logging.FieldType, "memory"),
	)
	return &Repository{
		moviesByRank: map[int]*model.Movie{},
		logger:       logger,
	}
}

// AddDirector records a director unless an equal one is already stored.
func (r *Repository) AddDirector(_ context.Context, d model.Director) error {
	r.Lock()
	defer r.Unlock()
	for _, existing := range r.directors {
		if existing.Equal(d) {
			return nil
		}
	}
	r.directors = append(r.directors, d)
	return nil
}

// GetDirector returns the first director with the given name.
func (r *Repository) GetDirector(_ context.Context, fullName string) (model.Director, error) {
	r.RLock()
	defer r.RUnlock()
	for _, d := range r.directors {
		if d.FullName == fullName {
			return d, nil
		}
	}
	return model.Director{}, repository.ErrNotFound
}

// AddGenre records a genre unless an equal one is already stored.
func (r *Repository) AddGenre(_ context.Context, g model.Genre) error {
	r.Lock()
	defer r.Unlock()
	for _, existing := range r.genres {
		if existing.Equal(g) {
			return nil
		}
	}
	r.genres = append(r.genres, g)
	return nil
}

// GetGenres returns every stored genre in load order.
func (r *Repository) GetGenres(_ context.Context) ([]model.Genre, error) {
	r.RLock()
	defer r.RUnlock()
	out := make([]model.Genre, len(r.genres))
	copy(out, r.genres)
	return out, nil
}

// AddActor records an actor unless an equal one is already stored.
func (r *Repository) AddActor(_ context.Context, a *model.Actor) error {
	if a == nil {
		return nil
	}
	r.Lock()
	defer r.Unlock()
	for _, existing := range r.actors {
		if existing.Equal(a) {
			return nil
		}
	}
	r.actors = append(r.actors, a)
	return nil
}

// GetActor returns the first actor with the given name.
func (r *Repository) GetActor(_ context.Context, fullName string) (*model.Actor, error) {
	r.RLock()
	defer r.RUnlock()
	for _, a := range r.actors {
		if a.FullName == fullName {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

// AddMovie stores a movie and indexes it by rank. A second movie with the
// same rank overwrites the index entry; uniqueness is not enforced here.
func (r *Repository) AddMovie(_ context.Context, m *model.Movie) error {
	if m == nil {
		return nil
	}
	r.Lock()
	defer r.Unlock()
	r.movies = append(r.movies, m)
	r.moviesByRank[m.Rank] = m
	return nil
}

// GetMovie returns the movie indexed under the given rank.
func (r *Repository) GetMovie(_ context.Context, rank int) (*model.Movie, error) {
	r.RLock()
	defer r.RUnlock()
	m, ok := r.moviesByRank[rank]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

// GetNumberOfMovies returns the stored movie count.
func (r *Repository) GetNumberOfMovies(_ context.Context) (int, error) {
	r.RLock()
	defer r.RUnlock()
	return len(r.movies), nil
}

// GetFirstMovie returns the first movie in load order.
func (r *Repository) GetFirstMovie(_ context.Context) (*model.Movie, error) {
	r.RLock()
	defer r.RUnlock()
	if len(r.movies) == 0 {
		return nil, repository.ErrNotFound
	}
	return r.movies[0], nil
}

// GetLastMovie returns the last movie in load order.
func (r *Repository) GetLastMovie(_ context.Context) (*model.Movie, error) {
	r.RLock()
	defer r.RUnlock()
	if len(r.movies) == 0 {
		return nil, repository.ErrNotFound
	}
	return r.movies[len(r.movies)-1], nil
}

// GetMoviesByRank returns the movies for the given ranks, preserving the
// input order and silently skipping unknown ranks.
func (r *Repository) GetMoviesByRank(_ context.Context, ranks []int) ([]*model.Movie, error) {
	r.RLock()
	defer r.RUnlock()
	movies := make([]*model.Movie, 0, len(ranks))
	for _, rank := range ranks {
		if m, ok := r.moviesByRank[rank]; ok {
			movies = append(movies, m)
		}
	}
	return movies, nil
}

// GetMovieRanksForGenre returns the ascending ranks of movies carrying the
// genre, or an empty slice when the genre is unknown.
func (r *Repository) GetMovieRanksForGenre(_ context.Context, genreName string) ([]int, error) {
	r.RLock()
	defer r.RUnlock()
	var known bool
	for _, g := range r.genres {
		if g.Name == genreName {
			known = true
			break
		}
	}
	ranks := []int{}
	if !known {
		return ranks, nil
	}
	genre := model.Genre{Name: genreName}
	for _, m := range r.movies {
		if m.HasGenre(genre) {
			ranks = append(ranks, m.Rank)
		}
	}
	sort.Ints(ranks)
	return ranks, nil
}

// AddReview stores a review after checking its movie is present; a nil or
// unknown movie is the one repository-level integrity violation.
func (r *Repository) AddReview(ctx context.Context, review *model.Review) error {
	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/AddReview")
	defer span.End()
	if review == nil || review.Movie == nil {
		return repository.ErrNoMovieForReview
	}
	r.Lock()
	defer r.Unlock()
	stored, ok := r.moviesByRank[review.Movie.Rank]
	if !ok || !stored.Equal(review.Movie) {
		r.logger.Warn("Rejecting review for an absent movie", zap.Int("rank", review.Movie.Rank))
		return repository.ErrNoMovieForReview
	}
	r.reviews = append(r.reviews, review)
	return nil
}

// GetReviews returns every stored review.
func (r *Repository) GetReviews(_ context.Context) ([]*model.Review, error) {
	r.RLock()
	defer r.RUnlock()
	out := make([]*model.Review, len(r.reviews))
	copy(out, r.reviews)
	return out, nil
}

// AddUser stores a user. Usernames are unique.
func (r *Repository) AddUser(_ context.Context, u *model.User) error {
	if u == nil {
		return nil
	}
	r.Lock()
	defer r.Unlock()
	for _, existing := range r.users {
		if existing.Equal(u) {
			return repository.ErrDuplicateKey
		}
	}
	r.users = append(r.users, u)
	return nil
}

// GetUser returns the user stored under the given username. The argument is
// matched as stored; callers pass lower-cased usernames.
func (r *Repository) GetUser(_ context.Context, username string) (*model.User, error) {
	r.RLock()
	defer r.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// AddWatchList stores a watchlist.
func (r *Repository) AddWatchList(_ context.Context, w *model.WatchList) error {
	if w == nil {
		return nil
	}
	r.Lock()
	defer r.Unlock()
	r.watchlists = append(r.watchlists, w)
	return nil
}

// GetWatchLists returns the watchlists owned by the given user; an unknown
// owner yields an empty slice, not an error.
func (r *Repository) GetWatchLists(_ context.Context, owner *model.User) ([]*model.WatchList, error) {
	r.RLock()
	defer r.RUnlock()
	lists := []*model.WatchList{}
	if owner == nil {
		return lists, nil
	}
	for _, w := range r.watchlists {
		if w.Owner.Equal(owner) {
			lists = append(lists, w)
		}
	}
	return lists, nil
}
