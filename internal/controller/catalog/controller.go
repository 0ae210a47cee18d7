package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"moviecatalog/internal/repository"
	"moviecatalog/pkg/model"
)

// ErrNotFound is returned when a requested movie does not exist.
var ErrNotFound = errors.New("movie not found")

// ErrUnknownUser is returned when a review is submitted under a
// username the catalogue has never seen.
var ErrUnknownUser = errors.New("unknown user")

type catalogRepository interface {
	GetMovie(ctx context.Context, rank int) (*model.Movie, error)
	GetNumberOfMovies(ctx context.Context) (int, error)
	GetFirstMovie(ctx context.Context) (*model.Movie, error)
	GetLastMovie(ctx context.Context) (*model.Movie, error)
	GetMoviesByRank(ctx context.Context, ranks []int) ([]*model.Movie, error)
	GetMovieRanksForGenre(ctx context.Context, genreName string) ([]int, error)
	GetGenres(ctx context.Context) ([]model.Genre, error)
	AddReview(ctx context.Context, review *model.Review) error
	GetReviews(ctx context.Context) ([]*model.Review, error)
	GetUser(ctx context.Context, username string) (*model.User, error)
}

// Director is the transport representation of a director.
type Director struct {
	Name string `json:"director_name"`
}

// Actor is the transport representation of an actor.
type Actor struct {
	Name string `json:"actor_name"`
}

// Genre is the transport representation of a genre.
type Genre struct {
	Name string `json:"genre_name"`
}

// Movie is the transport representation of a catalogue entry. Fields
// absent from the source dataset are rendered as null.
type Movie struct {
	Rank           int      `json:"rank"`
	Title          string   `json:"title"`
	ReleaseYear    int      `json:"release_year"`
	Description    string   `json:"description"`
	Director       Director `json:"director"`
	Actors         []Actor  `json:"actors"`
	Genres         []Genre  `json:"genres"`
	RuntimeMinutes int      `json:"runtime_minutes"`
	Rating         *float64 `json:"rating"`
	Votes          *int     `json:"votes"`
	Revenue        *float64 `json:"revenue"`
	Metascore      *int     `json:"metascore"`
}

// Review is the transport representation of a movie review.
type Review struct {
	MovieRank  int       `json:"movie_rank"`
	ReviewText string    `json:"review_text"`
	Rating     int       `json:"rating"`
	Timestamp  time.Time `json:"timestamp"`
	Username   string    `json:"username,omitempty"`
}

// Controller defines a movie catalogue service controller.
type Controller struct {
	repo catalogRepository
}

// New creates a movie catalogue service controller.
func New(repo catalogRepository) *Controller {
	return &Controller{repo: repo}
}

// GetMovie returns the movie with the given rank or ErrNotFound.
func (c *Controller) GetMovie(ctx context.Context, rank int) (*Movie, error) {
	movie, err := c.repo.GetMovie(ctx, rank)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	m := movieToTransport(movie)
	return &m, nil
}

// GetNumberOfMovies returns the catalogue size.
func (c *Controller) GetNumberOfMovies(ctx context.Context) (int, error) {
	return c.repo.GetNumberOfMovies(ctx)
}

// GetFirstMovie returns the first movie in dataset order or ErrNotFound
// when the catalogue is empty.
func (c *Controller) GetFirstMovie(ctx context.Context) (*Movie, error) {
	movie, err := c.repo.GetFirstMovie(ctx)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	m := movieToTransport(movie)
	return &m, nil
}

// GetLastMovie returns the last movie in dataset order or ErrNotFound
// when the catalogue is empty.
func (c *Controller) GetLastMovie(ctx context.Context) (*Movie, error) {
	movie, err := c.repo.GetLastMovie(ctx)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	m := movieToTransport(movie)
	return &m, nil
}

// GetMoviesByRank returns the movies matching the given ranks, in the
// order the ranks were given. Unknown ranks are skipped.
func (c *Controller) GetMoviesByRank(ctx context.Context, ranks []int) ([]Movie, error) {
	movies, err := c.repo.GetMoviesByRank(ctx, ranks)
	if err != nil {
		return nil, err
	}
	res := make([]Movie, 0, len(movies))
	for _, m := range movies {
		res = append(res, movieToTransport(m))
	}
	return res, nil
}

// GetGenres returns every genre known to the catalogue.
func (c *Controller) GetGenres(ctx context.Context) ([]Genre, error) {
	genres, err := c.repo.GetGenres(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]Genre, 0, len(genres))
	for _, g := range genres {
		res = append(res, Genre{Name: g.Name})
	}
	return res, nil
}

// GetMovieRanksForGenre returns the ranks of the movies tagged with the
// given genre, in ascending order. An unknown genre yields an empty slice.
func (c *Controller) GetMovieRanksForGenre(ctx context.Context, genreName string) ([]int, error) {
	return c.repo.GetMovieRanksForGenre(ctx, genreName)
}

// AddReview records a review of the movie with the given rank on behalf
// of the named user. The user must already be registered and the movie
// must exist.
func (c *Controller) AddReview(ctx context.Context, username string, rank int, reviewText string, rating int) (*Review, error) {
	user, err := c.repo.GetUser(ctx, normalizeUsername(username))
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownUser
	} else if err != nil {
		return nil, err
	}
	movie, err := c.repo.GetMovie(ctx, rank)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	review := model.NewReview(movie, reviewText, rating)
	review.User = user
	if err := c.repo.AddReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNoMovieForReview) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Attach to the user only once the repository has accepted the review.
	user.AddReview(review)
	r := reviewToTransport(review)
	return &r, nil
}

// GetReviewsForMovie returns the reviews recorded against the movie with
// the given rank, or ErrNotFound when no such movie exists. A movie with
// no reviews yields an empty slice.
func (c *Controller) GetReviewsForMovie(ctx context.Context, rank int) ([]Review, error) {
	if _, err := c.repo.GetMovie(ctx, rank); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	reviews, err := c.repo.GetReviews(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]Review, 0)
	for _, r := range reviews {
		if r.Movie != nil && r.Movie.Rank == rank {
			res = append(res, reviewToTransport(r))
		}
	}
	return res, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func movieToTransport(m *model.Movie) Movie {
	actors := make([]Actor, 0, len(m.Actors))
	for _, a := range m.Actors {
		actors = append(actors, Actor{Name: a.FullName})
	}
	genres := make([]Genre, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, Genre{Name: g.Name})
	}
	return Movie{
		Rank:           m.Rank,
		Title:          m.Title,
		ReleaseYear:    m.ReleaseYear,
		Description:    m.Description,
		Director:       Director{Name: m.Director.FullName},
		Actors:         actors,
		Genres:         genres,
		RuntimeMinutes: m.RuntimeMinutes,
		Rating:         m.Rating,
		Votes:          m.Votes,
		Revenue:        m.Revenue,
		Metascore:      m.Metascore,
	}
}

func reviewToTransport(r *model.Review) Review {
	res := Review{
		ReviewText: r.Text,
		Rating:     r.Rating,
		Timestamp:  r.Timestamp,
	}
	if r.Movie != nil {
		res.MovieRank = r.Movie.Rank
	}
	if r.User != nil {
		res.Username = r.User.Username
	}
	return res
}
