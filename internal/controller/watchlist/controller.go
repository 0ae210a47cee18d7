package watchlist

import (
	"context"
	"errors"
	"sort"
	"strings"

	"moviecatalog/internal/repository"
	"moviecatalog/pkg/model"
)

// ErrNotFound is returned when a watchlist or movie does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownUser is returned for operations on an unregistered username.
var ErrUnknownUser = errors.New("unknown user")

type watchListRepository interface {
	GetUser(ctx context.Context, username string) (*model.User, error)
	GetMovie(ctx context.Context, rank int) (*model.Movie, error)
	GetMoviesByRank(ctx context.Context, ranks []int) ([]*model.Movie, error)
	GetMovieRanksForGenre(ctx context.Context, genreName string) ([]int, error)
	AddWatchList(ctx context.Context, w *model.WatchList) error
	GetWatchLists(ctx context.Context, owner *model.User) ([]*model.WatchList, error)
}

// Movie is the compact transport representation used in list views.
type Movie struct {
	Rank           int    `json:"rank"`
	Title          string `json:"title"`
	ReleaseYear    int    `json:"release_year"`
	RuntimeMinutes int    `json:"runtime_minutes"`
}

// WatchList is the transport representation of a watchlist.
type WatchList struct {
	Name   string  `json:"name"`
	Owner  string  `json:"owner"`
	Movies []Movie `json:"movies"`
}

// Controller defines a watchlist service controller.
type Controller struct {
	repo watchListRepository
}

// New creates a watchlist service controller.
func New(repo watchListRepository) *Controller {
	return &Controller{repo: repo}
}

// Create makes a new watchlist for the named user. A blank name falls back
// to the default list name.
func (c *Controller) Create(ctx context.Context, username, name string) (*WatchList, error) {
	user, err := c.user(ctx, username)
	if err != nil {
		return nil, err
	}
	list, err := model.NewWatchList(user, name)
	if err != nil {
		return nil, err
	}
	if err := c.repo.AddWatchList(ctx, list); err != nil {
		return nil, err
	}
	w := listToTransport(list)
	return &w, nil
}

// List returns all watchlists owned by the named user.
func (c *Controller) List(ctx context.Context, username string) ([]WatchList, error) {
	user, err := c.user(ctx, username)
	if err != nil {
		return nil, err
	}
	lists, err := c.repo.GetWatchLists(ctx, user)
	if err != nil {
		return nil, err
	}
	res := make([]WatchList, 0, len(lists))
	for _, l := range lists {
		res = append(res, listToTransport(l))
	}
	return res, nil
}

// AddMovie adds the movie with the given rank to the named watchlist.
// Duplicates are ignored.
func (c *Controller) AddMovie(ctx context.Context, username, listName string, rank int) error {
	list, err := c.list(ctx, username, listName)
	if err != nil {
		return err
	}
	movie, err := c.repo.GetMovie(ctx, rank)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	list.Add(movie)
	return nil
}

// RemoveMovie removes the movie with the given rank from the named
// watchlist. Removing an absent movie is a no-op.
func (c *Controller) RemoveMovie(ctx context.Context, username, listName string, rank int) error {
	list, err := c.list(ctx, username, listName)
	if err != nil {
		return err
	}
	for _, m := range list.Movies() {
		if m.Rank == rank {
			list.Remove(m)
			return nil
		}
	}
	return nil
}

// Rename changes the name of a watchlist. Blank names are ignored.
func (c *Controller) Rename(ctx context.Context, username, listName, newName string) error {
	list, err := c.list(ctx, username, listName)
	if err != nil {
		return err
	}
	list.Rename(newName)
	return nil
}

// Share copies the named watchlist to another registered user. The copy
// gets the default list name.
func (c *Controller) Share(ctx context.Context, username, listName, targetUsername string) (*WatchList, error) {
	list, err := c.list(ctx, username, listName)
	if err != nil {
		return nil, err
	}
	target, err := c.user(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	shared, err := list.Share(target)
	if err != nil {
		return nil, err
	}
	if err := c.repo.AddWatchList(ctx, shared); err != nil {
		return nil, err
	}
	w := listToTransport(shared)
	return &w, nil
}

// SortedByTitle returns the watchlist's movies ordered by title.
func (c *Controller) SortedByTitle(ctx context.Context, username, listName string) ([]Movie, error) {
	list, err := c.list(ctx, username, listName)
	if err != nil {
		return nil, err
	}
	return moviesToTransport(list.SortedByTitle()), nil
}

// SortedByYear returns the watchlist's movies ordered by release year.
func (c *Controller) SortedByYear(ctx context.Context, username, listName string) ([]Movie, error) {
	list, err := c.list(ctx, username, listName)
	if err != nil {
		return nil, err
	}
	return moviesToTransport(list.SortedByYear()), nil
}

// SortedByRuntime returns the watchlist's movies ordered by runtime.
func (c *Controller) SortedByRuntime(ctx context.Context, username, listName string) ([]Movie, error) {
	list, err := c.list(ctx, username, listName)
	if err != nil {
		return nil, err
	}
	return moviesToTransport(list.SortedByRuntime()), nil
}

// Recommendations returns catalogue movies whose genre set equals the
// genre set of some movie already on the list. Candidates are gathered
// through the genre index, so movies without genres are never recommended.
// An empty watchlist has no recommendations.
func (c *Controller) Recommendations(ctx context.Context, username, listName string) ([]Movie, error) {
	list, err := c.list(ctx, username, listName)
	if err != nil {
		return nil, err
	}
	ranks := make(map[int]struct{})
	for _, m := range list.Movies() {
		for _, g := range m.Genres {
			genreRanks, err := c.repo.GetMovieRanksForGenre(ctx, g.Name)
			if err != nil {
				return nil, err
			}
			for _, rank := range genreRanks {
				ranks[rank] = struct{}{}
			}
		}
	}
	ordered := make([]int, 0, len(ranks))
	for rank := range ranks {
		ordered = append(ordered, rank)
	}
	sort.Ints(ordered)
	candidates, err := c.repo.GetMoviesByRank(ctx, ordered)
	if err != nil {
		return nil, err
	}
	recommended, err := list.Recommendations(candidates)
	if err != nil {
		return nil, err
	}
	return moviesToTransport(recommended.Movies()), nil
}

func (c *Controller) user(ctx context.Context, username string) (*model.User, error) {
	user, err := c.repo.GetUser(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownUser
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Controller) list(ctx context.Context, username, listName string) (*model.WatchList, error) {
	user, err := c.user(ctx, username)
	if err != nil {
		return nil, err
	}
	lists, err := c.repo.GetWatchLists(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, l := range lists {
		if l.Name == listName {
			return l, nil
		}
	}
	return nil, ErrNotFound
}

func listToTransport(l *model.WatchList) WatchList {
	return WatchList{
		Name:   l.Name,
		Owner:  l.Owner.Username,
		Movies: moviesToTransport(l.Movies()),
	}
}

func moviesToTransport(movies []*model.Movie) []Movie {
	res := make([]Movie, 0, len(movies))
	for _, m := range movies {
		res = append(res, Movie{
			Rank:           m.Rank,
			Title:          m.Title,
			ReleaseYear:    m.ReleaseYear,
			RuntimeMinutes: m.RuntimeMinutes,
		})
	}
	return res
}
