package model

import "errors"

// Simulation errors.
var (
	ErrInvalidAdmin     = errors.New("a watching simulation requires a valid admin user")
	ErrInvalidMovie     = errors.New("a watching simulation requires a valid movie")
	ErrMovieAlreadySet  = errors.New("that movie is already in the queue")
	ErrReviewWrongMovie = errors.New("the review must target the queued movie")
)

// WatchingSimulation models a shared watching session: an admin, a movie in
// the queue and a group of users watching together.
type WatchingSimulation struct {
	admin *User
	movie *Movie
	group []*User
}

// NewWatchingSimulation creates a session administered by admin, with admin
// as its first member.
func NewWatchingSimulation(admin *User, movie *Movie) (*WatchingSimulation, error) {
	if admin == nil {
		return nil, ErrInvalidAdmin
	}
	if movie == nil {
		return nil, ErrInvalidMovie
	}
	return &WatchingSimulation{admin: admin, movie: movie, group: []*User{admin}}, nil
}

// Admin returns the administering user.
func (s *WatchingSimulation) Admin() *User {
	return s.admin
}

// Movie returns the movie currently queued.
func (s *WatchingSimulation) Movie() *Movie {
	return s.movie
}

// Group returns the users in the session.
func (s *WatchingSimulation) Group() []*User {
	return s.group
}

// AddUser adds a user to the group unless already present.
func (s *WatchingSimulation) AddUser(u *User) {
	if u == nil {
		return
	}
	for _, member := range s.group {
		if member.Equal(u) {
			return
		}
	}
	s.group = append(s.group, u)
}

// RemoveUser removes a user from the group. The admin cannot be removed.
func (s *WatchingSimulation) RemoveUser(u *User) {
	if u == nil || u.Equal(s.admin) {
		return
	}
	for i, member := range s.group {
		if member.Equal(u) {
			s.group = append(s.group[:i], s.group[i+1:]...)
			return
		}
	}
}

// ChangeMovie swaps the queued movie, rejecting the one already queued.
func (s *WatchingSimulation) ChangeMovie(m *Movie) error {
	if m == nil {
		return ErrInvalidMovie
	}
	if m.Equal(s.movie) {
		return ErrMovieAlreadySet
	}
	s.movie = m
	return nil
}

// WriteReviewForEveryone records the review for every group member that does
// not already carry it. The review must target the queued movie.
func (s *WatchingSimulation) WriteReviewForEveryone(r *Review) error {
	if r == nil || r.Movie == nil {
		return ErrReviewWrongMovie
	}
	if !r.Movie.Equal(s.movie) {
		return ErrReviewWrongMovie
	}
	for _, member := range s.group {
		if !member.HasReview(r) {
			member.AddReview(r)
		}
	}
	return nil
}

// UpdateUserInformation marks the queued movie watched for every member that
// has not watched it yet.
func (s *WatchingSimulation) UpdateUserInformation() {
	for _, member := range s.group {
		if !member.HasWatched(s.movie) {
			member.WatchMovie(s.movie)
		}
	}
}
