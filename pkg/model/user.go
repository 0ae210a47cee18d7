package model

import "strings"

// User defines a registered catalogue user. The username is stored trimmed
// and lower-cased; the password is an opaque hash produced elsewhere.
type User struct {
	Username string `json:"username"`
	Password string `json:"-"`

	WatchedMovies []*Movie  `json:"-"`
	Reviews       []*Review `json:"-"`

	// TimeSpentWatchingMovies accumulates runtime minutes of watched movies.
	TimeSpentWatchingMovies int `json:"time_spent_watching_movies_minutes"`
}

// NewUser creates a user, normalizing the username.
func NewUser(username, password string) *User {
	return &User{
		Username: strings.ToLower(strings.TrimSpace(username)),
		Password: password,
	}
}

// Equal reports whether two users share a username.
func (u *User) Equal(other *User) bool {
	if other == nil {
		return false
	}
	return u.Username == other.Username
}

// Less orders users by username.
func (u *User) Less(other *User) bool {
	return u.Username < other.Username
}

// WatchMovie records a watched movie and accumulates its runtime. Watching
// the same movie twice counts twice.
func (u *User) WatchMovie(m *Movie) {
	if m == nil {
		return
	}
	u.WatchedMovies = append(u.WatchedMovies, m)
	u.TimeSpentWatchingMovies += m.RuntimeMinutes
}

// HasWatched reports whether the movie appears in the watched list.
func (u *User) HasWatched(m *Movie) bool {
	for _, watched := range u.WatchedMovies {
		if watched.Equal(m) {
			return true
		}
	}
	return false
}

// AddReview appends a review to the user's review list.
func (u *User) AddReview(r *Review) {
	if r == nil {
		return
	}
	u.Reviews = append(u.Reviews, r)
}

// HasReview reports whether an equal review was already recorded.
func (u *User) HasReview(r *Review) bool {
	for _, existing := range u.Reviews {
		if existing.Equal(r) {
			return true
		}
	}
	return false
}

func (u *User) String() string {
	return "<User " + u.Username + ">"
}
