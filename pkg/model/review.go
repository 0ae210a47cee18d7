package model

import (
	"strings"
	"time"
)

// Rating bounds for a review.
const (
	MinReviewRating = 1
	MaxReviewRating = 10
)

// Review defines a user review of a movie. Construction never fails: an
// invalid movie stays nil and an out-of-range rating stays zero. Rejecting
// a review with a nil movie is the repository's job.
type Review struct {
	Movie     *Movie    `json:"movie"`
	Text      string    `json:"review_text"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`

	// User is the review author, set by the service layer before the review
	// is persisted. Not part of equality.
	User *User `json:"-"`
}

// NewReview creates a review stamped with the current time.
func NewReview(movie *Movie, text string, rating int) *Review {
	r := &Review{
		Movie:     movie,
		Text:      strings.TrimSpace(text),
		Timestamp: time.Now(),
	}
	if rating >= MinReviewRating && rating <= MaxReviewRating {
		r.Rating = rating
	}
	return r
}

// Equal reports whether two reviews match on movie, text, rating and
// timestamp.
func (r *Review) Equal(other *Review) bool {
	if other == nil {
		return false
	}
	if (r.Movie == nil) != (other.Movie == nil) {
		return false
	}
	if r.Movie != nil && !r.Movie.Equal(other.Movie) {
		return false
	}
	return r.Text == other.Text &&
		r.Rating == other.Rating &&
		r.Timestamp.Equal(other.Timestamp)
}
