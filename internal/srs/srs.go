package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/tango/internal/domain"
)

// Rating is the user's response to a card review.
type Rating int

const (
	Again Rating = iota + 1 // Failed to recall; progress resets.
	Good                    // Recalled; interval grows.
)

// ErrInvalidRating is returned when a rating name is not recognised.
var ErrInvalidRating = errors.New("srs: invalid rating")

var ratingNames = [...]string{Again: "again", Good: "good"}

// MaxInterval caps the interval growth, in days.
const MaxInterval = 120

// dayMillis is the length of one scheduling day.
const dayMillis = 86400000

// steps is the fixed early part of the schedule. Intervals not listed here
// double, capped at MaxInterval.
var steps = map[int]int{
	1:  2,
	2:  4,
	4:  7,
	7:  15,
	15: 30,
}

// IsValid reports whether r is Again or Good.
func (r Rating) IsValid() bool {
	return r == Again || r == Good
}

// String returns "again" or "good", or "Rating(n)" for invalid values.
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	switch string(text) {
	case "again":
		*r = Again
	case "good":
		*r = Good
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRating, text)
	}
	return nil
}

// Growth returns the interval that follows prev after a successful review.
// Anything at or below zero starts the schedule at one day.
func Growth(prev int) int {
	if prev <= 0 {
		return 1
	}
	if next, ok := steps[prev]; ok {
		return next
	}
	return int(math.Min(MaxInterval, math.Round(float64(prev)*2)))
}

// Next computes the review state that results from grading a card today.
// prev is nil for a card that has never been graded.
func Next(prev *domain.ReviewState, rating Rating, today int) domain.ReviewState {
	if rating == Again {
		return domain.ReviewState{Interval: 0, Due: today}
	}

	prevInterval := 0
	if prev != nil {
		prevInterval = prev.Interval
	}
	interval := Growth(prevInterval)
	return domain.ReviewState{
		Interval: interval,
		Due:      today + interval,
	}
}

// DayNumber returns the number of whole days between the Unix epoch and t.
func DayNumber(t time.Time) int {
	ms := t.UnixMilli()
	day := ms / dayMillis
	if ms < 0 && ms%dayMillis != 0 {
		day--
	}
	return int(day)
}
