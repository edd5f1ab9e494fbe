package domain

import "fmt"

// Rating represents the learner's self-assessment of a single review,
// on the standard four-point spaced repetition scale.
type Rating int

// Possible rating values. The numeric values are part of the wire and
// storage contract and must not be reordered.
const (
	RatingAgain Rating = 1 // complete forget, relearn from scratch
	RatingHard  Rating = 2 // recalled with significant difficulty
	RatingGood  Rating = 3 // recalled correctly
	RatingEasy  Rating = 4 // recalled easily and quickly
)

// CorrectThreshold is the minimum rating that counts as a correct
// answer in accuracy statistics. Good and Easy are correct; Again and
// Hard are not.
const CorrectThreshold = RatingGood

// Valid reports whether the rating is one of the four defined values.
func (r Rating) Valid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// IsCorrect reports whether the rating counts as a correct answer.
func (r Rating) IsCorrect() bool {
	return r >= CorrectThreshold
}

// String implements fmt.Stringer.
func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "again"
	case RatingHard:
		return "hard"
	case RatingGood:
		return "good"
	case RatingEasy:
		return "easy"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// ParseRating converts an integer rating from an API request or a
// storage row into a Rating, rejecting anything outside {1,2,3,4}.
func ParseRating(v int) (Rating, error) {
	r := Rating(v)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRating, v)
	}
	return r, nil
}
