// Package srs implements the spaced repetition scheduler: the memory
// model that turns a review rating into a new memory snapshot and the
// time the card next comes due.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/mnemolabs/mnemo-api/internal/domain"
)

// Scheduler defines the interface for memory-model operations. All
// methods are pure transformations: they never block, log, or touch
// storage, so callers may invoke them synchronously inline.
type Scheduler interface {
	// ProcessReview computes the post-review memory snapshot and the
	// time the card next comes due. The input snapshot is not
	// modified. An invalid rating is a caller bug and fails fast.
	ProcessReview(
		memory domain.MemoryState,
		rating domain.Rating,
		now time.Time,
	) (domain.MemoryState, time.Time, error)

	// Retrievability returns the probability of recall at the given
	// time. A card that has never been reviewed is fully retrievable.
	Retrievability(memory domain.MemoryState, now time.Time) float64

	// IsDue reports whether the card should be reviewed at the given time.
	IsDue(memory domain.MemoryState, now time.Time) bool

	// NextReviewAt returns the scheduled next review time. A card that
	// has never been reviewed is due immediately, so now is returned.
	NextReviewAt(memory domain.MemoryState, now time.Time) time.Time
}

// defaultScheduler is the standard implementation of the Scheduler interface.
type defaultScheduler struct {
	params *Params
}

// NewDefaultScheduler creates a scheduler with default parameters.
func NewDefaultScheduler() Scheduler {
	return &defaultScheduler{params: NewDefaultParams()}
}

// NewScheduler creates a scheduler with custom parameters, enabling
// per-course or per-student tuning.
func NewScheduler(params *Params) Scheduler {
	return &defaultScheduler{params: params}
}

// ProcessReview implements Scheduler.ProcessReview.
func (s *defaultScheduler) ProcessReview(
	memory domain.MemoryState,
	rating domain.Rating,
	now time.Time,
) (domain.MemoryState, time.Time, error) {
	if !rating.Valid() {
		return domain.MemoryState{}, time.Time{}, fmt.Errorf(
			"%w: %d", domain.ErrInvalidRating, int(rating))
	}

	var elapsedDays float64
	if memory.LastReview != nil {
		elapsedDays = now.Sub(*memory.LastReview).Seconds() / secondsPerDay
	}

	// A first-ever review and a same-day double review both have no
	// usable elapsed time; fall back to the previously scheduled
	// interval so the decay formula stays well defined.
	stabilityBasis := elapsedDays
	if elapsedDays <= 0 {
		stabilityBasis = memory.ScheduledDays
	}

	newDifficulty := nextDifficulty(memory.Difficulty, rating, s.params)
	newStability := nextStability(memory.Stability, memory.Difficulty, rating, stabilityBasis, s.params)
	interval := intervalFromStability(newStability, s.params)

	lapses := memory.Lapses
	if rating == domain.RatingAgain {
		lapses++
	}

	reviewedAt := now
	next := domain.MemoryState{
		Stability:     newStability,
		Difficulty:    newDifficulty,
		ElapsedDays:   elapsedDays,
		ScheduledDays: interval,
		Reps:          memory.Reps + 1,
		Lapses:        lapses,
		State:         nextState(memory.State, rating),
		LastReview:    &reviewedAt,
	}

	dueAt := now.Add(daysToDuration(interval))
	return next, dueAt, nil
}

// Retrievability implements Scheduler.Retrievability using the same
// exponential forgetting curve as review processing, parameterized by
// the configured retention target and clamped to [0, 1].
func (s *defaultScheduler) Retrievability(memory domain.MemoryState, now time.Time) float64 {
	if memory.Stability == 0 || memory.LastReview == nil {
		return 1.0
	}

	elapsedDays := now.Sub(*memory.LastReview).Seconds() / secondsPerDay
	r := math.Exp(math.Log(s.params.RequestRetention) * elapsedDays / memory.Stability)
	return clamp(r, 0, 1)
}

// IsDue implements Scheduler.IsDue. A card that has never been
// reviewed is always due.
func (s *defaultScheduler) IsDue(memory domain.MemoryState, now time.Time) bool {
	if memory.State == domain.CardStateNew || memory.LastReview == nil {
		return true
	}
	return !now.Before(s.NextReviewAt(memory, now))
}

// NextReviewAt implements Scheduler.NextReviewAt.
func (s *defaultScheduler) NextReviewAt(memory domain.MemoryState, now time.Time) time.Time {
	if memory.LastReview == nil {
		return now
	}
	return memory.LastReview.Add(daysToDuration(memory.ScheduledDays))
}

const secondsPerDay = 86400

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * secondsPerDay * float64(time.Second))
}
