package domain

import (
	"fmt"
	"time"
)

// InitialDifficulty is the difficulty assigned to a freshly enrolled
// card, the midpoint of the 1-10 difficulty scale.
const InitialDifficulty = 5.0

// MemoryState is the scheduler's snapshot of one card's memory: the
// forgetting-curve parameters (stability, difficulty) plus the review
// bookkeeping needed to compute the next interval. Exactly one
// MemoryState is owned by each Card and it is replaced wholesale on
// every processed review; callers never mutate it in place.
type MemoryState struct {
	// Stability is the modeled number of days until recall probability
	// decays to the request-retention threshold. Zero only for a card
	// that has never been reviewed.
	Stability float64 `json:"stability"`

	// Difficulty is the card's intrinsic hardness on a 1-10 scale.
	Difficulty float64 `json:"difficulty"`

	// ElapsedDays is the days since the previous review, captured at
	// the time of the most recent review.
	ElapsedDays float64 `json:"elapsed_days"`

	// ScheduledDays is the interval chosen for the next review.
	ScheduledDays float64 `json:"scheduled_days"`

	// Reps is the total number of reviews processed.
	Reps int `json:"reps"`

	// Lapses counts reviews rated Again.
	Lapses int `json:"lapses"`

	// State is the lifecycle state of the card.
	State CardState `json:"state"`

	// LastReview is when the card was last reviewed. Nil exactly when
	// Reps is zero.
	LastReview *time.Time `json:"last_review,omitempty"`
}

// NewMemoryState returns the memory snapshot of a freshly enrolled
// card: New state, zero stability, baseline difficulty, due
// immediately.
func NewMemoryState() MemoryState {
	return MemoryState{
		Stability:  0,
		Difficulty: InitialDifficulty,
		State:      CardStateNew,
	}
}

// Validate checks the MemoryState invariants:
// a New card has zero reps, zero stability and no last review; any
// reviewed card has all three; difficulty stays within [1,10].
func (m MemoryState) Validate() error {
	if !m.State.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCardState, int(m.State))
	}
	if m.Stability < 0 {
		return fmt.Errorf("%w: stability %f is negative", ErrValidation, m.Stability)
	}
	if m.Difficulty < 1 || m.Difficulty > 10 {
		return fmt.Errorf("%w: difficulty %f outside [1,10]", ErrValidation, m.Difficulty)
	}
	if m.ElapsedDays < 0 || m.ScheduledDays < 0 {
		return fmt.Errorf("%w: negative interval", ErrValidation)
	}
	if m.Reps < 0 || m.Lapses < 0 || m.Lapses > m.Reps {
		return fmt.Errorf("%w: inconsistent review counters", ErrValidation)
	}

	isNew := m.State == CardStateNew
	if isNew != (m.Reps == 0) || isNew != (m.LastReview == nil) || isNew != (m.Stability == 0) {
		return fmt.Errorf(
			"%w: new-state invariant violated (state=%s reps=%d stability=%f lastReview=%v)",
			ErrValidation, m.State, m.Reps, m.Stability, m.LastReview,
		)
	}

	return nil
}
