package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/mnemolabs/mnemo-api/internal/domain"
)

func TestProcessReviewRejectsInvalidRating(t *testing.T) {
	t.Parallel()
	scheduler := NewDefaultScheduler()

	for _, rating := range []domain.Rating{0, 5, -1, 42} {
		_, _, err := scheduler.ProcessReview(domain.NewMemoryState(), rating, time.Now().UTC())
		if !errors.Is(err, domain.ErrInvalidRating) {
			t.Errorf("ProcessReview(rating=%d) error = %v, want ErrInvalidRating", int(rating), err)
		}
	}
}

func TestProcessReviewFirstReview(t *testing.T) {
	t.Parallel()
	scheduler := NewDefaultScheduler()
	params := NewDefaultParams()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	memory, dueAt, err := scheduler.ProcessReview(domain.NewMemoryState(), domain.RatingGood, now)
	if err != nil {
		t.Fatalf("ProcessReview returned error: %v", err)
	}

	if memory.State != domain.CardStateReview {
		t.Errorf("state = %s, want review", memory.State)
	}
	if memory.Stability != params.W[2] {
		t.Errorf("stability = %f, want w[2] = %f", memory.Stability, params.W[2])
	}
	if memory.Reps != 1 || memory.Lapses != 0 {
		t.Errorf("reps/lapses = %d/%d, want 1/0", memory.Reps, memory.Lapses)
	}
	if memory.LastReview == nil || !memory.LastReview.Equal(now) {
		t.Errorf("last review = %v, want %v", memory.LastReview, now)
	}
	if err := memory.Validate(); err != nil {
		t.Errorf("post-review memory state invalid: %v", err)
	}
	if !dueAt.After(now) {
		t.Errorf("dueAt = %v, want after %v", dueAt, now)
	}
	if memory.ScheduledDays < 1.0 {
		t.Errorf("scheduled days = %f, below one-day floor", memory.ScheduledDays)
	}
}

// TestProcessReviewGoodGoodAgain walks a new card through the
// Good, Good, Again sequence and checks the memory trajectory.
func TestProcessReviewGoodGoodAgain(t *testing.T) {
	t.Parallel()
	scheduler := NewDefaultScheduler()
	params := NewDefaultParams()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Review 1: Good. New -> Review, stability from w[2].
	memory, dueAt, err := scheduler.ProcessReview(domain.NewMemoryState(), domain.RatingGood, now)
	if err != nil {
		t.Fatalf("review 1: %v", err)
	}
	if memory.State != domain.CardStateReview || memory.Stability != params.W[2] {
		t.Fatalf("review 1: state=%s stability=%f, want review/%f",
			memory.State, memory.Stability, params.W[2])
	}

	// Review 2: Good at the due time. Stability grows because the
	// memory had partially decayed.
	before := memory.Stability
	memory, dueAt, err = scheduler.ProcessReview(memory, domain.RatingGood, dueAt)
	if err != nil {
		t.Fatalf("review 2: %v", err)
	}
	if memory.Stability <= before {
		t.Errorf("review 2: stability = %f, want > %f", memory.Stability, before)
	}
	if memory.Reps != 2 {
		t.Errorf("review 2: reps = %d, want 2", memory.Reps)
	}

	// Review 3: Again. Review -> Relearning, lapse counted, and the
	// multiplicative penalty never grows stability at baseline
	// difficulty.
	before = memory.Stability
	memory, _, err = scheduler.ProcessReview(memory, domain.RatingAgain, dueAt)
	if err != nil {
		t.Fatalf("review 3: %v", err)
	}
	if memory.State != domain.CardStateRelearning {
		t.Errorf("review 3: state = %s, want relearning", memory.State)
	}
	if memory.Lapses != 1 {
		t.Errorf("review 3: lapses = %d, want 1", memory.Lapses)
	}
	if memory.Stability > before {
		t.Errorf("review 3: stability = %f, grew past %f on a lapse", memory.Stability, before)
	}
}

func TestProcessReviewSameDayFallsBackToScheduledDays(t *testing.T) {
	t.Parallel()
	scheduler := NewDefaultScheduler()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	memory, _, err := scheduler.ProcessReview(domain.NewMemoryState(), domain.RatingGood, now)
	if err != nil {
		t.Fatalf("first review: %v", err)
	}

	// Immediate second review: elapsed days is zero, so the decay
	// basis falls back to the scheduled interval instead of dividing
	// by zero elapsed time.
	again, _, err := scheduler.ProcessReview(memory, domain.RatingGood, now)
	if err != nil {
		t.Fatalf("same-day review: %v", err)
	}
	if again.ElapsedDays != 0 {
		t.Errorf("elapsed days = %f, want 0", again.ElapsedDays)
	}
	if again.Stability <= 0 || again.Stability != again.Stability { // NaN check
		t.Errorf("same-day review produced degenerate stability %f", again.Stability)
	}
}

func TestIsDueLifecycle(t *testing.T) {
	t.Parallel()
	scheduler := NewDefaultScheduler()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := domain.NewMemoryState()
	if !scheduler.IsDue(fresh, now) {
		t.Error("freshly enrolled card should be due immediately")
	}

	memory, dueAt, err := scheduler.ProcessReview(fresh, domain.RatingGood, now)
	if err != nil {
		t.Fatalf("ProcessReview: %v", err)
	}
	if scheduler.IsDue(memory, now) {
		t.Error("card should not be due immediately after a review")
	}
	if !scheduler.IsDue(memory, dueAt) {
		t.Error("card should be due at its scheduled time")
	}
}

func TestRetrievabilityQueries(t *testing.T) {
	t.Parallel()
	scheduler := NewDefaultScheduler()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := domain.NewMemoryState()
	if got := scheduler.Retrievability(fresh, now); got != 1.0 {
		t.Errorf("retrievability of fresh card = %f, want 1.0", got)
	}

	memory, _, err := scheduler.ProcessReview(fresh, domain.RatingGood, now)
	if err != nil {
		t.Fatalf("ProcessReview: %v", err)
	}

	// Strictly decreasing in elapsed time.
	prev := scheduler.Retrievability(memory, now)
	for days := 1; days <= 10; days++ {
		at := now.AddDate(0, 0, days)
		r := scheduler.Retrievability(memory, at)
		if r >= prev {
			t.Fatalf("retrievability not decreasing at day %d: %f >= %f", days, r, prev)
		}
		prev = r
	}

	// Read queries are idempotent: same inputs, same outputs.
	at := now.AddDate(0, 0, 3)
	first := scheduler.Retrievability(memory, at)
	second := scheduler.Retrievability(memory, at)
	if first != second {
		t.Errorf("retrievability not idempotent: %f != %f", first, second)
	}
	if scheduler.IsDue(memory, at) != scheduler.IsDue(memory, at) {
		t.Error("IsDue not idempotent")
	}
}

func TestNewParamsOverrides(t *testing.T) {
	t.Parallel()

	weights := make([]float64, 17)
	for i := range weights {
		weights[i] = float64(i)
	}

	params := NewParams(ParamsConfig{
		Weights:          weights,
		RequestRetention: 0.8,
		MaximumInterval:  100,
	})

	if params.W[3] != 3 {
		t.Errorf("weights not applied: w[3] = %f", params.W[3])
	}
	if params.RequestRetention != 0.8 {
		t.Errorf("request retention = %f, want 0.8", params.RequestRetention)
	}
	if params.MaximumInterval != 100 {
		t.Errorf("maximum interval = %f, want 100", params.MaximumInterval)
	}

	// Invalid overrides keep the defaults.
	fallback := NewParams(ParamsConfig{Weights: []float64{1, 2}, RequestRetention: 1.5})
	if fallback.W != defaultWeights {
		t.Error("short weight slice should keep default weights")
	}
	if fallback.RequestRetention != 0.9 {
		t.Errorf("out-of-range retention should keep default, got %f", fallback.RequestRetention)
	}
}
