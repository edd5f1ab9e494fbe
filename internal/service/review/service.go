// Package review orchestrates the card lifecycle around the
// scheduler: enrollment, review processing, resets, and due-card
// selection.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/store"
)

// EnrollItem identifies one content item to enroll a student in.
type EnrollItem struct {
	ContentRef uuid.UUID `json:"content_ref"`
	Topic      string    `json:"topic"`
}

// EnrollResult reports the outcome of a batch enrollment.
type EnrollResult struct {
	Created []*domain.Card `json:"created"`
	Skipped []uuid.UUID    `json:"skipped"`
}

// ReviewService coordinates the card lifecycle: enrollment, review
// processing, resets, and due-card selection. It owns the transaction
// boundaries; the scheduling math itself lives in domain/srs.
type ReviewService interface {
	// EnrollCards creates cards for the given content items. Items the
	// student already has a card for are skipped, not errors, so
	// re-enrolling a course section is idempotent.
	EnrollCards(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		items []EnrollItem,
	) (*EnrollResult, error)

	// SubmitReview processes one review: verifies ownership, runs the
	// scheduler, applies statistics and history, and persists the card
	// in a single transaction. Returns the updated card.
	//
	// Returns ErrCardNotFound if the card does not exist,
	// ErrCardNotOwned if it belongs to another student, and
	// ErrReviewConflict if a concurrent review won the write race: the
	// caller should reload and retry rather than trust its stale copy.
	SubmitReview(
		ctx context.Context,
		studentID, cardID uuid.UUID,
		rating domain.Rating,
		timeSpentSeconds int,
	) (*domain.Card, error)

	// ResetCard returns a card to its freshly enrolled state, clearing
	// its memory state, statistics, and history.
	ResetCard(ctx context.Context, studentID, cardID uuid.UUID) (*domain.Card, error)

	// DueCards retrieves the student's due cards for a course, most
	// overdue first, optionally filtered by topic.
	DueCards(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		topics []string,
		limit int,
	) ([]*domain.Card, error)

	// DueCount counts cards due now or within the next daysAhead days.
	DueCount(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		daysAhead int,
	) (int, error)

	// CardRetrievability returns the modeled probability that the
	// student can recall the card right now.
	CardRetrievability(ctx context.Context, studentID, cardID uuid.UUID) (float64, error)

	// CardStatistics aggregates the student's card collection for a
	// course: totals, average accuracy over reviewed cards, cards due
	// now, and cards mastered.
	CardStatistics(
		ctx context.Context,
		studentID, courseID uuid.UUID,
	) (*store.CardStatistics, error)
}

// Common error types for ReviewService
var (
	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrCardNotOwned indicates that the card belongs to another student.
	ErrCardNotOwned = errors.New("unauthorized access: card not owned by student")

	// ErrReviewConflict indicates that a concurrent review of the same
	// card was persisted first.
	ErrReviewConflict = errors.New("card was modified by a concurrent review")

	// ErrNoItemsToEnroll indicates an empty enrollment batch.
	ErrNoItemsToEnroll = errors.New("no content items to enroll")
)

// ServiceError wraps errors from the review service with the failed
// operation, so consumers can differentiate failures with errors.As
// instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewSubmitReviewError returns a new ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "submit_review", Message: message, Err: err}
}

// NewEnrollError returns a new ServiceError for the enroll_cards operation.
func NewEnrollError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "enroll_cards", Message: message, Err: err}
}

// nowFunc returns the current time; overridable in tests.
type nowFunc func() time.Time
