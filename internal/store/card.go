package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mnemolabs/mnemo-api/internal/domain"
)

// CardStore defines the interface for card persistence. The engine's
// pure computation never touches storage; services use this interface
// to load snapshots and persist results.
type CardStore interface {
	// CreateMultiple saves a batch of newly enrolled cards. The batch
	// is atomic: run it within a transaction via WithTxCardStore and
	// RunInTransaction so a partial enrollment is never persisted.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID, including its memory
	// state and review history. Returns ErrCardNotFound if the card
	// does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetByContentRef retrieves the student's card for a content item,
	// used to detect duplicate enrollment. Returns ErrCardNotFound if
	// the student has no card for that content.
	GetByContentRef(ctx context.Context, studentID, contentRef uuid.UUID) (*domain.Card, error)

	// GetDue retrieves cards due at the given time for a student and
	// course, optionally filtered by topic. Ordering is a hard
	// contract: ascending next_review_at (most overdue first) with
	// ties broken by card ID, so repeated calls with identical inputs
	// select identically.
	GetDue(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		topics []string,
		limit int,
		now time.Time,
	) ([]*domain.Card, error)

	// CountDue counts cards due now or within the next daysAhead days.
	CountDue(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		now time.Time,
		daysAhead int,
	) (int, error)

	// Update persists a card's memory state, statistics, and history
	// after a review or reset. expectedUpdatedAt is the UpdatedAt
	// value the caller read; if another writer got there first the
	// update does not apply and ErrConflict is returned. This is the
	// optimistic concurrency check that keeps two simultaneous reviews
	// of one card from interleaving their read-modify-write.
	Update(ctx context.Context, card *domain.Card, expectedUpdatedAt time.Time) error

	// GetStatistics aggregates the student's card collection for a
	// course: totals, average accuracy, cards due at the given time,
	// and cards mastered.
	GetStatistics(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		now time.Time,
	) (*CardStatistics, error)

	// WithTxCardStore returns a CardStore bound to the given
	// transaction. The transaction is created and managed by the
	// caller, typically through RunInTransaction.
	WithTxCardStore(tx *sql.Tx) CardStore
}

// CardStatistics is the aggregate view of a student's cards in a
// course. A card counts as mastered once its accuracy rate reaches
// MasteryAccuracyThreshold.
type CardStatistics struct {
	TotalCards      int     `json:"total_cards"`
	TotalReviews    int     `json:"total_reviews"`
	AverageAccuracy float64 `json:"average_accuracy"`
	CardsDue        int     `json:"cards_due"`
	CardsMastered   int     `json:"cards_mastered"`
}

// MasteryAccuracyThreshold is the accuracy rate (percent) at which a
// reviewed card counts as mastered.
const MasteryAccuracyThreshold = 90.0
