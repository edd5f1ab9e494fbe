package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mnemolabs/mnemo-api/internal/domain"
)

// SessionStore defines the interface for practice session persistence.
type SessionStore interface {
	// Create saves a newly built session with its fixed card queue.
	Create(ctx context.Context, session *domain.PracticeSession) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PracticeSession, error)

	// Update persists the session's responses, statistics, and status
	// after a tracker mutation. expectedUpdatedAt is the UpdatedAt
	// value the caller read; if another writer got there first the
	// update does not apply and ErrConflict is returned, so two
	// simultaneous answers to one session cannot silently erase each
	// other's progress.
	Update(ctx context.Context, session *domain.PracticeSession, expectedUpdatedAt time.Time) error

	// ListRecent retrieves the student's most recently started
	// sessions for a course, newest first.
	ListRecent(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		limit int,
	) ([]*domain.PracticeSession, error)

	// ListCompletedSince retrieves the student's completed sessions
	// for a course started at or after the cutoff, newest first. Used
	// for trailing-window study statistics.
	ListCompletedSince(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		since time.Time,
	) ([]*domain.PracticeSession, error)

	// WithTxSessionStore returns a SessionStore bound to the given transaction.
	WithTxSessionStore(tx *sql.Tx) SessionStore
}
