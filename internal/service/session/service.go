// Package session builds interleaved practice sessions from due cards
// and tracks their progress.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mnemolabs/mnemo-api/internal/domain"
)

// CreateOptions controls how a practice session is built.
type CreateOptions struct {
	// TargetCount is the desired queue length. Zero uses the
	// configured default session size.
	TargetCount int

	// Topics optionally restricts the session to the given topics.
	Topics []string

	// Interleaved selects topic-alternating ordering. Plain due-order
	// blocks are the alternative.
	Interleaved bool

	// Seed pins the session builder's randomness for reproducible
	// queues. Nil seeds from the clock.
	Seed *int64
}

// SubmitResult reports the outcome of one session answer.
type SubmitResult struct {
	// Card is the reviewed card with its updated schedule.
	Card *domain.Card `json:"card"`

	// Done is true once every card in the queue has been answered.
	Done bool `json:"done"`

	// CardsRemaining is the number of unanswered cards left.
	CardsRemaining int `json:"cards_remaining"`
}

// StudyStats aggregates a student's recently completed practice
// sessions. Active and abandoned sessions do not contribute.
type StudyStats struct {
	CompletedSessions int                          `json:"completed_sessions"`
	CardsReviewed     int                          `json:"cards_reviewed"`
	TotalTimeSeconds  int                          `json:"total_time_seconds"`
	AccuracyRate      float64                      `json:"accuracy_rate"`
	TopicPerformance  map[string]domain.TopicStats `json:"topic_performance"`
}

// SessionService builds practice sessions from due cards and tracks
// their progress. Submitting an answer through a session also runs the
// card review, so one session answer is exactly one card review.
type SessionService interface {
	// CreateSession selects due cards, orders them into a queue, and
	// persists a new active session. Returns the session and its cards
	// in queue order. Returns ErrNoCardsDue when nothing is due; the
	// caller decides whether that is an empty session or an error.
	CreateSession(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		opts CreateOptions,
	) (*domain.PracticeSession, []*domain.Card, error)

	// SubmitResponse records one answer: the card is reviewed and
	// rescheduled, then the session's progress and statistics advance.
	SubmitResponse(
		ctx context.Context,
		studentID, sessionID, cardID uuid.UUID,
		rating domain.Rating,
		timeSpentSeconds int,
	) (*SubmitResult, error)

	// CompleteSession finalizes an active session and returns its summary.
	CompleteSession(
		ctx context.Context,
		studentID, sessionID uuid.UUID,
	) (*domain.SessionSummary, error)

	// AbandonSession marks an active session as abandoned. Progress
	// already recorded is kept; card schedules are never rolled back.
	AbandonSession(ctx context.Context, studentID, sessionID uuid.UUID) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, studentID, sessionID uuid.UUID) (*domain.PracticeSession, error)

	// RecentSessions lists the student's most recent sessions for a
	// course, newest first.
	RecentSessions(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		limit int,
	) ([]*domain.PracticeSession, error)

	// StudyStats aggregates completed sessions over the trailing
	// number of days. Active and abandoned sessions are excluded so
	// partial runs never skew accuracy.
	StudyStats(
		ctx context.Context,
		studentID, courseID uuid.UUID,
		days int,
	) (*StudyStats, error)
}

// Common error types for SessionService
var (
	// ErrNoCardsDue indicates that the student has no cards due for practice.
	ErrNoCardsDue = errors.New("no cards due for practice")

	// ErrSessionNotFound indicates that the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotOwned indicates that the session belongs to another student.
	ErrSessionNotOwned = errors.New("unauthorized access: session not owned by student")

	// ErrSessionConflict indicates the session was modified concurrently
	// while an answer was being recorded. The caller should reload the
	// session and retry.
	ErrSessionConflict = errors.New("session was modified concurrently, please retry")
)

// ServiceError wraps errors from the session service with the failed
// operation, mirroring the review service's error shape.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
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

// nowFunc returns the current time; overridable in tests.
type nowFunc func() time.Time
