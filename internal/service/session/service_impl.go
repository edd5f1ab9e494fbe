package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/platform/logger"
	"github.com/mnemolabs/mnemo-api/internal/service/review"
	"github.com/mnemolabs/mnemo-api/internal/store"
)

// Verify interface compliance at compile time
var _ SessionService = (*sessionServiceImpl)(nil)

// sessionServiceImpl implements the SessionService interface.
type sessionServiceImpl struct {
	sessionStore       store.SessionStore
	reviewService      review.ReviewService
	defaultSessionSize int
	logger             *slog.Logger
	now                nowFunc
}

// NewSessionService creates a new SessionService implementation.
// defaultSessionSize is the queue length used when a caller does not
// ask for a specific count.
func NewSessionService(
	sessionStore store.SessionStore,
	reviewService review.ReviewService,
	defaultSessionSize int,
	log *slog.Logger,
) SessionService {
	if sessionStore == nil {
		panic("sessionStore cannot be nil")
	}
	if reviewService == nil {
		panic("reviewService cannot be nil")
	}
	if defaultSessionSize <= 0 {
		defaultSessionSize = 20
	}
	if log == nil {
		log = slog.Default()
	}

	return &sessionServiceImpl{
		sessionStore:       sessionStore,
		reviewService:      reviewService,
		defaultSessionSize: defaultSessionSize,
		logger:             log.With(slog.String("component", "session_service")),
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession implements SessionService.CreateSession.
func (s *sessionServiceImpl) CreateSession(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	opts CreateOptions,
) (*domain.PracticeSession, []*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	target := opts.TargetCount
	if target <= 0 {
		target = s.defaultSessionSize
	}

	// Over-fetch so the builder has enough per-topic depth to
	// alternate with.
	due, err := s.reviewService.DueCards(ctx, studentID, courseID, opts.Topics, target*2)
	if err != nil {
		return nil, nil, &ServiceError{
			Operation: "create_session",
			Message:   "failed to select due cards",
			Err:       err,
		}
	}
	if len(due) == 0 {
		return nil, nil, ErrNoCardsDue
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	queue := BuildQueue(due, target, opts.Interleaved, rng)
	cardIDs := make([]uuid.UUID, len(queue))
	for i, card := range queue {
		cardIDs[i] = card.ID
	}

	practice := domain.NewPracticeSession(studentID, courseID, cardIDs, opts.Interleaved, s.now())
	if err := s.sessionStore.Create(ctx, practice); err != nil {
		log.Error("failed to create session",
			slog.String("student_id", studentID.String()),
			slog.String("error", err.Error()))
		return nil, nil, &ServiceError{
			Operation: "create_session",
			Message:   "failed to persist session",
			Err:       err,
		}
	}

	log.Info("session created",
		slog.String("session_id", practice.ID.String()),
		slog.String("student_id", studentID.String()),
		slog.Int("cards", len(cardIDs)),
		slog.Bool("interleaved", opts.Interleaved))
	return practice, queue, nil
}

// SubmitResponse implements SessionService.SubmitResponse.
func (s *sessionServiceImpl) SubmitResponse(
	ctx context.Context,
	studentID, sessionID, cardID uuid.UUID,
	rating domain.Rating,
	timeSpentSeconds int,
) (*SubmitResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	practice, err := s.loadOwnedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	// Guard the tracker preconditions before touching the card, so a
	// rejected answer never reschedules anything.
	if practice.Status != domain.SessionStatusActive {
		return nil, fmt.Errorf("%w: status is %s", domain.ErrSessionNotActive, practice.Status)
	}
	if !containsID(practice.CardIDs, cardID) {
		return nil, domain.ErrCardNotInSession
	}

	card, err := s.reviewService.SubmitReview(ctx, studentID, cardID, rating, timeSpentSeconds)
	if err != nil {
		return nil, err
	}

	expected := practice.UpdatedAt
	done, err := practice.SubmitResponse(cardID, card.Topic, rating, timeSpentSeconds, s.now())
	if err != nil {
		// The card review is already committed; surface the tracker
		// failure without pretending to undo the schedule change.
		return nil, &ServiceError{
			Operation: "submit_response",
			Message:   "review recorded but session tracking failed",
			Err:       err,
		}
	}

	if err := s.sessionStore.Update(ctx, practice, expected); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Another answer advanced the session between our read and
			// write. The card review above is committed; the caller
			// reloads and resubmits the session-side record.
			return nil, ErrSessionConflict
		}
		log.Error("failed to persist session progress",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{
			Operation: "submit_response",
			Message:   "failed to persist session progress",
			Err:       err,
		}
	}

	return &SubmitResult{
		Card:           card,
		Done:           done,
		CardsRemaining: len(practice.CardIDs) - practice.CardsCompleted,
	}, nil
}

// CompleteSession implements SessionService.CompleteSession.
func (s *sessionServiceImpl) CompleteSession(
	ctx context.Context,
	studentID, sessionID uuid.UUID,
) (*domain.SessionSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	practice, err := s.loadOwnedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	expected := practice.UpdatedAt
	summary, err := practice.Complete(s.now())
	if err != nil {
		return nil, err
	}

	if err := s.sessionStore.Update(ctx, practice, expected); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrSessionConflict
		}
		return nil, &ServiceError{
			Operation: "complete_session",
			Message:   "failed to persist completion",
			Err:       err,
		}
	}

	log.Info("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("cards_completed", summary.CardsCompleted),
		slog.Float64("accuracy_rate", summary.AccuracyRate))
	return summary, nil
}

// AbandonSession implements SessionService.AbandonSession.
func (s *sessionServiceImpl) AbandonSession(
	ctx context.Context,
	studentID, sessionID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	practice, err := s.loadOwnedSession(ctx, studentID, sessionID)
	if err != nil {
		return err
	}

	expected := practice.UpdatedAt
	if err := practice.Abandon(s.now()); err != nil {
		return err
	}

	if err := s.sessionStore.Update(ctx, practice, expected); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrSessionConflict
		}
		return &ServiceError{
			Operation: "abandon_session",
			Message:   "failed to persist abandonment",
			Err:       err,
		}
	}

	log.Info("session abandoned",
		slog.String("session_id", sessionID.String()),
		slog.Int("cards_completed", practice.CardsCompleted))
	return nil
}

// GetSession implements SessionService.GetSession.
func (s *sessionServiceImpl) GetSession(
	ctx context.Context,
	studentID, sessionID uuid.UUID,
) (*domain.PracticeSession, error) {
	return s.loadOwnedSession(ctx, studentID, sessionID)
}

// RecentSessions implements SessionService.RecentSessions.
func (s *sessionServiceImpl) RecentSessions(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	limit int,
) ([]*domain.PracticeSession, error) {
	sessions, err := s.sessionStore.ListRecent(ctx, studentID, courseID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// StudyStats implements SessionService.StudyStats.
func (s *sessionServiceImpl) StudyStats(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	days int,
) (*StudyStats, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := s.now().AddDate(0, 0, -days)

	sessions, err := s.sessionStore.ListCompletedSince(ctx, studentID, courseID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	stats := &StudyStats{
		TopicPerformance: make(map[string]domain.TopicStats),
	}
	var correct int
	for _, sess := range sessions {
		stats.CompletedSessions++
		stats.CardsReviewed += sess.CardsCompleted
		stats.TotalTimeSeconds += sess.TotalTimeSeconds
		correct += sess.RatingDistribution[domain.RatingGood] +
			sess.RatingDistribution[domain.RatingEasy]

		for topic, ts := range sess.TopicPerformance {
			agg := stats.TopicPerformance[topic]
			agg.Presented += ts.Presented
			agg.Correct += ts.Correct
			agg.TotalTimeSeconds += ts.TotalTimeSeconds
			stats.TopicPerformance[topic] = agg
		}
	}
	if stats.CardsReviewed > 0 {
		stats.AccuracyRate = float64(correct) / float64(stats.CardsReviewed) * 100
	}

	return stats, nil
}

func (s *sessionServiceImpl) loadOwnedSession(
	ctx context.Context,
	studentID, sessionID uuid.UUID,
) (*domain.PracticeSession, error) {
	practice, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if practice.StudentID != studentID {
		return nil, ErrSessionNotOwned
	}
	return practice, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
