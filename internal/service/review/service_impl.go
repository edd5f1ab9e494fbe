package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/domain/srs"
	"github.com/mnemolabs/mnemo-api/internal/platform/logger"
	"github.com/mnemolabs/mnemo-api/internal/store"
)

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	db        *sql.DB
	cardStore store.CardStore
	scheduler srs.Scheduler
	logger    *slog.Logger
	now       nowFunc

	// runTx executes fn transactionally. Tests swap it for a runner
	// that calls fn directly against mock stores.
	runTx func(ctx context.Context, fn store.TxFn) error
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(
	db *sql.DB,
	cardStore store.CardStore,
	scheduler srs.Scheduler,
	log *slog.Logger,
) ReviewService {
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &reviewServiceImpl{
		db:        db,
		cardStore: cardStore,
		scheduler: scheduler,
		logger:    log.With(slog.String("component", "review_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.runTx = func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, s.db, fn)
	}
	return s
}

// EnrollCards implements ReviewService.EnrollCards.
func (s *reviewServiceImpl) EnrollCards(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	items []EnrollItem,
) (*EnrollResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(items) == 0 {
		return nil, ErrNoItemsToEnroll
	}

	result := &EnrollResult{}
	var toCreate []*domain.Card

	for _, item := range items {
		_, err := s.cardStore.GetByContentRef(ctx, studentID, item.ContentRef)
		if err == nil {
			// Already enrolled; idempotent skip.
			result.Skipped = append(result.Skipped, item.ContentRef)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, NewEnrollError("failed to check existing enrollment", err)
		}

		card, err := domain.NewCard(studentID, courseID, item.ContentRef, item.Topic)
		if err != nil {
			return nil, NewEnrollError(
				fmt.Sprintf("invalid content item %s", item.ContentRef), err)
		}
		toCreate = append(toCreate, card)
	}

	if len(toCreate) > 0 {
		err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			return s.cardStore.WithTxCardStore(tx).CreateMultiple(ctx, toCreate)
		})
		if err != nil {
			log.Error("failed to enroll cards",
				slog.String("student_id", studentID.String()),
				slog.String("course_id", courseID.String()),
				slog.String("error", err.Error()))
			return nil, NewEnrollError("failed to persist enrollment", err)
		}
	}

	result.Created = toCreate
	log.Info("cards enrolled",
		slog.String("student_id", studentID.String()),
		slog.String("course_id", courseID.String()),
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", len(result.Skipped)))
	return result, nil
}

// SubmitReview implements ReviewService.SubmitReview.
func (s *reviewServiceImpl) SubmitReview(
	ctx context.Context,
	studentID, cardID uuid.UUID,
	rating domain.Rating,
	timeSpentSeconds int,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !rating.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}

	card, err := s.loadOwnedCard(ctx, studentID, cardID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stateBefore := card.Memory.State

	memory, dueAt, err := s.scheduler.ProcessReview(card.Memory, rating, now)
	if err != nil {
		return nil, NewSubmitReviewError("failed to compute next schedule", err)
	}

	record := domain.ReviewRecord{
		ReviewedAt:       now,
		Rating:           rating,
		TimeSpentSeconds: timeSpentSeconds,
		StateBefore:      stateBefore,
		StateAfter:       memory.State,
		IntervalDays:     memory.ScheduledDays,
		Stability:        memory.Stability,
		Difficulty:       memory.Difficulty,
	}

	expected := card.UpdatedAt
	card.ApplyReview(memory, dueAt, record)

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.cardStore.WithTxCardStore(tx).Update(ctx, card, expected)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Warn("concurrent review detected",
				slog.String("card_id", cardID.String()),
				slog.String("student_id", studentID.String()))
			return nil, ErrReviewConflict
		}
		log.Error("failed to persist review",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, NewSubmitReviewError("failed to persist review", err)
	}

	log.Debug("review processed",
		slog.String("card_id", cardID.String()),
		slog.String("rating", rating.String()),
		slog.String("state", memory.State.String()),
		slog.Time("next_review_at", dueAt))
	return card, nil
}

// ResetCard implements ReviewService.ResetCard.
func (s *reviewServiceImpl) ResetCard(
	ctx context.Context,
	studentID, cardID uuid.UUID,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.loadOwnedCard(ctx, studentID, cardID)
	if err != nil {
		return nil, err
	}

	expected := card.UpdatedAt
	card.Reset(s.now())

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.cardStore.WithTxCardStore(tx).Update(ctx, card, expected)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrReviewConflict
		}
		return nil, &ServiceError{
			Operation: "reset_card",
			Message:   "failed to persist reset",
			Err:       err,
		}
	}

	log.Info("card reset", slog.String("card_id", cardID.String()))
	return card, nil
}

// DueCards implements ReviewService.DueCards.
func (s *reviewServiceImpl) DueCards(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	topics []string,
	limit int,
) ([]*domain.Card, error) {
	cards, err := s.cardStore.GetDue(ctx, studentID, courseID, topics, limit, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	return cards, nil
}

// DueCount implements ReviewService.DueCount.
func (s *reviewServiceImpl) DueCount(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	daysAhead int,
) (int, error) {
	count, err := s.cardStore.CountDue(ctx, studentID, courseID, s.now(), daysAhead)
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards: %w", err)
	}
	return count, nil
}

// CardStatistics implements ReviewService.CardStatistics.
func (s *reviewServiceImpl) CardStatistics(
	ctx context.Context,
	studentID, courseID uuid.UUID,
) (*store.CardStatistics, error) {
	stats, err := s.cardStore.GetStatistics(ctx, studentID, courseID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate card statistics: %w", err)
	}
	return stats, nil
}

// CardRetrievability implements ReviewService.CardRetrievability.
func (s *reviewServiceImpl) CardRetrievability(
	ctx context.Context,
	studentID, cardID uuid.UUID,
) (float64, error) {
	card, err := s.loadOwnedCard(ctx, studentID, cardID)
	if err != nil {
		return 0, err
	}
	return s.scheduler.Retrievability(card.Memory, s.now()), nil
}

// loadOwnedCard retrieves a card and verifies the student owns it.
// The ownership check runs before anything is returned so one student
// can never read or touch another student's card through any path.
func (s *reviewServiceImpl) loadOwnedCard(
	ctx context.Context,
	studentID, cardID uuid.UUID,
) (*domain.Card, error) {
	card, err := s.cardStore.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card.StudentID != studentID {
		return nil, ErrCardNotOwned
	}
	return card, nil
}
