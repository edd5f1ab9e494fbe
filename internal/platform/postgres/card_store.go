package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/platform/logger"
	"github.com/mnemolabs/mnemo-api/internal/store"
)

// PostgresCardStore implements the store.CardStore interface using a
// PostgreSQL database as the storage backend. Memory state is stored
// in flattened columns so the due query can order and filter without
// unpacking JSON; the review history rides along as a JSONB document.
type PostgresCardStore struct {
	db store.DBTX
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresCardStore(db store.DBTX) *PostgresCardStore {
	return &PostgresCardStore{
		db: db,
	}
}

// Ensure PostgresCardStore implements store.CardStore
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTxCardStore returns a CardStore bound to the given transaction.
func (s *PostgresCardStore) WithTxCardStore(tx *sql.Tx) store.CardStore {
	return NewPostgresCardStore(tx)
}

const cardColumns = `
	id, student_id, course_id, content_ref, topic,
	stability, difficulty, elapsed_days, scheduled_days,
	reps, lapses, state, last_review,
	next_review_at, total_reviews, correct_reviews,
	accuracy_rate, average_time_seconds, review_history,
	created_at, updated_at`

// CreateMultiple implements store.CardStore.CreateMultiple
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		history, err := json.Marshal(card.ReviewHistory)
		if err != nil {
			return fmt.Errorf("failed to encode review history: %w", err)
		}

		_, err = s.db.ExecContext(ctx, query,
			card.ID,
			card.StudentID,
			card.CourseID,
			card.ContentRef,
			card.Topic,
			card.Memory.Stability,
			card.Memory.Difficulty,
			card.Memory.ElapsedDays,
			card.Memory.ScheduledDays,
			card.Memory.Reps,
			card.Memory.Lapses,
			card.Memory.State.String(),
			card.Memory.LastReview,
			card.NextReviewAt,
			card.TotalReviews,
			card.CorrectReviews,
			card.AccuracyRate,
			card.AverageTimeSeconds,
			history,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to insert card",
				"card_id", card.ID,
				"student_id", card.StudentID,
				"error", err)
			return MapError(err)
		}
	}

	return nil
}

// GetByID implements store.CardStore.GetByID
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrCardNotFound
		}
		return nil, MapError(err)
	}
	return card, nil
}

// GetByContentRef implements store.CardStore.GetByContentRef
func (s *PostgresCardStore) GetByContentRef(
	ctx context.Context,
	studentID, contentRef uuid.UUID,
) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE student_id = $1 AND content_ref = $2`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, studentID, contentRef))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrCardNotFound
		}
		return nil, MapError(err)
	}
	return card, nil
}

// GetDue implements store.CardStore.GetDue. The ordering clause is a
// contract: most overdue first, ties broken by card ID, so identical
// inputs always select the same cards.
func (s *PostgresCardStore) GetDue(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	topics []string,
	limit int,
	now time.Time,
) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE student_id = $1 AND course_id = $2 AND next_review_at <= $3`
	args := []interface{}{studentID, courseID, now.UTC()}

	if len(topics) > 0 {
		query += ` AND topic = ANY($4)`
		args = append(args, topics)
	}

	query += ` ORDER BY next_review_at ASC, id ASC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return cards, nil
}

// CountDue implements store.CardStore.CountDue
func (s *PostgresCardStore) CountDue(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	now time.Time,
	daysAhead int,
) (int, error) {
	cutoff := now.UTC().AddDate(0, 0, daysAhead)

	query := `
		SELECT COUNT(*) FROM cards
		WHERE student_id = $1 AND course_id = $2 AND next_review_at <= $3
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, studentID, courseID, cutoff).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// GetStatistics implements store.CardStore.GetStatistics. Average
// accuracy considers reviewed cards only, so a pile of fresh
// enrollments does not drag the figure to zero.
func (s *PostgresCardStore) GetStatistics(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	now time.Time,
) (*store.CardStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_reviews), 0),
			COALESCE(AVG(accuracy_rate) FILTER (WHERE total_reviews > 0), 0),
			COUNT(*) FILTER (WHERE next_review_at <= $3),
			COUNT(*) FILTER (WHERE total_reviews > 0 AND accuracy_rate >= $4)
		FROM cards
		WHERE student_id = $1 AND course_id = $2
	`

	var stats store.CardStatistics
	err := s.db.QueryRowContext(ctx, query,
		studentID, courseID, now.UTC(), store.MasteryAccuracyThreshold,
	).Scan(
		&stats.TotalCards,
		&stats.TotalReviews,
		&stats.AverageAccuracy,
		&stats.CardsDue,
		&stats.CardsMastered,
	)
	if err != nil {
		return nil, MapError(err)
	}
	return &stats, nil
}

// Update implements store.CardStore.Update. The updated_at predicate
// is the optimistic concurrency check: if another writer has touched
// the row since the caller read it, zero rows match and ErrConflict
// is returned instead of silently overwriting the newer state.
func (s *PostgresCardStore) Update(
	ctx context.Context,
	card *domain.Card,
	expectedUpdatedAt time.Time,
) error {
	log := logger.FromContext(ctx)

	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	history, err := json.Marshal(card.ReviewHistory)
	if err != nil {
		return fmt.Errorf("failed to encode review history: %w", err)
	}

	query := `
		UPDATE cards
		SET stability = $1, difficulty = $2, elapsed_days = $3,
			scheduled_days = $4, reps = $5, lapses = $6, state = $7,
			last_review = $8, next_review_at = $9, total_reviews = $10,
			correct_reviews = $11, accuracy_rate = $12,
			average_time_seconds = $13, review_history = $14,
			updated_at = $15
		WHERE id = $16 AND updated_at = $17
	`

	result, err := s.db.ExecContext(ctx, query,
		card.Memory.Stability,
		card.Memory.Difficulty,
		card.Memory.ElapsedDays,
		card.Memory.ScheduledDays,
		card.Memory.Reps,
		card.Memory.Lapses,
		card.Memory.State.String(),
		card.Memory.LastReview,
		card.NextReviewAt,
		card.TotalReviews,
		card.CorrectReviews,
		card.AccuracyRate,
		card.AverageTimeSeconds,
		history,
		card.UpdatedAt,
		card.ID,
		expectedUpdatedAt,
	)
	if err != nil {
		log.Error("failed to update card",
			"card_id", card.ID,
			"error", err)
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguish a stale read from a missing row.
		var exists bool
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM cards WHERE id = $1)`, card.ID,
		).Scan(&exists)
		if checkErr != nil {
			return MapError(checkErr)
		}
		if exists {
			log.Warn("concurrent card update detected",
				"card_id", card.ID,
				"expected_updated_at", expectedUpdatedAt)
			return store.ErrConflict
		}
		return store.ErrCardNotFound
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanCard.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card       domain.Card
		state      string
		lastReview sql.NullTime
		history    []byte
	)

	err := row.Scan(
		&card.ID,
		&card.StudentID,
		&card.CourseID,
		&card.ContentRef,
		&card.Topic,
		&card.Memory.Stability,
		&card.Memory.Difficulty,
		&card.Memory.ElapsedDays,
		&card.Memory.ScheduledDays,
		&card.Memory.Reps,
		&card.Memory.Lapses,
		&state,
		&lastReview,
		&card.NextReviewAt,
		&card.TotalReviews,
		&card.CorrectReviews,
		&card.AccuracyRate,
		&card.AverageTimeSeconds,
		&history,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cardState, err := domain.ParseCardState(state)
	if err != nil {
		return nil, fmt.Errorf("invalid stored card state %q: %w", state, err)
	}
	card.Memory.State = cardState

	if lastReview.Valid {
		t := lastReview.Time
		card.Memory.LastReview = &t
	}

	if len(history) > 0 {
		if err := json.Unmarshal(history, &card.ReviewHistory); err != nil {
			return nil, fmt.Errorf("failed to decode review history: %w", err)
		}
	}

	return &card, nil
}
