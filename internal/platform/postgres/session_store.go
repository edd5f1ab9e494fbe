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

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend. The card queue,
// responses and running statistics are JSONB documents: sessions are
// always loaded and saved whole, never queried by their internals.
type PostgresSessionStore struct {
	db store.DBTX
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of
// the SessionStore interface.
func NewPostgresSessionStore(db store.DBTX) *PostgresSessionStore {
	return &PostgresSessionStore{
		db: db,
	}
}

// Ensure PostgresSessionStore implements store.SessionStore
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// WithTxSessionStore returns a SessionStore bound to the given transaction.
func (s *PostgresSessionStore) WithTxSessionStore(tx *sql.Tx) store.SessionStore {
	return NewPostgresSessionStore(tx)
}

const sessionColumns = `
	id, student_id, course_id, card_ids, interleaved,
	responses, current_index, status, rating_distribution,
	topic_performance, cards_completed, total_time_seconds,
	started_at, completed_at, updated_at`

type sessionDocuments struct {
	cardIDs            []byte
	responses          []byte
	ratingDistribution []byte
	topicPerformance   []byte
}

func encodeSessionDocuments(session *domain.PracticeSession) (*sessionDocuments, error) {
	cardIDs, err := json.Marshal(session.CardIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode card queue: %w", err)
	}
	responses, err := json.Marshal(session.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses: %w", err)
	}
	ratings, err := json.Marshal(session.RatingDistribution)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rating distribution: %w", err)
	}
	topics, err := json.Marshal(session.TopicPerformance)
	if err != nil {
		return nil, fmt.Errorf("failed to encode topic performance: %w", err)
	}
	return &sessionDocuments{
		cardIDs:            cardIDs,
		responses:          responses,
		ratingDistribution: ratings,
		topicPerformance:   topics,
	}, nil
}

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.PracticeSession) error {
	log := logger.FromContext(ctx)

	docs, err := encodeSessionDocuments(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO practice_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		session.StudentID,
		session.CourseID,
		docs.cardIDs,
		session.Interleaved,
		docs.responses,
		session.CurrentIndex,
		string(session.Status),
		docs.ratingDistribution,
		docs.topicPerformance,
		session.CardsCompleted,
		session.TotalTimeSeconds,
		session.StartedAt,
		session.CompletedAt,
		session.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert session",
			"session_id", session.ID,
			"student_id", session.StudentID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.SessionStore.GetByID
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.PracticeSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM practice_sessions WHERE id = $1`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrSessionNotFound
		}
		return nil, MapError(err)
	}
	return session, nil
}

// Update implements store.SessionStore.Update. The updated_at
// predicate is the optimistic concurrency check: a zero-row update
// means either the session vanished or another writer advanced it
// first, and a follow-up existence probe tells the two apart.
func (s *PostgresSessionStore) Update(
	ctx context.Context,
	session *domain.PracticeSession,
	expectedUpdatedAt time.Time,
) error {
	log := logger.FromContext(ctx)

	docs, err := encodeSessionDocuments(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE practice_sessions
		SET responses = $1, current_index = $2, status = $3,
			rating_distribution = $4, topic_performance = $5,
			cards_completed = $6, total_time_seconds = $7,
			completed_at = $8, updated_at = $9
		WHERE id = $10 AND updated_at = $11
	`

	result, err := s.db.ExecContext(ctx, query,
		docs.responses,
		session.CurrentIndex,
		string(session.Status),
		docs.ratingDistribution,
		docs.topicPerformance,
		session.CardsCompleted,
		session.TotalTimeSeconds,
		session.CompletedAt,
		session.UpdatedAt,
		session.ID,
		expectedUpdatedAt,
	)
	if err != nil {
		log.Error("failed to update session",
			"session_id", session.ID,
			"error", err)
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		existsQuery := `SELECT EXISTS(SELECT 1 FROM practice_sessions WHERE id = $1)`
		if err := s.db.QueryRowContext(ctx, existsQuery, session.ID).Scan(&exists); err != nil {
			return MapError(err)
		}
		if exists {
			return store.ErrConflict
		}
		return store.ErrSessionNotFound
	}

	return nil
}

// ListRecent implements store.SessionStore.ListRecent
func (s *PostgresSessionStore) ListRecent(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	limit int,
) ([]*domain.PracticeSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM practice_sessions
		WHERE student_id = $1 AND course_id = $2
		ORDER BY started_at DESC, id ASC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, studentID, courseID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.PracticeSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return sessions, nil
}

// ListCompletedSince implements store.SessionStore.ListCompletedSince
func (s *PostgresSessionStore) ListCompletedSince(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	since time.Time,
) ([]*domain.PracticeSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM practice_sessions
		WHERE student_id = $1 AND course_id = $2
			AND status = $3 AND started_at >= $4
		ORDER BY started_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query,
		studentID, courseID, string(domain.SessionStatusCompleted), since)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.PracticeSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return sessions, nil
}

func scanSession(row rowScanner) (*domain.PracticeSession, error) {
	var (
		session     domain.PracticeSession
		status      string
		cardIDs     []byte
		responses   []byte
		ratings     []byte
		topics      []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&session.ID,
		&session.StudentID,
		&session.CourseID,
		&cardIDs,
		&session.Interleaved,
		&responses,
		&session.CurrentIndex,
		&status,
		&ratings,
		&topics,
		&session.CardsCompleted,
		&session.TotalTimeSeconds,
		&session.StartedAt,
		&completedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Status = domain.SessionStatus(status)
	if !session.Status.Valid() {
		return nil, fmt.Errorf("invalid stored session status %q", status)
	}

	if err := json.Unmarshal(cardIDs, &session.CardIDs); err != nil {
		return nil, fmt.Errorf("failed to decode card queue: %w", err)
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &session.Responses); err != nil {
			return nil, fmt.Errorf("failed to decode responses: %w", err)
		}
	}
	if err := json.Unmarshal(ratings, &session.RatingDistribution); err != nil {
		return nil, fmt.Errorf("failed to decode rating distribution: %w", err)
	}
	if err := json.Unmarshal(topics, &session.TopicPerformance); err != nil {
		return nil, fmt.Errorf("failed to decode topic performance: %w", err)
	}

	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}

	return &session, nil
}
