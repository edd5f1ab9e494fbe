package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/mnemolabs/mnemo-api/internal/domain"
)

// EnrollItemRequest is one content item in an enrollment batch.
type EnrollItemRequest struct {
	ContentRef uuid.UUID `json:"content_ref" validate:"required"`
	Topic      string    `json:"topic"       validate:"required"`
}

// EnrollCardsRequest is the body for POST .../cards.
type EnrollCardsRequest struct {
	Items []EnrollItemRequest `json:"items" validate:"required,min=1,dive"`
}

// EnrollCardsResponse reports a batch enrollment outcome.
type EnrollCardsResponse struct {
	Created []CardResponse `json:"created"`
	Skipped []uuid.UUID    `json:"skipped"`
}

// ReviewRequest is the body for POST /cards/{cardID}/review.
type ReviewRequest struct {
	StudentID        uuid.UUID `json:"student_id"         validate:"required"`
	Rating           int       `json:"rating"             validate:"required,min=1,max=4"`
	TimeSpentSeconds int       `json:"time_spent_seconds" validate:"min=0"`
}

// CardResponse is the wire form of a card and its schedule.
type CardResponse struct {
	ID                 uuid.UUID `json:"id"`
	StudentID          uuid.UUID `json:"student_id"`
	CourseID           uuid.UUID `json:"course_id"`
	ContentRef         uuid.UUID `json:"content_ref"`
	Topic              string    `json:"topic"`
	State              string    `json:"state"`
	Stability          float64   `json:"stability"`
	Difficulty         float64   `json:"difficulty"`
	Reps               int       `json:"reps"`
	Lapses             int       `json:"lapses"`
	NextReviewAt       time.Time `json:"next_review_at"`
	TotalReviews       int       `json:"total_reviews"`
	AccuracyRate       float64   `json:"accuracy_rate"`
	AverageTimeSeconds float64   `json:"average_time_seconds"`
}

// NewCardResponse converts a domain card to its wire form. The full
// review history is deliberately not exposed on card endpoints.
func NewCardResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:                 card.ID,
		StudentID:          card.StudentID,
		CourseID:           card.CourseID,
		ContentRef:         card.ContentRef,
		Topic:              card.Topic,
		State:              card.Memory.State.String(),
		Stability:          card.Memory.Stability,
		Difficulty:         card.Memory.Difficulty,
		Reps:               card.Memory.Reps,
		Lapses:             card.Memory.Lapses,
		NextReviewAt:       card.NextReviewAt,
		TotalReviews:       card.TotalReviews,
		AccuracyRate:       card.AccuracyRate,
		AverageTimeSeconds: card.AverageTimeSeconds,
	}
}

// NewCardResponses converts a slice of domain cards.
func NewCardResponses(cards []*domain.Card) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i, card := range cards {
		out[i] = NewCardResponse(card)
	}
	return out
}

// DueCountResponse is the body for GET .../cards/due/count.
type DueCountResponse struct {
	Count     int `json:"count"`
	DaysAhead int `json:"days_ahead"`
}

// CardStatisticsResponse is the body for GET .../cards/statistics.
type CardStatisticsResponse struct {
	TotalCards      int     `json:"total_cards"`
	TotalReviews    int     `json:"total_reviews"`
	AverageAccuracy float64 `json:"average_accuracy"`
	CardsDue        int     `json:"cards_due"`
	CardsMastered   int     `json:"cards_mastered"`
}

// RetrievabilityResponse is the body for GET /cards/{cardID}/retrievability.
type RetrievabilityResponse struct {
	CardID         uuid.UUID `json:"card_id"`
	Retrievability float64   `json:"retrievability"`
}

// CreateSessionRequest is the body for POST /sessions.
type CreateSessionRequest struct {
	StudentID   uuid.UUID `json:"student_id"   validate:"required"`
	CourseID    uuid.UUID `json:"course_id"    validate:"required"`
	TargetCount int       `json:"target_count" validate:"min=0"`
	Topics      []string  `json:"topics"`
	Interleaved *bool     `json:"interleaved"`
	Seed        *int64    `json:"seed"`
}

// SessionResponse is the wire form of a practice session.
type SessionResponse struct {
	ID             uuid.UUID  `json:"id"`
	StudentID      uuid.UUID  `json:"student_id"`
	CourseID       uuid.UUID  `json:"course_id"`
	Status         string     `json:"status"`
	Interleaved    bool       `json:"interleaved"`
	TotalCards     int        `json:"total_cards"`
	CardsCompleted int        `json:"cards_completed"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewSessionResponse converts a domain session to its wire form.
func NewSessionResponse(s *domain.PracticeSession) SessionResponse {
	return SessionResponse{
		ID:             s.ID,
		StudentID:      s.StudentID,
		CourseID:       s.CourseID,
		Status:         string(s.Status),
		Interleaved:    s.Interleaved,
		TotalCards:     len(s.CardIDs),
		CardsCompleted: s.CardsCompleted,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
	}
}

// CreateSessionResponse is the body returned by POST /sessions. An
// empty Cards list with a nil Session means nothing was due.
type CreateSessionResponse struct {
	Session *SessionResponse `json:"session,omitempty"`
	Cards   []CardResponse   `json:"cards"`
}

// SessionAnswerRequest is the body for POST /sessions/{sessionID}/responses.
type SessionAnswerRequest struct {
	StudentID        uuid.UUID `json:"student_id"         validate:"required"`
	CardID           uuid.UUID `json:"card_id"            validate:"required"`
	Rating           int       `json:"rating"             validate:"required,min=1,max=4"`
	TimeSpentSeconds int       `json:"time_spent_seconds" validate:"min=0"`
}

// SessionAnswerResponse reports the outcome of one session answer.
type SessionAnswerResponse struct {
	Card           CardResponse `json:"card"`
	Done           bool         `json:"done"`
	CardsRemaining int          `json:"cards_remaining"`
}

// StudentScopedRequest carries the acting student for operations whose
// body has no other fields.
type StudentScopedRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
}
