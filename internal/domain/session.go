package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle status of a practice session.
type SessionStatus string

// Possible session statuses. Completed and Abandoned are terminal.
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// Valid reports whether the status is one of the defined values.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusCompleted, SessionStatusAbandoned:
		return true
	default:
		return false
	}
}

// SessionResponse is one submitted answer within a practice session.
type SessionResponse struct {
	CardID           uuid.UUID `json:"card_id"`
	Topic            string    `json:"topic"`
	Rating           Rating    `json:"rating"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	PresentedAt      time.Time `json:"presented_at"`
}

// TopicStats accumulates per-topic performance within a session.
type TopicStats struct {
	Presented        int `json:"presented"`
	Correct          int `json:"correct"`
	TotalTimeSeconds int `json:"total_time_seconds"`
}

// PracticeSession is the ephemeral aggregate for one practice run: the
// fixed card queue decided at creation, the responses collected so
// far, and the running statistics. All mutation goes through
// SubmitResponse, Complete and Abandon so the status state machine
// (Active -> Completed | Abandoned, both terminal) cannot be bypassed.
type PracticeSession struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	CourseID  uuid.UUID `json:"course_id"`

	// CardIDs is the ordered queue decided by the session builder. It
	// never changes after creation.
	CardIDs []uuid.UUID `json:"card_ids"`

	Interleaved bool `json:"interleaved"`

	Responses    []SessionResponse `json:"responses"`
	CurrentIndex int               `json:"current_index"`

	Status SessionStatus `json:"status"`

	RatingDistribution map[Rating]int         `json:"rating_distribution"`
	TopicPerformance   map[string]*TopicStats `json:"topic_performance"`

	CardsCompleted   int `json:"cards_completed"`
	TotalTimeSeconds int `json:"total_time_seconds"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// UpdatedAt changes on every mutation and is the version token for
	// the store's optimistic concurrency check.
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionSummary is the finalized result returned by Complete.
type SessionSummary struct {
	SessionID          uuid.UUID              `json:"session_id"`
	CardsCompleted     int                    `json:"cards_completed"`
	TotalCards         int                    `json:"total_cards"`
	AccuracyRate       float64                `json:"accuracy_rate"`
	TotalTimeSeconds   int                    `json:"total_time_seconds"`
	AverageTimePerCard float64                `json:"average_time_per_card"`
	RatingDistribution map[Rating]int         `json:"rating_distribution"`
	TopicPerformance   map[string]*TopicStats `json:"topic_performance"`
	StartedAt          time.Time              `json:"started_at"`
	CompletedAt        time.Time              `json:"completed_at"`
}

// NewPracticeSession creates an active session over the given ordered
// card queue. The queue may legitimately be empty when no cards are
// due; callers decide how to surface that.
func NewPracticeSession(
	studentID, courseID uuid.UUID,
	cardIDs []uuid.UUID,
	interleaved bool,
	now time.Time,
) *PracticeSession {
	return &PracticeSession{
		ID:                 uuid.New(),
		StudentID:          studentID,
		CourseID:           courseID,
		CardIDs:            cardIDs,
		Interleaved:        interleaved,
		Status:             SessionStatusActive,
		RatingDistribution: make(map[Rating]int),
		TopicPerformance:   make(map[string]*TopicStats),
		StartedAt:          now,
		UpdatedAt:          now,
	}
}

// SubmitResponse records one answered card: it appends the response,
// updates the rating distribution and the topic's running totals, and
// advances the queue position. It returns true once every card in the
// queue has been answered; the session still requires an explicit
// Complete call to finalize.
//
// Returns ErrSessionNotActive if the session has been completed or
// abandoned, and ErrCardNotInSession if the card is not part of the
// session's queue.
func (s *PracticeSession) SubmitResponse(
	cardID uuid.UUID,
	topic string,
	rating Rating,
	timeSpentSeconds int,
	now time.Time,
) (bool, error) {
	if s.Status != SessionStatusActive {
		return false, fmt.Errorf("%w: status is %s", ErrSessionNotActive, s.Status)
	}
	if !rating.Valid() {
		return false, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if !s.containsCard(cardID) {
		return false, fmt.Errorf("%w: card %s", ErrCardNotInSession, cardID)
	}

	s.Responses = append(s.Responses, SessionResponse{
		CardID:           cardID,
		Topic:            topic,
		Rating:           rating,
		TimeSpentSeconds: timeSpentSeconds,
		PresentedAt:      now,
	})

	s.RatingDistribution[rating]++

	perf, ok := s.TopicPerformance[topic]
	if !ok {
		perf = &TopicStats{}
		s.TopicPerformance[topic] = perf
	}
	perf.Presented++
	if rating.IsCorrect() {
		perf.Correct++
	}
	perf.TotalTimeSeconds += timeSpentSeconds

	s.CurrentIndex++
	s.CardsCompleted++
	s.TotalTimeSeconds += timeSpentSeconds
	s.UpdatedAt = now

	return s.CardsCompleted == len(s.CardIDs), nil
}

// Complete finalizes the session and returns its summary. Completion
// is a one-time transition: completing an already-completed session
// returns ErrSessionAlreadyCompleted rather than silently succeeding,
// and an abandoned session cannot be completed.
func (s *PracticeSession) Complete(now time.Time) (*SessionSummary, error) {
	switch s.Status {
	case SessionStatusCompleted:
		return nil, ErrSessionAlreadyCompleted
	case SessionStatusAbandoned:
		return nil, fmt.Errorf("%w: status is %s", ErrSessionNotActive, s.Status)
	}

	s.Status = SessionStatusCompleted
	s.CompletedAt = &now
	s.UpdatedAt = now

	var accuracy, avgTime float64
	if s.CardsCompleted > 0 {
		correct := s.RatingDistribution[RatingGood] + s.RatingDistribution[RatingEasy]
		accuracy = float64(correct) / float64(s.CardsCompleted) * 100
		avgTime = float64(s.TotalTimeSeconds) / float64(s.CardsCompleted)
	}

	return &SessionSummary{
		SessionID:          s.ID,
		CardsCompleted:     s.CardsCompleted,
		TotalCards:         len(s.CardIDs),
		AccuracyRate:       accuracy,
		TotalTimeSeconds:   s.TotalTimeSeconds,
		AverageTimePerCard: avgTime,
		RatingDistribution: s.RatingDistribution,
		TopicPerformance:   s.TopicPerformance,
		StartedAt:          s.StartedAt,
		CompletedAt:        now,
	}, nil
}

// Abandon marks an active session as abandoned. Terminal statuses are
// never left: abandoning a completed or already-abandoned session is
// an error.
func (s *PracticeSession) Abandon(now time.Time) error {
	if s.Status != SessionStatusActive {
		return fmt.Errorf("%w: status is %s", ErrSessionNotActive, s.Status)
	}
	s.Status = SessionStatusAbandoned
	s.CompletedAt = &now
	s.UpdatedAt = now
	return nil
}

func (s *PracticeSession) containsCard(cardID uuid.UUID) bool {
	for _, id := range s.CardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}
