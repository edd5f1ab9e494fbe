package domain

import (
	"time"

	"github.com/google/uuid"
)

// Card is one review item owned by a single student. It carries the
// scheduler's memory snapshot, the topic used for session
// interleaving, aggregate answer statistics, and the append-only
// review history. Cards are created once at enrollment and mutated
// only through ApplyReview (or Reset), one review at a time.
type Card struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	CourseID  uuid.UUID `json:"course_id"`

	// ContentRef points at the question content held by the question
	// store; the engine never interprets it.
	ContentRef uuid.UUID `json:"content_ref"`

	// Topic groups cards for interleaved practice. Never empty.
	Topic string `json:"topic"`

	Memory MemoryState `json:"memory"`

	// NextReviewAt is when the card next becomes due. Set to the
	// enrollment time for a new card so it is available immediately.
	NextReviewAt time.Time `json:"next_review_at"`

	// Aggregate answer statistics, maintained by ApplyReview.
	TotalReviews       int     `json:"total_reviews"`
	CorrectReviews     int     `json:"correct_reviews"`
	AccuracyRate       float64 `json:"accuracy_rate"`
	AverageTimeSeconds float64 `json:"average_time_seconds"`

	ReviewHistory []ReviewRecord `json:"review_history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a freshly enrolled card for the given student,
// course and content item. The card starts in the New state and is
// due immediately. Returns an error if validation fails.
func NewCard(studentID, courseID, contentRef uuid.UUID, topic string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:           uuid.New(),
		StudentID:    studentID,
		CourseID:     courseID,
		ContentRef:   contentRef,
		Topic:        topic,
		Memory:       NewMemoryState(),
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if c.StudentID == uuid.Nil {
		return ErrCardStudentIDEmpty
	}
	if c.CourseID == uuid.Nil {
		return ErrCardCourseIDEmpty
	}
	if c.ContentRef == uuid.Nil {
		return ErrCardContentRefEmpty
	}
	if c.Topic == "" {
		return ErrCardTopicEmpty
	}
	return c.Memory.Validate()
}

// ApplyReview installs the post-review memory snapshot and due time,
// updates the aggregate answer statistics, and appends the review
// record to the history. The record's fields must describe the review
// that produced the snapshot.
func (c *Card) ApplyReview(memory MemoryState, dueAt time.Time, record ReviewRecord) {
	c.Memory = memory
	c.NextReviewAt = dueAt

	c.TotalReviews++
	if record.Rating.IsCorrect() {
		c.CorrectReviews++
	}
	c.AccuracyRate = float64(c.CorrectReviews) / float64(c.TotalReviews) * 100

	// Running average over all reviews, including this one.
	totalTime := c.AverageTimeSeconds*float64(c.TotalReviews-1) + float64(record.TimeSpentSeconds)
	c.AverageTimeSeconds = totalTime / float64(c.TotalReviews)

	c.ReviewHistory = append(c.ReviewHistory, record)
	c.UpdatedAt = record.ReviewedAt
}

// Reset reinitializes the card's memory state and clears its history
// and statistics, making it due immediately. This is the only path
// back to the New state after enrollment.
func (c *Card) Reset(now time.Time) {
	c.Memory = NewMemoryState()
	c.NextReviewAt = now
	c.TotalReviews = 0
	c.CorrectReviews = 0
	c.AccuracyRate = 0
	c.AverageTimeSeconds = 0
	c.ReviewHistory = nil
	c.UpdatedAt = now
}

// IsDueAt reports whether the card is due for review at the given time.
func (c *Card) IsDueAt(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}
