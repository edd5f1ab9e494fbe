package domain

import "time"

// ReviewRecord is one immutable entry in a card's review history.
// Records are only ever appended; they capture the scheduler's view of
// the review at the time it happened so history replay does not depend
// on current parameters.
type ReviewRecord struct {
	ReviewedAt       time.Time `json:"reviewed_at"`
	Rating           Rating    `json:"rating"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	StateBefore      CardState `json:"state_before"`
	StateAfter       CardState `json:"state_after"`
	IntervalDays     float64   `json:"interval_days"`
	Stability        float64   `json:"stability"`
	Difficulty       float64   `json:"difficulty"`
}
