package models

import "time"

// Card is a flashcard. Its content is opaque to the scheduler; only ID,
// UserID and CreatedAt participate in scheduling decisions.
type Card struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
}

// DueCard pairs a card with its schedule in a study queue. For never-reviewed
// cards the schedule is the synthesized zero state (State == StateNew).
type DueCard struct {
	Card     Card           `json:"card"`
	Schedule ReviewSchedule `json:"schedule"`
}
