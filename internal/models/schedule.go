package models

import (
	"fmt"
	"time"
)

// State is the learning stage of a card. New is virtual: it is never
// persisted and exists only for cards without a schedule row.
type State int

const (
	StateNew State = iota
	StateLearning
	StateReview
	StateRelearning
)

var stateNames = [...]string{
	StateNew:        "new",
	StateLearning:   "learning",
	StateReview:     "review",
	StateRelearning: "relearning",
}

func (s State) String() string {
	if s >= StateNew && s <= StateRelearning {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsPersistable reports whether s may be written to the store.
// StateNew is excluded: absence of a row is the only representation of New.
func (s State) IsPersistable() bool {
	return s >= StateLearning && s <= StateRelearning
}

// Rating is the user's self-assessment of recall, 1 through 4.
type Rating int

const (
	RatingAgain Rating = iota + 1
	RatingHard
	RatingGood
	RatingEasy
)

var ratingNames = [...]string{
	RatingAgain: "again",
	RatingHard:  "hard",
	RatingGood:  "good",
	RatingEasy:  "easy",
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("rating(%d)", int(r))
}

func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// ReviewSchedule is the scheduling state of one (card, user) pair. A row is
// created on the first review submission and updated in place on every
// subsequent one; no other component mutates it.
type ReviewSchedule struct {
	ID            int64      `json:"id"`
	CardID        int64      `json:"card_id"`
	UserID        int64      `json:"user_id"`
	State         State      `json:"state"`
	Due           time.Time  `json:"due"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   int        `json:"elapsed_days"`
	ScheduledDays int        `json:"scheduled_days"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	Step          int        `json:"step"`        // learning/relearning step cursor
	LastRating    Rating     `json:"last_rating"` // analytics only, never read back by the model
	LastReview    *time.Time `json:"last_review"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewSchedule synthesizes the implicit zero state for a card that has never
// been reviewed: immediately due, all counters zero. Callers must not persist
// it; only the result of a review transition is written.
func NewSchedule(cardID, userID int64, now time.Time) ReviewSchedule {
	return ReviewSchedule{
		CardID: cardID,
		UserID: userID,
		State:  StateNew,
		Due:    now,
	}
}

// ReviewOutcome is what a review submission reports back to the caller.
type ReviewOutcome struct {
	CardID  int64     `json:"card_id"`
	NextDue time.Time `json:"next_due"`
	State   State     `json:"state"`
	Reps    int       `json:"reps"`
	Lapses  int       `json:"lapses"`
}
