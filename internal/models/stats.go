package models

// StudyStats summarizes a user's study load.
//
// LearningCards includes relearning cards: the distinction does not matter
// for load, both need short-interval attention.
type StudyStats struct {
	TotalCards    int `json:"total_cards"`
	NewCards      int `json:"new_cards"`
	LearningCards int `json:"learning_cards"`
	ReviewCards   int `json:"review_cards"`
	DueToday      int `json:"due_today"`
}
