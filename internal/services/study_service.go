package services

import (
	"context"
	"time"

	"github.com/mlopez/flashdeck/internal/errors"
	"github.com/mlopez/flashdeck/internal/logger"
	"github.com/mlopez/flashdeck/internal/models"
	"github.com/mlopez/flashdeck/internal/repository"
)

const (
	// MaxDueLimit bounds a single due-card query.
	MaxDueLimit = 100
	// DefaultDueLimit is used when the caller does not specify a limit.
	DefaultDueLimit = 20

	// maxNewPerDay caps the new-card contribution to the due-today count,
	// so a large backlog of never-studied cards does not inflate it.
	maxNewPerDay = 10
)

// ReviewPolicy is the pluggable spaced-repetition transition function.
// Implementations must be stateless and safe for concurrent use.
type ReviewPolicy interface {
	NextSchedule(prev models.ReviewSchedule, rating models.Rating, now time.Time) (models.ReviewSchedule, error)
}

// StudyService handles due-card selection, review submission and study stats.
type StudyService interface {
	GetDueCards(ctx context.Context, userID int64, limit int) ([]models.DueCard, error)
	SubmitReview(ctx context.Context, userID, cardID int64, rating models.Rating) (*models.ReviewOutcome, error)
	GetStats(ctx context.Context, userID int64) (*models.StudyStats, error)
}

type studyService struct {
	cards     repository.CardRepository
	schedules repository.ScheduleRepository
	policy    ReviewPolicy
}

// NewStudyService creates a new StudyService
func NewStudyService(cards repository.CardRepository, schedules repository.ScheduleRepository, policy ReviewPolicy) StudyService {
	return &studyService{cards: cards, schedules: schedules, policy: policy}
}

// GetDueCards returns the study queue: schedules due at or before now,
// earliest first, then never-reviewed cards oldest first, capped at limit.
// Pure read, no side effects.
func (s *studyService) GetDueCards(ctx context.Context, userID int64, limit int) ([]models.DueCard, error) {
	log := logger.FromContext(ctx)

	if limit <= 0 {
		return nil, errors.NewValidationError("limit", "must be positive")
	}
	if limit > MaxDueLimit {
		limit = MaxDueLimit
	}
	log.Debug("getting due cards: user_id=%d, limit=%d", userID, limit)

	now := time.Now()
	queue, err := s.schedules.FindDue(ctx, userID, now, limit)
	if err != nil {
		log.Error("failed to query due schedules: %v", err)
		return nil, errors.NewInternalError(err)
	}

	remaining := limit - len(queue)
	if remaining <= 0 {
		return queue, nil
	}

	fresh, err := s.cards.WithoutSchedule(ctx, userID, remaining)
	if err != nil {
		log.Error("failed to query new cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	for _, c := range fresh {
		queue = append(queue, models.DueCard{
			Card:     c,
			Schedule: models.NewSchedule(c.ID, userID, now),
		})
	}

	log.Debug("due queue built: %d overdue + %d new", len(queue)-len(fresh), len(fresh))
	return queue, nil
}

// SubmitReview applies one rating to a card and persists the next schedule.
//
// Concurrent submissions for the same (user, card) race on the upsert: the
// last write wins. The schedule row carries no concurrency token; a review
// is a single read-then-write and losing one of two simultaneous ratings of
// the same card is acceptable.
func (s *studyService) SubmitReview(ctx context.Context, userID, cardID int64, rating models.Rating) (*models.ReviewOutcome, error) {
	log := logger.FromContext(ctx)
	log.Debug("submitting review: user_id=%d, card_id=%d, rating=%s", userID, cardID, rating)

	if !rating.IsValid() {
		return nil, errors.NewValidationError("rating", "must be between 1 and 4")
	}

	// Ownership check before any mutation. A card belonging to another user
	// is indistinguishable from a missing card.
	card, err := s.cards.Get(ctx, cardID, userID)
	if err != nil {
		log.Error("failed to load card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", cardID)
	}

	now := time.Now()
	prev, err := s.schedules.FindOne(ctx, cardID, userID)
	if err != nil {
		log.Error("failed to load schedule: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if prev == nil {
		zero := models.NewSchedule(cardID, userID, now)
		prev = &zero
	}

	next, err := s.policy.NextSchedule(*prev, rating, now)
	if err != nil {
		log.Error("review policy failed: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if err := checkScheduleInvariants(next, now); err != nil {
		log.Error("rejecting invalid schedule from policy: %v", err)
		return nil, err
	}

	if err := s.schedules.Upsert(ctx, next); err != nil {
		log.Error("failed to persist schedule: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("review recorded: card_id=%d, rating=%s, state=%s, next_due=%s",
		cardID, rating, next.State, next.Due.Format(time.RFC3339))
	return &models.ReviewOutcome{
		CardID:  cardID,
		NextDue: next.Due,
		State:   next.State,
		Reps:    next.Reps,
		Lapses:  next.Lapses,
	}, nil
}

// checkScheduleInvariants guards persistence against a misbehaving policy.
// An invalid result must never be written.
func checkScheduleInvariants(s models.ReviewSchedule, now time.Time) *errors.AppError {
	switch {
	case !s.State.IsPersistable():
		return errors.NewModelInvariantError("state " + s.State.String() + " is not persistable")
	case s.Stability <= 0:
		return errors.NewModelInvariantError("non-positive stability")
	case s.Difficulty < 1 || s.Difficulty > 10:
		return errors.NewModelInvariantError("difficulty out of range")
	case !s.Due.After(now):
		return errors.NewModelInvariantError("due not in the future")
	case s.ElapsedDays < 0 || s.ScheduledDays < 0 || s.Reps < 0 || s.Lapses < 0:
		return errors.NewModelInvariantError("negative counter")
	}
	return nil
}

// GetStats summarizes the user's study load. Pure read.
func (s *studyService) GetStats(ctx context.Context, userID int64) (*models.StudyStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting study stats: user_id=%d", userID)

	total, err := s.cards.Count(ctx, userID)
	if err != nil {
		log.Error("failed to count cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	scheduled, err := s.schedules.CountScheduled(ctx, userID)
	if err != nil {
		log.Error("failed to count schedules: %v", err)
		return nil, errors.NewInternalError(err)
	}
	newCards := total - scheduled
	if newCards < 0 {
		newCards = 0
	}

	states, err := s.schedules.StateCounts(ctx, userID)
	if err != nil {
		log.Error("failed to count schedule states: %v", err)
		return nil, errors.NewInternalError(err)
	}

	dueCount, err := s.schedules.CountDue(ctx, userID, time.Now())
	if err != nil {
		log.Error("failed to count due schedules: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return &models.StudyStats{
		TotalCards:    total,
		NewCards:      newCards,
		LearningCards: states[models.StateLearning] + states[models.StateRelearning],
		ReviewCards:   states[models.StateReview],
		DueToday:      dueCount + min(newCards, maxNewPerDay),
	}, nil
}
