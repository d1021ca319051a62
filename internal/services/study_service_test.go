package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mlopez/flashdeck/internal/errors"
	"github.com/mlopez/flashdeck/internal/models"
	"github.com/mlopez/flashdeck/internal/scheduler"
	"github.com/mlopez/flashdeck/internal/testutil/mocks"
)

func newStudyService(t *testing.T) (StudyService, *mocks.MockCardRepository, *mocks.MockScheduleRepository) {
	t.Helper()

	policy, err := scheduler.New(scheduler.Config{})
	require.NoError(t, err)

	cards := new(mocks.MockCardRepository)
	schedules := new(mocks.MockScheduleRepository)
	return NewStudyService(cards, schedules, policy), cards, schedules
}

func dueCardFixture(cardID, userID int64, due time.Time) models.DueCard {
	return models.DueCard{
		Card: models.Card{ID: cardID, UserID: userID, Front: "front"},
		Schedule: models.ReviewSchedule{
			CardID:     cardID,
			UserID:     userID,
			State:      models.StateReview,
			Due:        due,
			Stability:  5,
			Difficulty: 5,
		},
	}
}

func TestGetDueCardsRejectsNonPositiveLimit(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	for _, limit := range []int{0, -1} {
		_, err := svc.GetDueCards(context.Background(), 1, limit)
		require.Error(t, err)

		var appErr *errors.AppError
		require.True(t, stderrors.As(err, &appErr))
		assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
	}
	cards.AssertNotCalled(t, "WithoutSchedule", mock.Anything, mock.Anything, mock.Anything)
	schedules.AssertNotCalled(t, "FindDue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetDueCardsClampsLimit(t *testing.T) {
	svc, _, schedules := newStudyService(t)

	schedules.On("FindDue", mock.Anything, int64(1), mock.Anything, MaxDueLimit).
		Return(make([]models.DueCard, MaxDueLimit), nil)

	queue, err := svc.GetDueCards(context.Background(), 1, 5000)
	require.NoError(t, err)
	assert.Len(t, queue, MaxDueLimit)
	schedules.AssertExpectations(t)
}

func TestGetDueCardsMergesNewCards(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	now := time.Now()
	overdue := []models.DueCard{
		dueCardFixture(1, 1, now.Add(-48*time.Hour)),
		dueCardFixture(2, 1, now.Add(-time.Hour)),
	}
	fresh := []models.Card{
		{ID: 3, UserID: 1, Front: "never studied"},
		{ID: 4, UserID: 1, Front: "also new"},
	}

	schedules.On("FindDue", mock.Anything, int64(1), mock.Anything, 10).Return(overdue, nil)
	cards.On("WithoutSchedule", mock.Anything, int64(1), 8).Return(fresh, nil)

	queue, err := svc.GetDueCards(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, queue, 4)

	// Overdue schedules come first, new cards after.
	assert.Equal(t, int64(1), queue[0].Card.ID)
	assert.Equal(t, int64(2), queue[1].Card.ID)
	assert.Equal(t, int64(3), queue[2].Card.ID)
	assert.Equal(t, int64(4), queue[3].Card.ID)

	assert.Equal(t, models.StateNew, queue[2].Schedule.State)
	assert.Equal(t, 0, queue[2].Schedule.Reps)
	cards.AssertExpectations(t)
	schedules.AssertExpectations(t)
}

func TestGetDueCardsSkipsNewCardsWhenFull(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	now := time.Now()
	overdue := []models.DueCard{
		dueCardFixture(1, 1, now.Add(-time.Hour)),
		dueCardFixture(2, 1, now.Add(-time.Minute)),
	}
	schedules.On("FindDue", mock.Anything, int64(1), mock.Anything, 2).Return(overdue, nil)

	queue, err := svc.GetDueCards(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, queue, 2)
	cards.AssertNotCalled(t, "WithoutSchedule", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReviewInvalidRating(t *testing.T) {
	svc, cards, _ := newStudyService(t)

	_, err := svc.SubmitReview(context.Background(), 1, 1, models.Rating(9))
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
	cards.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReviewUnknownCard(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	// A card owned by someone else loads as nil, same as a missing one.
	cards.On("Get", mock.Anything, int64(42), int64(1)).Return(nil, nil)

	_, err := svc.SubmitReview(context.Background(), 1, 42, models.RatingGood)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	schedules.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSubmitReviewFirstReview(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	cards.On("Get", mock.Anything, int64(7), int64(1)).
		Return(&models.Card{ID: 7, UserID: 1, Front: "front"}, nil)
	schedules.On("FindOne", mock.Anything, int64(7), int64(1)).Return(nil, nil)

	var persisted models.ReviewSchedule
	schedules.On("Upsert", mock.Anything, mock.AnythingOfType("models.ReviewSchedule")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(models.ReviewSchedule)
		}).
		Return(nil)

	outcome, err := svc.SubmitReview(context.Background(), 1, 7, models.RatingGood)
	require.NoError(t, err)

	assert.Equal(t, int64(7), outcome.CardID)
	assert.Equal(t, models.StateLearning, outcome.State)
	assert.Equal(t, 1, outcome.Reps)
	assert.Equal(t, 0, outcome.Lapses)
	assert.True(t, outcome.NextDue.After(time.Now()))

	assert.Equal(t, int64(7), persisted.CardID)
	assert.Equal(t, int64(1), persisted.UserID)
	assert.Equal(t, models.RatingGood, persisted.LastRating)
	assert.Greater(t, persisted.Stability, 0.0)
	schedules.AssertExpectations(t)
}

func TestSubmitReviewExistingSchedule(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	last := time.Now().AddDate(0, 0, -10)
	prev := &models.ReviewSchedule{
		CardID:     7,
		UserID:     1,
		State:      models.StateReview,
		Due:        time.Now().Add(-time.Hour),
		Stability:  10,
		Difficulty: 5,
		Reps:       4,
		Lapses:     1,
		LastReview: &last,
	}

	cards.On("Get", mock.Anything, int64(7), int64(1)).
		Return(&models.Card{ID: 7, UserID: 1}, nil)
	schedules.On("FindOne", mock.Anything, int64(7), int64(1)).Return(prev, nil)
	schedules.On("Upsert", mock.Anything, mock.AnythingOfType("models.ReviewSchedule")).Return(nil)

	outcome, err := svc.SubmitReview(context.Background(), 1, 7, models.RatingAgain)
	require.NoError(t, err)

	assert.Equal(t, models.StateRelearning, outcome.State)
	assert.Equal(t, 5, outcome.Reps)
	assert.Equal(t, 2, outcome.Lapses)
	schedules.AssertExpectations(t)
}

// brokenPolicy returns a schedule violating the model invariants.
type brokenPolicy struct{}

func (brokenPolicy) NextSchedule(prev models.ReviewSchedule, rating models.Rating, now time.Time) (models.ReviewSchedule, error) {
	next := prev
	next.State = models.StateReview
	next.Stability = -1
	next.Difficulty = 5
	next.Due = now.Add(24 * time.Hour)
	return next, nil
}

func TestSubmitReviewRejectsInvalidPolicyResult(t *testing.T) {
	cards := new(mocks.MockCardRepository)
	schedules := new(mocks.MockScheduleRepository)
	svc := NewStudyService(cards, schedules, brokenPolicy{})

	cards.On("Get", mock.Anything, int64(7), int64(1)).
		Return(&models.Card{ID: 7, UserID: 1}, nil)
	schedules.On("FindOne", mock.Anything, int64(7), int64(1)).Return(nil, nil)

	_, err := svc.SubmitReview(context.Background(), 1, 7, models.RatingGood)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeModelInvariant, appErr.Code)
	schedules.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSubmitReviewStoreFailure(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	cards.On("Get", mock.Anything, int64(7), int64(1)).
		Return(&models.Card{ID: 7, UserID: 1}, nil)
	schedules.On("FindOne", mock.Anything, int64(7), int64(1)).Return(nil, nil)
	schedules.On("Upsert", mock.Anything, mock.AnythingOfType("models.ReviewSchedule")).
		Return(stderrors.New("disk I/O error"))

	_, err := svc.SubmitReview(context.Background(), 1, 7, models.RatingGood)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeInternal, appErr.Code)
}

func TestGetStats(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	cards.On("Count", mock.Anything, int64(1)).Return(40, nil)
	schedules.On("CountScheduled", mock.Anything, int64(1)).Return(15, nil)
	schedules.On("StateCounts", mock.Anything, int64(1)).Return(map[models.State]int{
		models.StateLearning:   4,
		models.StateRelearning: 2,
		models.StateReview:     9,
	}, nil)
	schedules.On("CountDue", mock.Anything, int64(1), mock.Anything).Return(6, nil)

	stats, err := svc.GetStats(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 40, stats.TotalCards)
	assert.Equal(t, 25, stats.NewCards)
	assert.Equal(t, 6, stats.LearningCards)
	assert.Equal(t, 9, stats.ReviewCards)
	// 25 new cards contribute at most 10 to today's load.
	assert.Equal(t, 16, stats.DueToday)
}

func TestGetStatsFewNewCards(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	cards.On("Count", mock.Anything, int64(1)).Return(12, nil)
	schedules.On("CountScheduled", mock.Anything, int64(1)).Return(9, nil)
	schedules.On("StateCounts", mock.Anything, int64(1)).Return(map[models.State]int{
		models.StateReview: 9,
	}, nil)
	schedules.On("CountDue", mock.Anything, int64(1), mock.Anything).Return(2, nil)

	stats, err := svc.GetStats(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.NewCards)
	assert.Equal(t, 5, stats.DueToday)
}

func TestGetStatsEmptyCollection(t *testing.T) {
	svc, cards, schedules := newStudyService(t)

	cards.On("Count", mock.Anything, int64(1)).Return(0, nil)
	schedules.On("CountScheduled", mock.Anything, int64(1)).Return(0, nil)
	schedules.On("StateCounts", mock.Anything, int64(1)).Return(map[models.State]int{}, nil)
	schedules.On("CountDue", mock.Anything, int64(1), mock.Anything).Return(0, nil)

	stats, err := svc.GetStats(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, &models.StudyStats{}, stats)
}
