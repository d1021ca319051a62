package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mlopez/flashdeck/internal/db"
	"github.com/mlopez/flashdeck/internal/models"
	"github.com/mlopez/flashdeck/internal/repository"
	"github.com/mlopez/flashdeck/internal/testutil"
)

type ScheduleRepositorySuite struct {
	suite.Suite
	db    *db.DB
	cards repository.CardRepository
	repo  repository.ScheduleRepository
	ctx   context.Context
	now   time.Time
}

func TestScheduleRepositorySuite(t *testing.T) {
	suite.Run(t, new(ScheduleRepositorySuite))
}

func (s *ScheduleRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.cards = NewCardRepository(s.db.DB)
	s.repo = NewScheduleRepository(s.db.DB)
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
}

func (s *ScheduleRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ScheduleRepositorySuite) newCard(userID int64, front string) int64 {
	id, err := s.cards.Insert(s.ctx, models.Card{UserID: userID, Front: front})
	s.Require().NoError(err)
	return id
}

func (s *ScheduleRepositorySuite) schedule(cardID, userID int64, state models.State, due time.Time) models.ReviewSchedule {
	last := due.AddDate(0, 0, -1)
	return models.ReviewSchedule{
		CardID:        cardID,
		UserID:        userID,
		State:         state,
		Due:           due,
		Stability:     2.5,
		Difficulty:    5.2,
		ScheduledDays: 1,
		Reps:          1,
		LastRating:    models.RatingGood,
		LastReview:    &last,
		UpdatedAt:     due,
	}
}

func (s *ScheduleRepositorySuite) TestUpsertInsertsThenUpdates() {
	cardID := s.newCard(1, "x")

	first := s.schedule(cardID, 1, models.StateLearning, s.now.Add(10*time.Minute))
	s.Require().NoError(s.repo.Upsert(s.ctx, first))

	got, err := s.repo.FindOne(s.ctx, cardID, 1)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(models.StateLearning, got.State)
	s.Equal(2.5, got.Stability)
	s.Equal(1, got.Reps)
	s.Equal(models.RatingGood, got.LastRating)
	s.Require().NotNil(got.LastReview)
	s.WithinDuration(first.Due, got.Due, time.Second)

	second := first
	second.State = models.StateReview
	second.Stability = 8.1
	second.Reps = 2
	second.Due = s.now.AddDate(0, 0, 8)
	s.Require().NoError(s.repo.Upsert(s.ctx, second))

	got, err = s.repo.FindOne(s.ctx, cardID, 1)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(models.StateReview, got.State)
	s.Equal(8.1, got.Stability)
	s.Equal(2, got.Reps)
	s.WithinDuration(second.Due, got.Due, time.Second)

	// Still one row per (card, user).
	count, err := s.repo.CountScheduled(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *ScheduleRepositorySuite) TestFindOneMissing() {
	cardID := s.newCard(1, "x")

	got, err := s.repo.FindOne(s.ctx, cardID, 1)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *ScheduleRepositorySuite) TestFindOneScopedToOwner() {
	cardID := s.newCard(1, "x")
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(cardID, 1, models.StateReview, s.now)))

	got, err := s.repo.FindOne(s.ctx, cardID, 2)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *ScheduleRepositorySuite) TestFindDueOrderingAndLimit() {
	a := s.newCard(1, "a")
	b := s.newCard(1, "b")
	c := s.newCard(1, "c")
	d := s.newCard(1, "d")

	// Due times deliberately out of insertion order.
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(a, 1, models.StateReview, s.now.Add(-time.Hour))))
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(b, 1, models.StateReview, s.now.Add(-72*time.Hour))))
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(c, 1, models.StateLearning, s.now.Add(-24*time.Hour))))
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(d, 1, models.StateReview, s.now.Add(48*time.Hour))))

	due, err := s.repo.FindDue(s.ctx, 1, s.now, 10)
	s.Require().NoError(err)
	s.Require().Len(due, 3)
	s.Equal(b, due[0].Card.ID)
	s.Equal(c, due[1].Card.ID)
	s.Equal(a, due[2].Card.ID)
	s.Equal("b", due[0].Card.Front)

	due, err = s.repo.FindDue(s.ctx, 1, s.now, 2)
	s.Require().NoError(err)
	s.Require().Len(due, 2)
	s.Equal(b, due[0].Card.ID)
	s.Equal(c, due[1].Card.ID)
}

func (s *ScheduleRepositorySuite) TestFindDueScopedToOwner() {
	mine := s.newCard(1, "mine")
	theirs := s.newCard(2, "theirs")

	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(mine, 1, models.StateReview, s.now.Add(-time.Hour))))
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(theirs, 2, models.StateReview, s.now.Add(-time.Hour))))

	due, err := s.repo.FindDue(s.ctx, 1, s.now, 10)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(mine, due[0].Card.ID)
}

func (s *ScheduleRepositorySuite) TestDueBoundaryInclusive() {
	cardID := s.newCard(1, "x")
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(cardID, 1, models.StateReview, s.now)))

	due, err := s.repo.FindDue(s.ctx, 1, s.now, 10)
	s.Require().NoError(err)
	s.Len(due, 1)

	count, err := s.repo.CountDue(s.ctx, 1, s.now)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *ScheduleRepositorySuite) TestCounts() {
	a := s.newCard(1, "a")
	b := s.newCard(1, "b")
	c := s.newCard(1, "c")

	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(a, 1, models.StateLearning, s.now.Add(-time.Hour))))
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(b, 1, models.StateRelearning, s.now.Add(-time.Hour))))
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(c, 1, models.StateReview, s.now.Add(48*time.Hour))))

	scheduled, err := s.repo.CountScheduled(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(3, scheduled)

	dueCount, err := s.repo.CountDue(s.ctx, 1, s.now)
	s.Require().NoError(err)
	s.Equal(2, dueCount)

	states, err := s.repo.StateCounts(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(map[models.State]int{
		models.StateLearning:   1,
		models.StateRelearning: 1,
		models.StateReview:     1,
	}, states)
}

func (s *ScheduleRepositorySuite) TestDeletingCardCascades() {
	cardID := s.newCard(1, "x")
	s.Require().NoError(s.repo.Upsert(s.ctx, s.schedule(cardID, 1, models.StateReview, s.now)))
	s.Require().NoError(s.cards.Delete(s.ctx, cardID, 1))

	got, err := s.repo.FindOne(s.ctx, cardID, 1)
	s.Require().NoError(err)
	s.Nil(got)
}
