package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mlopez/flashdeck/internal/models"
)

// MockScheduleRepository is a mock implementation of repository.ScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) FindDue(ctx context.Context, userID int64, now time.Time, limit int) ([]models.DueCard, error) {
	args := m.Called(ctx, userID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DueCard), args.Error(1)
}

func (m *MockScheduleRepository) FindOne(ctx context.Context, cardID, userID int64) (*models.ReviewSchedule, error) {
	args := m.Called(ctx, cardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Upsert(ctx context.Context, sched models.ReviewSchedule) error {
	args := m.Called(ctx, sched)
	return args.Error(0)
}

func (m *MockScheduleRepository) CountScheduled(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	args := m.Called(ctx, userID, now)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) StateCounts(ctx context.Context, userID int64) (map[models.State]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.State]int), args.Error(1)
}
