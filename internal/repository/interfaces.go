package repository

import (
	"context"
	"time"

	"github.com/mlopez/flashdeck/internal/models"
)

// CardRepository handles card catalog data access.
type CardRepository interface {
	Insert(ctx context.Context, card models.Card) (int64, error)
	// Get returns nil when no card with this id belongs to userID.
	Get(ctx context.Context, id, userID int64) (*models.Card, error)
	List(ctx context.Context, userID int64) ([]models.Card, error)
	Count(ctx context.Context, userID int64) (int, error)
	Delete(ctx context.Context, id, userID int64) error
	// WithoutSchedule returns cards with no review_schedules row at all,
	// oldest created_at first, capped at limit. limit must be positive.
	WithoutSchedule(ctx context.Context, userID int64, limit int) ([]models.Card, error)
}

// ScheduleRepository handles review schedule data access.
type ScheduleRepository interface {
	// FindDue returns cards whose schedule is due at or before now,
	// earliest due first, capped at limit.
	FindDue(ctx context.Context, userID int64, now time.Time, limit int) ([]models.DueCard, error)
	// FindOne returns nil when the card has never been reviewed.
	FindOne(ctx context.Context, cardID, userID int64) (*models.ReviewSchedule, error)
	// Upsert inserts or replaces the schedule row for (card_id, user_id)
	// in a single statement. Last write wins on conflict.
	Upsert(ctx context.Context, sched models.ReviewSchedule) error
	CountScheduled(ctx context.Context, userID int64) (int, error)
	CountDue(ctx context.Context, userID int64, now time.Time) (int, error)
	StateCounts(ctx context.Context, userID int64) (map[models.State]int, error)
}
