package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/mlopez/flashdeck/internal/logger"
	"github.com/mlopez/flashdeck/internal/models"
	"github.com/mlopez/flashdeck/internal/repository"
)

type scheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new ScheduleRepository implementation
func NewScheduleRepository(db *sql.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

const scheduleColumns = `id, card_id, user_id, state, due, stability, difficulty,
elapsed_days, scheduled_days, reps, lapses, step, last_rating, last_review, updated_at`

func scanSchedule(row interface{ Scan(...any) error }, s *models.ReviewSchedule) error {
	var lastReview sql.NullTime
	err := row.Scan(&s.ID, &s.CardID, &s.UserID, &s.State, &s.Due, &s.Stability, &s.Difficulty,
		&s.ElapsedDays, &s.ScheduledDays, &s.Reps, &s.Lapses, &s.Step, &s.LastRating, &lastReview, &s.UpdatedAt)
	if err != nil {
		return err
	}
	if lastReview.Valid {
		t := lastReview.Time
		s.LastReview = &t
	}
	return nil
}

func (r *scheduleRepository) FindDue(ctx context.Context, userID int64, now time.Time, limit int) ([]models.DueCard, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("fetching due schedules: user_id=%d, limit=%d", userID, limit)

	query, args, err := sqlBuilder.
		Select(
			"c.id", "c.user_id", "c.front", "c.back", "c.created_at",
			"rs.id", "rs.card_id", "rs.user_id", "rs.state", "rs.due", "rs.stability", "rs.difficulty",
			"rs.elapsed_days", "rs.scheduled_days", "rs.reps", "rs.lapses", "rs.step",
			"rs.last_rating", "rs.last_review", "rs.updated_at",
		).
		From("review_schedules rs").
		Join("cards c ON c.id = rs.card_id").
		Where(squirrel.Eq{"rs.user_id": userID}).
		Where(squirrel.LtOrEq{"rs.due": now.UTC()}).
		OrderBy("rs.due ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due schedules: %v", err)
		return nil, err
	}
	defer rows.Close()

	var due []models.DueCard
	for rows.Next() {
		var dc models.DueCard
		var lastReview sql.NullTime
		err := rows.Scan(
			&dc.Card.ID, &dc.Card.UserID, &dc.Card.Front, &dc.Card.Back, &dc.Card.CreatedAt,
			&dc.Schedule.ID, &dc.Schedule.CardID, &dc.Schedule.UserID, &dc.Schedule.State,
			&dc.Schedule.Due, &dc.Schedule.Stability, &dc.Schedule.Difficulty,
			&dc.Schedule.ElapsedDays, &dc.Schedule.ScheduledDays, &dc.Schedule.Reps,
			&dc.Schedule.Lapses, &dc.Schedule.Step, &dc.Schedule.LastRating,
			&lastReview, &dc.Schedule.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan due row: %v", err)
			return nil, err
		}
		if lastReview.Valid {
			t := lastReview.Time
			dc.Schedule.LastReview = &t
		}
		due = append(due, dc)
	}
	log.Debug("found %d due schedules", len(due))
	return due, rows.Err()
}

func (r *scheduleRepository) FindOne(ctx context.Context, cardID, userID int64) (*models.ReviewSchedule, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("fetching schedule: card_id=%d, user_id=%d", cardID, userID)

	var s models.ReviewSchedule
	row := r.db.QueryRowContext(ctx, `
SELECT `+scheduleColumns+`
FROM review_schedules
WHERE card_id = ? AND user_id = ?
`, cardID, userID)
	err := scanSchedule(row, &s)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no schedule for card_id=%d", cardID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get schedule: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepository) Upsert(ctx context.Context, s models.ReviewSchedule) error {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")
	log.Debug("upserting schedule: card_id=%d, state=%s, due=%s", s.CardID, s.State, s.Due.Format(time.RFC3339))

	// Timestamps are stored in UTC so SQLite's lexical comparison of the
	// due column stays consistent.
	var lastReview any
	if s.LastReview != nil {
		lastReview = s.LastReview.UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO review_schedules (card_id, user_id, state, due, stability, difficulty,
    elapsed_days, scheduled_days, reps, lapses, step, last_rating, last_review, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(card_id, user_id) DO UPDATE SET
    state = excluded.state,
    due = excluded.due,
    stability = excluded.stability,
    difficulty = excluded.difficulty,
    elapsed_days = excluded.elapsed_days,
    scheduled_days = excluded.scheduled_days,
    reps = excluded.reps,
    lapses = excluded.lapses,
    step = excluded.step,
    last_rating = excluded.last_rating,
    last_review = excluded.last_review,
    updated_at = excluded.updated_at
`, s.CardID, s.UserID, s.State, s.Due.UTC(), s.Stability, s.Difficulty,
		s.ElapsedDays, s.ScheduledDays, s.Reps, s.Lapses, s.Step, s.LastRating, lastReview, s.UpdatedAt.UTC())
	if err != nil {
		log.Error("failed to upsert schedule: %v", err)
	}
	return err
}

func (r *scheduleRepository) CountScheduled(ctx context.Context, userID int64) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_schedules WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		log.Error("failed to count schedules: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *scheduleRepository) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_schedules WHERE user_id = ? AND due <= ?`, userID, now.UTC()).Scan(&count)
	if err != nil {
		log.Error("failed to count due schedules: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *scheduleRepository) StateCounts(ctx context.Context, userID int64) (map[models.State]int, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT state, COUNT(*) FROM review_schedules WHERE user_id = ? GROUP BY state
`, userID)
	if err != nil {
		log.Error("failed to count states: %v", err)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.State]int)
	for rows.Next() {
		var state models.State
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			log.Error("failed to scan state count: %v", err)
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}
