package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/mlopez/flashdeck/internal/logger"
	"github.com/mlopez/flashdeck/internal/models"
	"github.com/mlopez/flashdeck/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: user_id=%d", c.UserID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO cards (user_id, front, back)
VALUES (?, ?, ?)
`, c.UserID, c.Front, c.Back)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get card id: %v", err)
		return 0, err
	}
	log.Debug("card inserted: id=%d", id)
	return id, nil
}

func (r *cardRepository) Get(ctx context.Context, id, userID int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%d, user_id=%d", id, userID)

	var c models.Card
	err := r.db.QueryRowContext(ctx, `
SELECT id, user_id, front, back, created_at
FROM cards
WHERE id = ? AND user_id = ?
`, id, userID).Scan(&c.ID, &c.UserID, &c.Front, &c.Back, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) List(ctx context.Context, userID int64) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: user_id=%d", userID)

	query, args, err := sqlBuilder.
		Select("id", "user_id", "front", "back", "created_at").
		From("cards").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.Front, &c.Back, &c.CreatedAt); err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

func (r *cardRepository) Count(ctx context.Context, userID int64) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		log.Error("failed to count cards: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *cardRepository) Delete(ctx context.Context, id, userID int64) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("deleting card: id=%d, user_id=%d", id, userID)

	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		log.Error("failed to delete card: %v", err)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	log.Debug("card deleted: id=%d", id)
	return nil
}

func (r *cardRepository) WithoutSchedule(ctx context.Context, userID int64, limit int) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("fetching unscheduled cards: user_id=%d, limit=%d", userID, limit)

	// "No schedule row" is structural: a relearning card is not new.
	query, args, err := sqlBuilder.
		Select("c.id", "c.user_id", "c.front", "c.back", "c.created_at").
		From("cards c").
		Where(squirrel.Eq{"c.user_id": userID}).
		Where("NOT EXISTS (SELECT 1 FROM review_schedules rs WHERE rs.card_id = c.id AND rs.user_id = c.user_id)").
		OrderBy("c.created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query unscheduled cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.Front, &c.Back, &c.CreatedAt); err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d unscheduled cards", len(cards))
	return cards, rows.Err()
}
