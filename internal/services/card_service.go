package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/mlopez/flashdeck/internal/errors"
	"github.com/mlopez/flashdeck/internal/logger"
	"github.com/mlopez/flashdeck/internal/models"
	"github.com/mlopez/flashdeck/internal/repository"
)

// CardService handles card catalog business logic. Card content is opaque to
// the scheduler; this service never touches review schedules except through
// the cascade on delete.
type CardService interface {
	CreateCard(ctx context.Context, userID int64, front, back string) (*models.Card, error)
	GetCard(ctx context.Context, id, userID int64) (*models.Card, error)
	ListCards(ctx context.Context, userID int64) ([]models.Card, error)
	DeleteCard(ctx context.Context, id, userID int64) error
}

type cardService struct {
	cards repository.CardRepository
}

// NewCardService creates a new CardService
func NewCardService(cards repository.CardRepository) CardService {
	return &cardService{cards: cards}
}

func (s *cardService) CreateCard(ctx context.Context, userID int64, front, back string) (*models.Card, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(front) == "" {
		return nil, errors.NewValidationError("front", "cannot be empty")
	}

	id, err := s.cards.Insert(ctx, models.Card{UserID: userID, Front: front, Back: back})
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, errors.NewInternalError(err)
	}

	card, err := s.cards.Get(ctx, id, userID)
	if err != nil {
		log.Error("failed to reload card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", id)
	}
	log.Info("card created: id=%d", id)
	return card, nil
}

func (s *cardService) GetCard(ctx context.Context, id, userID int64) (*models.Card, error) {
	log := logger.FromContext(ctx)

	card, err := s.cards.Get(ctx, id, userID)
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", id)
	}
	return card, nil
}

func (s *cardService) ListCards(ctx context.Context, userID int64) ([]models.Card, error) {
	log := logger.FromContext(ctx)

	cards, err := s.cards.List(ctx, userID)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *cardService) DeleteCard(ctx context.Context, id, userID int64) error {
	log := logger.FromContext(ctx)

	err := s.cards.Delete(ctx, id, userID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError("card", id)
	}
	if err != nil {
		log.Error("failed to delete card: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("card deleted: id=%d", id)
	return nil
}
