package api

import (
	"net/http"
	"strconv"

	"github.com/mlopez/flashdeck/internal/errors"
	"github.com/mlopez/flashdeck/internal/logger"
	"github.com/mlopez/flashdeck/internal/models"
	"github.com/mlopez/flashdeck/internal/services"
)

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID := userFromContext(r.Context())

	limit := services.DefaultDueLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			log.Warn("invalid limit: %q", raw)
			handleError(w, r, errors.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = parsed
	}

	queue, err := s.StudyService.GetDueCards(r.Context(), userID, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if queue == nil {
		queue = []models.DueCard{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"due": queue,
	})
}

type reviewRequest struct {
	CardID int64 `json:"card_id" validate:"required,gt=0"`
	Rating int   `json:"rating" validate:"required,min=1,max=4"`
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID := userFromContext(r.Context())

	var req reviewRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("review request: card_id=%d, rating=%d", req.CardID, req.Rating)

	outcome, err := s.StudyService.SubmitReview(r.Context(), userID, req.CardID, models.Rating(req.Rating))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	stats, err := s.StudyService.GetStats(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
