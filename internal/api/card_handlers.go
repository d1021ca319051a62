package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mlopez/flashdeck/internal/errors"
	"github.com/mlopez/flashdeck/internal/models"
)

type createCardRequest struct {
	Front string `json:"front" validate:"required,max=2000"`
	Back  string `json:"back" validate:"max=10000"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	var req createCardRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.CreateCard(r.Context(), userID, req.Front, req.Back)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	cards, err := s.CardService.ListCards(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cards": cards,
	})
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	id, err := cardIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.GetCard(r.Context(), id, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())

	id, err := cardIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.CardService.DeleteCard(r.Context(), id, userID); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func cardIDParam(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewBadRequestError("invalid card ID")
	}
	return id, nil
}
