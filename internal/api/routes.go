package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(userMiddleware)

		r.Get("/study/due", s.handleDueCards)
		r.Post("/study/review", s.handleSubmitReview)
		r.Get("/study/stats", s.handleStats)

		r.Post("/cards", s.handleCreateCard)
		r.Get("/cards", s.handleListCards)
		r.Get("/cards/{id}", s.handleGetCard)
		r.Delete("/cards/{id}", s.handleDeleteCard)
	})

	return r
}
