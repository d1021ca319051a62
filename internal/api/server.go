package api

import (
	"github.com/mlopez/flashdeck/internal/services"
)

// Server holds the services backing the HTTP API.
type Server struct {
	StudyService services.StudyService
	CardService  services.CardService
}
