package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/models"
)

// StatusHandler summarizes the pipeline
type StatusHandler struct {
	store  models.Store
	logger zerolog.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store models.Store, logger zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		store:  store,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalMedias    int            `json:"total_medias"`
	MediasByStatus map[string]int `json:"medias_by_status"`
	MediasByType   map[string]int `json:"medias_by_type"`
	MediasBySource map[string]int `json:"medias_by_source"`
}

// Handle handles the status endpoint
func (h *StatusHandler) Handle(c *fiber.Ctx) error {
	medias, err := h.store.List(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get medias")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	response := StatusResponse{
		TotalMedias:    len(medias),
		MediasByStatus: make(map[string]int),
		MediasByType:   make(map[string]int),
		MediasBySource: make(map[string]int),
	}

	for _, s := range models.AllStatuses {
		response.MediasByStatus[s.String()] = 0
	}

	for _, media := range medias {
		response.MediasByStatus[media.Status.String()]++
		response.MediasByType[media.MediaType.String()]++
		response.MediasBySource[media.SourceProtocol.String()]++
	}

	return c.JSON(response)
}
