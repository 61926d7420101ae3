package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/controllers"
	"github.com/amaumene/tritonevents/internal/models"
)

// Requeuer restarts the acquisition of a record
type Requeuer interface {
	Requeue(ctx context.Context, id string) (*models.MediaRecord, error)
}

// MediaHandler serves media records
type MediaHandler struct {
	store    models.Store
	requeuer Requeuer
	logger   zerolog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(store models.Store, requeuer Requeuer, logger zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		store:    store,
		requeuer: requeuer,
		logger:   logger,
	}
}

// List handles GET /v1/media
func (h *MediaHandler) List(c *fiber.Ctx) error {
	medias, err := h.store.List(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list medias")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}
	if medias == nil {
		medias = []*models.MediaRecord{}
	}
	return c.JSON(medias)
}

// Get handles GET /v1/media/:id
func (h *MediaHandler) Get(c *fiber.Ctx) error {
	media, err := h.store.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storeError(err, "Failed to get media")
	}
	return c.JSON(media)
}

// Requeue handles POST /v1/queue/:id
func (h *MediaHandler) Requeue(c *fiber.Ctx) error {
	media, err := h.requeuer.Requeue(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, controllers.ErrPublishFailed) {
			h.logger.Error().Err(err).Msg("Failed to publish requeued media")
			return fiber.NewError(fiber.StatusServiceUnavailable, "Failed to publish job")
		}
		return h.storeError(err, "Failed to requeue media")
	}
	return c.Status(fiber.StatusAccepted).JSON(media)
}

func (h *MediaHandler) storeError(err error, msg string) error {
	if errors.Is(err, models.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Media not found")
	}
	h.logger.Error().Err(err).Msg(msg)
	return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
}
