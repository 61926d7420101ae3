package controllers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/models"
)

// RequeueController restarts the acquisition of an existing record
type RequeueController struct {
	store     models.Store
	publisher *JobPublisher
	logger    zerolog.Logger
}

// NewRequeueController creates a new requeue controller
func NewRequeueController(store models.Store, publisher *JobPublisher, logger zerolog.Logger) *RequeueController {
	return &RequeueController{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "requeue").Logger(),
	}
}

// Requeue resets a record to queued and publishes its job again
func (c *RequeueController) Requeue(ctx context.Context, id string) (*models.MediaRecord, error) {
	if err := c.store.UpdateStatus(ctx, id, models.StatusQueued); err != nil {
		return nil, fmt.Errorf("failed to requeue media %s: %w", id, err)
	}

	media, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get media %s: %w", id, err)
	}

	if err := c.publisher.Publish(ctx, media); err != nil {
		return nil, err
	}

	c.logger.Info().Str("media_id", id).Msg("Requeued media")
	return media, nil
}
