package controllers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/transform"
)

// IdentityController owns the one-record-per-identity rule of the store
type IdentityController struct {
	store  models.Store
	logger zerolog.Logger
}

// NewIdentityController creates a new identity controller
func NewIdentityController(store models.Store, logger zerolog.Logger) *IdentityController {
	return &IdentityController{
		store:  store,
		logger: logger.With().Str("component", "identity").Logger(),
	}
}

// NewRecord builds an unsaved record from a card payload
func NewRecord(p *transform.Payload, creator models.Creator, creatorRef *string) *models.MediaRecord {
	return &models.MediaRecord{
		Name:             p.Name,
		Creator:          creator,
		CreatorRef:       creatorRef,
		MediaType:        p.MediaType,
		SourceProtocol:   p.SourceProtocol,
		SourceLocator:    p.SourceLocator,
		MetadataProvider: p.MetadataProvider,
		MetadataID:       p.MetadataID,
	}
}

// Intake stores media as a new queued record. In strict mode an existing identity
// fails with models.ErrDuplicateIdentity and nothing is changed; in reuse mode the
// existing record is requeued and returned. The boolean reports a new record.
func (c *IdentityController) Intake(ctx context.Context, media *models.MediaRecord, mode config.IntakeMode) (*models.MediaRecord, bool, error) {
	media.ID = uuid.NewString()
	media.Status = models.StatusQueued

	log := c.logger.With().
		Str("metadata", media.MetadataProvider.String()).
		Str("metadata_id", media.MetadataID).
		Logger()

	switch mode {
	case config.IntakeReuse:
		stored, created, err := c.store.InsertOrRequeue(ctx, media)
		if err != nil {
			return nil, false, fmt.Errorf("failed to store media: %w", err)
		}
		if created {
			log.Info().Str("media_id", stored.ID).Msg("Created media")
		} else {
			log.Info().Str("media_id", stored.ID).Msg("Requeued existing media")
		}
		return stored, created, nil

	default:
		if err := c.store.Insert(ctx, media); err != nil {
			return nil, false, fmt.Errorf("failed to store media %s/%s: %w", media.MetadataProvider, media.MetadataID, err)
		}
		log.Info().Str("media_id", media.ID).Msg("Created media")
		return media, true, nil
	}
}
