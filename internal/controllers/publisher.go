package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/broker"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/tracing"
)

// ErrPublishFailed is returned when a job could not be handed to the broker
var ErrPublishFailed = errors.New("failed to publish job")

// MessagePublisher publishes raw payloads to a topic
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, payload []byte, metadata map[string]string) error
}

// JobPublisher turns records into acquisition jobs
type JobPublisher struct {
	publisher     MessagePublisher
	board         Board
	verifiedLabel string
	timeout       time.Duration
	logger        zerolog.Logger
}

// NewJobPublisher creates a new job publisher. board may be nil.
func NewJobPublisher(publisher MessagePublisher, board Board, verifiedLabel string, timeout time.Duration, logger zerolog.Logger) *JobPublisher {
	return &JobPublisher{
		publisher:     publisher,
		board:         board,
		verifiedLabel: verifiedLabel,
		timeout:       operationTimeout(timeout),
		logger:        logger.With().Str("component", "publisher").Logger(),
	}
}

// Publish sends the acquisition job of media with the trace context of ctx
func (p *JobPublisher) Publish(ctx context.Context, media *models.MediaRecord) error {
	data, err := broker.EncodeJob(broker.NewDownloadJob(media, time.Now()))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.publisher.Publish(pubCtx, broker.TopicDownload, data, tracing.Inject(ctx)); err != nil {
		return fmt.Errorf("%w for media %s: %w", ErrPublishFailed, media.ID, err)
	}

	p.logger.Info().
		Str("media_id", media.ID).
		Str("name", media.Name).
		Msg("Published download job")
	return nil
}

// PublishFromCard publishes the job and marks the originating card as verified.
// Labelling is best effort.
func (p *JobPublisher) PublishFromCard(ctx context.Context, media *models.MediaRecord, cardID string) error {
	if err := p.Publish(ctx, media); err != nil {
		return err
	}

	if p.board == nil || p.verifiedLabel == "" {
		return nil
	}

	labelCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.board.LabelCard(labelCtx, cardID, p.verifiedLabel); err != nil {
		p.logger.Error().Err(err).
			Str("card_id", cardID).
			Str("media_id", media.ID).
			Msg("Failed to label card")
	}
	return nil
}
