package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/amaumene/tritonevents/internal/broker"
	"github.com/amaumene/tritonevents/internal/metrics"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/tracing"
)

// StatusController persists worker status updates and mirrors them on the board
type StatusController struct {
	store      models.Store
	board      Board
	lists      map[models.Status]string
	subscriber message.Subscriber
	prefetch   int64
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewStatusController creates a new status controller. A nil board only persists.
func NewStatusController(store models.Store, board Board, lists map[models.Status]string, subscriber message.Subscriber, prefetch int, timeout time.Duration, logger zerolog.Logger) *StatusController {
	if prefetch < 1 {
		prefetch = 1
	}
	return &StatusController{
		store:      store,
		board:      board,
		lists:      lists,
		subscriber: subscriber,
		prefetch:   int64(prefetch),
		timeout:    operationTimeout(timeout),
		logger:     logger.With().Str("component", "status").Logger(),
	}
}

// Serve consumes status updates until ctx is done, with at most prefetch in flight
func (c *StatusController) Serve(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, broker.TopicStatus)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", broker.TopicStatus, err)
	}

	sem := semaphore.NewWeighted(c.prefetch)
	// wait for in-flight handlers before returning
	defer func() { _ = sem.Acquire(context.Background(), c.prefetch) }()

	c.logger.Info().Int64("prefetch", c.prefetch).Msg("Consuming status updates")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("status subscription closed")
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				msg.Nack()
				return err
			}
			go func(msg *message.Message) {
				defer sem.Release(1)
				msgCtx := tracing.Extract(ctx, map[string]string(msg.Metadata))
				if err := c.HandleMessage(msgCtx, msg.Payload); err != nil {
					c.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Status update failed, will be redelivered")
					msg.Nack()
					return
				}
				msg.Ack()
			}(msg)
		}
	}
}

// HandleMessage applies one status update. A returned error means the
// message should be redelivered.
func (c *StatusController) HandleMessage(ctx context.Context, payload []byte) error {
	update, err := broker.DecodeStatusUpdate(payload)
	if err != nil {
		// redelivery cannot fix an undecodable message
		c.logger.Error().Err(err).Bytes("payload", payload).Msg("Dropping invalid status update")
		metrics.RecordStatusUpdate("poison")
		return nil
	}

	ctx, span := tracing.Tracer().Start(ctx, "status_update")
	defer span.End()

	log := c.logger.With().
		Str("media_id", update.MediaID).
		Str("status", update.Status.String()).
		Logger()

	media, err := c.persist(ctx, update)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn().Msg("Status update for unknown media")
			metrics.RecordStatusUpdate("unknown_media")
			return nil
		}
		metrics.RecordStatusUpdate("failed")
		return err
	}

	log.Info().Msg("Updated media status")
	metrics.RecordStatusUpdate("applied")

	c.reflect(ctx, log, media, update.Status)
	return nil
}

func (c *StatusController) persist(ctx context.Context, update *broker.StatusUpdate) (*models.MediaRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.store.UpdateStatus(ctx, update.MediaID, update.Status); err != nil {
		return nil, err
	}
	return c.store.GetByID(ctx, update.MediaID)
}

// reflect moves the originating card to the list mapped to status. Failures are logged only.
func (c *StatusController) reflect(ctx context.Context, log zerolog.Logger, media *models.MediaRecord, status models.Status) {
	if c.board == nil {
		return
	}

	cardID, ok := media.CardID()
	if !ok {
		log.Debug().Str("creator", media.Creator.String()).Msg("Media has no card, skipping board update")
		return
	}

	listID, ok := c.lists[status]
	if !ok {
		log.Warn().Str("card_id", cardID).Msg("No list mapped for status, card not moved")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.board.MoveCard(ctx, cardID, listID); err != nil {
		log.Error().Err(err).Str("card_id", cardID).Str("list_id", listID).Msg("Failed to move card")
		return
	}
	log.Info().Str("card_id", cardID).Str("list_id", listID).Msg("Moved card")
}
