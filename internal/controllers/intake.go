package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/metrics"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/services/trello"
	"github.com/amaumene/tritonevents/internal/tracing"
	"github.com/amaumene/tritonevents/internal/transform"
)

// IntakeController turns intake candidates into stored records and published jobs
type IntakeController struct {
	board       Board
	transformer *transform.CardTransformer
	identity    *IdentityController
	publisher   *JobPublisher
	mode        config.IntakeMode
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewIntakeController creates a new intake controller
func NewIntakeController(board Board, transformer *transform.CardTransformer, identity *IdentityController, publisher *JobPublisher, mode config.IntakeMode, timeout time.Duration, logger zerolog.Logger) *IntakeController {
	return &IntakeController{
		board:       board,
		transformer: transformer,
		identity:    identity,
		publisher:   publisher,
		mode:        mode,
		timeout:     operationTimeout(timeout),
		logger:      logger.With().Str("component", "intake").Logger(),
	}
}

// HandleCandidate fetches the card, extracts its payload, stores the record and publishes its job
func (c *IntakeController) HandleCandidate(ctx context.Context, candidate IntakeCandidate) (err error) {
	ctx = tracing.Extract(ctx, candidate.Trace)
	ctx, span := tracing.Tracer().Start(ctx, "intake_card")
	span.SetAttributes(attribute.String("card.id", candidate.CardID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	card, err := c.fetchCard(ctx, candidate.CardID)
	if err != nil {
		metrics.RecordIntake("failed")
		return err
	}
	if card.Name == "" {
		card.Name = candidate.CardName
	}

	payload, err := c.transformer.Transform(card)
	if err != nil {
		metrics.RecordIntake("invalid")
		return err
	}

	cardID := candidate.CardID
	storeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	media, created, err := c.identity.Intake(storeCtx, NewRecord(payload, models.CreatorBoard, &cardID), c.mode)
	cancel()
	if err != nil {
		if errors.Is(err, models.ErrDuplicateIdentity) {
			metrics.RecordIntake("duplicate")
		} else {
			metrics.RecordIntake("failed")
		}
		return err
	}
	span.SetAttributes(attribute.String("media.id", media.ID))

	if err := c.publisher.PublishFromCard(ctx, media, cardID); err != nil {
		metrics.RecordIntake("failed")
		return err
	}

	if created {
		metrics.RecordIntake("queued")
	} else {
		metrics.RecordIntake("requeued")
	}
	return nil
}

func (c *IntakeController) fetchCard(ctx context.Context, cardID string) (transform.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	card, err := c.board.GetCard(ctx, cardID)
	if err != nil {
		return transform.Card{}, fmt.Errorf("failed to fetch card: %w", err)
	}
	attachments, err := c.board.GetAttachments(ctx, cardID)
	if err != nil {
		return transform.Card{}, fmt.Errorf("failed to fetch attachments: %w", err)
	}

	return toTransformCard(card, attachments), nil
}

func toTransformCard(card *trello.Card, attachments []trello.Attachment) transform.Card {
	out := transform.Card{
		ID:   card.ID,
		Name: card.Name,
		Body: card.Desc,
	}
	for _, label := range card.Labels {
		out.Labels = append(out.Labels, label.Name)
	}
	for _, a := range attachments {
		out.Attachments = append(out.Attachments, transform.Attachment{Name: a.Name, URL: a.URL})
	}
	return out
}
