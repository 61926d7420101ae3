package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/amaumene/tritonevents/internal/controllers"
	"github.com/amaumene/tritonevents/internal/services/trello"
	"github.com/amaumene/tritonevents/internal/tracing"
)

const (
	actionUpdateCard = "updateCard"
	seenActionTTL    = 10 * time.Minute

	// Trello gives up on a callback after 30s
	defaultSubmitTimeout = 10 * time.Second
)

// NotificationSink accepts card move notifications
type NotificationSink interface {
	Submit(ctx context.Context, n controllers.CardMoveNotification) error
}

// WebhookHandler handles Trello webhook callbacks
type WebhookHandler struct {
	sink          NotificationSink
	seen          *cache.Cache
	validate      *validator.Validate
	submitTimeout time.Duration
	logger        zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(sink NotificationSink, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		sink:          sink,
		seen:          cache.New(seenActionTTL, 2*seenActionTTL),
		validate:      validator.New(),
		submitTimeout: defaultSubmitTimeout,
		logger:        logger.With().Str("component", "webhook").Logger(),
	}
}

// Handle handles the webhook endpoint. Trello verifies the callback with a HEAD request.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodHead || len(c.Body()) == 0 {
		return c.SendStatus(fiber.StatusOK)
	}

	ctx := tracing.Extract(c.UserContext(), requestHeaders(c))
	ctx, span := tracing.Tracer().Start(ctx, "http_request")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.url", c.OriginalURL()),
		attribute.String("http.method", c.Method()),
	)

	var payload trello.WebhookPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode webhook payload")
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}
	if payload.Action.ID == "" && payload.Action.Type == "" {
		return c.SendStatus(fiber.StatusOK)
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.logger.Warn().Err(err).Msg("Ignoring incomplete webhook payload")
		return c.SendStatus(fiber.StatusOK)
	}

	action := payload.Action
	if err := h.seen.Add(action.ID, struct{}{}, cache.DefaultExpiration); err != nil {
		h.logger.Debug().Str("action_id", action.ID).Msg("Skipping duplicate webhook delivery")
		return c.SendStatus(fiber.StatusOK)
	}

	h.logger.Info().Str("action_id", action.ID).Str("type", action.Type).Msg("Event triggered")

	if action.Type != actionUpdateCard {
		return c.SendStatus(fiber.StatusOK)
	}

	submitCtx, cancel := context.WithTimeout(ctx, h.submitTimeout)
	defer cancel()
	err := h.sink.Submit(submitCtx, toNotification(action, tracing.Inject(ctx)))
	if err != nil && !errors.Is(err, controllers.ErrMalformedNotification) {
		h.logger.Error().Err(err).Str("action_id", action.ID).Msg("Failed to queue card move")
		// let Trello retry the delivery
		h.seen.Delete(action.ID)
		return fiber.NewError(fiber.StatusServiceUnavailable, "Intake unavailable")
	}

	return c.SendStatus(fiber.StatusOK)
}

func toNotification(action trello.Action, trace map[string]string) controllers.CardMoveNotification {
	n := controllers.CardMoveNotification{
		ActionID: action.ID,
		Trace:    trace,
	}
	if action.Data.Card != nil {
		n.CardID = action.Data.Card.ID
		n.CardName = action.Data.Card.Name
	}
	if action.Data.ListBefore != nil {
		n.ListBefore = action.Data.ListBefore.ID
	}
	if action.Data.ListAfter != nil {
		n.ListAfter = action.Data.ListAfter.ID
	}
	return n
}

func requestHeaders(c *fiber.Ctx) map[string]string {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[strings.ToLower(string(key))] = string(value)
	})
	return headers
}
