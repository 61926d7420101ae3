package trello

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const webhookDescription = "Polls for updates on the media board."

// WebhookRetryInterval is the delay between webhook registration attempts
const WebhookRetryInterval = 5 * time.Second

// Registrar keeps a single active webhook pointed at the callback URL
type Registrar struct {
	client      *Client
	board       string
	callbackURL string
	maxRetries  uint64
	interval    time.Duration
	logger      zerolog.Logger
}

// NewRegistrar creates a webhook registrar. maxRetries 0 retries until ctx is done.
func NewRegistrar(client *Client, board, callbackURL string, maxRetries uint64, logger zerolog.Logger) *Registrar {
	return &Registrar{
		client:      client,
		board:       board,
		callbackURL: callbackURL,
		maxRetries:  maxRetries,
		interval:    WebhookRetryInterval,
		logger:      logger.With().Str("component", "webhook").Logger(),
	}
}

// Register resolves the board, replaces any active webhook for it and creates a new one,
// retrying at a constant interval until it succeeds
func (r *Registrar) Register(ctx context.Context) (*Webhook, error) {
	var b backoff.BackOff = backoff.NewConstantBackOff(r.interval)
	if r.maxRetries > 0 {
		b = backoff.WithMaxRetries(b, r.maxRetries)
	}

	var webhook *Webhook
	operation := func() error {
		var err error
		webhook, err = r.register(ctx)
		return err
	}
	notify := func(err error, next time.Duration) {
		r.logger.Error().Err(err).Dur("retry_in", next).Msg("Failed to register webhook")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}
	return webhook, nil
}

func (r *Registrar) register(ctx context.Context) (*Webhook, error) {
	// the configured board may be a short link
	board, err := r.client.ResolveBoard(ctx, r.board)
	if err != nil {
		return nil, err
	}
	r.logger.Info().Str("board_id", board.ID).Msg("Resolved board")

	webhooks, err := r.client.ListWebhooks(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range webhooks {
		if existing.IDModel != board.ID || !existing.Active {
			continue
		}
		r.logger.Warn().Str("webhook_id", existing.ID).Msg("Found an existing webhook, cleaning it up")
		if err := r.client.DeleteWebhook(ctx, existing.ID); err != nil {
			return nil, err
		}
		break
	}

	webhook, err := r.client.CreateWebhook(ctx, board.ID, r.callbackURL, webhookDescription)
	if err != nil {
		return nil, err
	}
	r.logger.Info().Str("webhook_id", webhook.ID).Msg("Created webhook")
	return webhook, nil
}
