package trello

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/metrics"
)

// Trello allows 100 requests per 10 seconds per token
const (
	requestsPerSecond = 10
	requestBurst      = 10
)

// Client handles communication with the Trello API
type Client struct {
	apiURL     string
	key        string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new Trello API client
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		apiURL:     cfg.TrelloAPIURL,
		key:        cfg.TrelloKey,
		token:      cfg.TrelloToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		logger:     logger.With().Str("component", "trello").Logger(),
	}
}

// GetCard retrieves a card with its labels
func (c *Client) GetCard(ctx context.Context, cardID string) (*Card, error) {
	var card Card
	err := c.doRequest(ctx, "get_card", http.MethodGet, "/1/cards/"+url.PathEscape(cardID), nil, &card)
	if err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", cardID, err)
	}
	return &card, nil
}

// GetAttachments retrieves the attachments of a card in board order
func (c *Client) GetAttachments(ctx context.Context, cardID string) ([]Attachment, error) {
	var attachments []Attachment
	err := c.doRequest(ctx, "get_attachments", http.MethodGet, "/1/cards/"+url.PathEscape(cardID)+"/attachments", nil, &attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments of card %s: %w", cardID, err)
	}
	return attachments, nil
}

// MoveCard moves a card to the bottom of a list
func (c *Client) MoveCard(ctx context.Context, cardID, listID string) error {
	params := url.Values{}
	params.Set("idList", listID)
	params.Set("pos", "bottom")

	err := c.doRequest(ctx, "move_card", http.MethodPut, "/1/cards/"+url.PathEscape(cardID), params, nil)
	if err != nil {
		return fmt.Errorf("failed to move card %s to list %s: %w", cardID, listID, err)
	}
	return nil
}

// LabelCard adds a label to a card
func (c *Client) LabelCard(ctx context.Context, cardID, labelID string) error {
	params := url.Values{}
	params.Set("value", labelID)

	err := c.doRequest(ctx, "label_card", http.MethodPost, "/1/cards/"+url.PathEscape(cardID)+"/idLabels", params, nil)
	if err != nil {
		return fmt.Errorf("failed to label card %s: %w", cardID, err)
	}
	return nil
}

// ResolveBoard resolves a board short link or id to the board
func (c *Client) ResolveBoard(ctx context.Context, boardID string) (*Board, error) {
	var board Board
	err := c.doRequest(ctx, "get_board", http.MethodGet, "/1/boards/"+url.PathEscape(boardID), nil, &board)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve board %s: %w", boardID, err)
	}
	return &board, nil
}

// ListWebhooks retrieves the webhooks registered with the token
func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var webhooks []Webhook
	err := c.doRequest(ctx, "list_webhooks", http.MethodGet, "/1/tokens/"+url.PathEscape(c.token)+"/webhooks", nil, &webhooks)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return webhooks, nil
}

// CreateWebhook registers a webhook for a model
func (c *Client) CreateWebhook(ctx context.Context, modelID, callbackURL, description string) (*Webhook, error) {
	params := url.Values{}
	params.Set("idModel", modelID)
	params.Set("callbackURL", callbackURL)
	params.Set("description", description)

	var webhook Webhook
	if err := c.doRequest(ctx, "create_webhook", http.MethodPost, "/1/webhooks", params, &webhook); err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	return &webhook, nil
}

// DeleteWebhook removes a webhook
func (c *Client) DeleteWebhook(ctx context.Context, webhookID string) error {
	if err := c.doRequest(ctx, "delete_webhook", http.MethodDelete, "/1/webhooks/"+url.PathEscape(webhookID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete webhook %s: %w", webhookID, err)
	}
	return nil
}

// doRequest performs an authenticated HTTP request to the Trello API
func (c *Client) doRequest(ctx context.Context, operation, method, path string, params url.Values, result interface{}) (err error) {
	defer func() { metrics.RecordBoardRequest(operation, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.key)
	params.Set("token", c.token)

	fullURL := c.apiURL + path + "?" + params.Encode()
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Making Trello API request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
