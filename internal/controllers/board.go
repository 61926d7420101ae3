package controllers

import (
	"context"
	"time"

	"github.com/amaumene/tritonevents/internal/services/trello"
)

// Board is the board API used by the intake and status paths
type Board interface {
	GetCard(ctx context.Context, cardID string) (*trello.Card, error)
	GetAttachments(ctx context.Context, cardID string) ([]trello.Attachment, error)
	MoveCard(ctx context.Context, cardID, listID string) error
	LabelCard(ctx context.Context, cardID, labelID string) error
}

// DefaultOperationTimeout bounds a single store, broker or board call
const DefaultOperationTimeout = 30 * time.Second

func operationTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultOperationTimeout
	}
	return d
}
