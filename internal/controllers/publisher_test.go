package controllers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/tritonevents/internal/broker"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/tracing"
)

func TestPublishFromCardLabelsCard(t *testing.T) {
	conn := newTestBroker(t)
	jobs := subscribe(t, conn, broker.TopicDownload)
	board := newFakeBoard()
	store := newTestStore(t)
	rec := newBoardRecord(t, store, "card-1", "1")

	pub := NewJobPublisher(broker.NewPublisher(conn.Publisher, nil), board, "label-verified", time.Second, zerolog.Nop())
	ctx := tracing.Extract(context.Background(), map[string]string{
		"traceparent": "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
	})
	require.NoError(t, pub.PublishFromCard(ctx, rec, "card-1"))

	job, msg := receiveJob(t, jobs)
	assert.Equal(t, rec.ID, job.Media.ID)
	assert.Equal(t, "card-1", job.Media.CreatorID)
	assert.Equal(t, models.SourceMagnet, job.Media.Source)
	assert.Contains(t, msg.Metadata.Get("traceparent"), "0af7651916cd43dd8448eb211c80319c")

	assert.Equal(t, []move{{CardID: "card-1", ListID: "label-verified"}}, board.recordedLabels())
}

func TestPublishLabelFailureIsSwallowed(t *testing.T) {
	conn := newTestBroker(t)
	jobs := subscribe(t, conn, broker.TopicDownload)
	board := newFakeBoard()
	board.labelErr = errors.New("trello down")
	rec := newBoardRecord(t, newTestStore(t), "card-1", "1")

	pub := NewJobPublisher(broker.NewPublisher(conn.Publisher, nil), board, "label-verified", time.Second, zerolog.Nop())
	require.NoError(t, pub.PublishFromCard(context.Background(), rec, "card-1"))
	receiveJob(t, jobs)
}

func TestPublishFailure(t *testing.T) {
	board := newFakeBoard()
	store := newTestStore(t)
	rec := newBoardRecord(t, store, "card-1", "1")

	pub := NewJobPublisher(failingPublisher{}, board, "label-verified", time.Second, zerolog.Nop())
	err := pub.PublishFromCard(context.Background(), rec, "card-1")
	assert.ErrorIs(t, err, ErrPublishFailed)
	assert.Empty(t, board.recordedLabels())

	stored, err := store.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, stored.Status)
}
