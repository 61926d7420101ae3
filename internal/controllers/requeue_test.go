package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/tritonevents/internal/broker"
	"github.com/amaumene/tritonevents/internal/models"
)

func TestRequeuePublishesSameID(t *testing.T) {
	conn := newTestBroker(t)
	jobs := subscribe(t, conn, broker.TopicDownload)
	store := newTestStore(t)
	rec := newBoardRecord(t, store, "card-1", "1")
	require.NoError(t, store.UpdateStatus(context.Background(), rec.ID, models.StatusErrored))

	pub := NewJobPublisher(broker.NewPublisher(conn.Publisher, nil), nil, "", time.Second, zerolog.Nop())
	requeue := NewRequeueController(store, pub, zerolog.Nop())

	media, err := requeue.Requeue(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, media.Status)

	job, _ := receiveJob(t, jobs)
	assert.Equal(t, rec.ID, job.Media.ID)
	assert.Equal(t, models.StatusQueued, job.Media.Status)
	assertNoMessage(t, jobs)
}

func TestRequeueUnknownMedia(t *testing.T) {
	pub := NewJobPublisher(failingPublisher{}, nil, "", time.Second, zerolog.Nop())
	requeue := NewRequeueController(newTestStore(t), pub, zerolog.Nop())

	_, err := requeue.Requeue(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
