package controllers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/tritonevents/internal/broker"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/services/trello"
)

type move struct {
	CardID string
	ListID string
}

type fakeBoard struct {
	mu          sync.Mutex
	cards       map[string]*trello.Card
	attachments map[string][]trello.Attachment
	moves       []move
	labels      []move
	moveErr     error
	labelErr    error
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		cards:       map[string]*trello.Card{},
		attachments: map[string][]trello.Attachment{},
	}
}

func (b *fakeBoard) addCard(card *trello.Card, attachments ...trello.Attachment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cards[card.ID] = card
	b.attachments[card.ID] = attachments
}

func (b *fakeBoard) GetCard(ctx context.Context, cardID string) (*trello.Card, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	card, ok := b.cards[cardID]
	if !ok {
		return nil, fmt.Errorf("card %s not found", cardID)
	}
	return card, nil
}

func (b *fakeBoard) GetAttachments(ctx context.Context, cardID string) ([]trello.Attachment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attachments[cardID], nil
}

func (b *fakeBoard) MoveCard(ctx context.Context, cardID, listID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.moveErr != nil {
		return b.moveErr
	}
	b.moves = append(b.moves, move{CardID: cardID, ListID: listID})
	return nil
}

func (b *fakeBoard) LabelCard(ctx context.Context, cardID, labelID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.labelErr != nil {
		return b.labelErr
	}
	b.labels = append(b.labels, move{CardID: cardID, ListID: labelID})
	return nil
}

func (b *fakeBoard) recordedMoves() []move {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]move(nil), b.moves...)
}

func (b *fakeBoard) recordedLabels() []move {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]move(nil), b.labels...)
}

func newTestStore(t *testing.T) *models.Database {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.NewDatabase(fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestBroker(t *testing.T) *broker.Connection {
	t.Helper()
	conn := broker.NewMemoryConnection(broker.NewZerologAdapter(zerolog.Nop()))
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func subscribe(t *testing.T, conn *broker.Connection, topic string) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	messages, err := conn.Subscriber.Subscribe(ctx, topic)
	require.NoError(t, err)
	return messages
}

func receiveJob(t *testing.T, messages <-chan *message.Message) (*broker.DownloadJob, *message.Message) {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		job, err := broker.DecodeJob(msg.Payload)
		require.NoError(t, err)
		return job, msg
	case <-time.After(2 * time.Second):
		t.Fatal("no job published")
		return nil, nil
	}
}

func assertNoMessage(t *testing.T, messages <-chan *message.Message) {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		t.Fatalf("unexpected message %s", string(msg.Payload))
	case <-time.After(100 * time.Millisecond):
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, topic string, payload []byte, metadata map[string]string) error {
	return fmt.Errorf("broker unavailable")
}

func newBoardRecord(t *testing.T, store models.Store, cardID string, metadataID string) *models.MediaRecord {
	t.Helper()
	rec := &models.MediaRecord{
		ID:               fmt.Sprintf("media-%s", metadataID),
		Name:             "Cowboy Bebop",
		Creator:          models.CreatorBoard,
		CreatorRef:       &cardID,
		MediaType:        models.MediaTypeSeries,
		SourceProtocol:   models.SourceMagnet,
		SourceLocator:    "magnet:?xt=urn:btih:abc",
		MetadataProvider: models.MetadataMAL,
		MetadataID:       metadataID,
		Status:           models.StatusQueued,
	}
	require.NoError(t, store.Insert(context.Background(), rec))
	return rec
}
