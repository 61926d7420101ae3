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
	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/services/trello"
	"github.com/amaumene/tritonevents/internal/transform"
)

type intakeFixture struct {
	store  *models.Database
	board  *fakeBoard
	conn   *broker.Connection
	intake *IntakeController
}

func newIntakeFixture(t *testing.T, mode config.IntakeMode) *intakeFixture {
	t.Helper()
	store := newTestStore(t)
	board := newFakeBoard()
	conn := newTestBroker(t)

	pub := NewJobPublisher(broker.NewPublisher(conn.Publisher, nil), board, "label-verified", time.Second, zerolog.Nop())
	intake := NewIntakeController(
		board,
		transform.NewCardTransformer(transform.DefaultRegistry(), zerolog.Nop()),
		NewIdentityController(store, zerolog.Nop()),
		pub,
		mode,
		time.Second,
		zerolog.Nop(),
	)
	return &intakeFixture{store: store, board: board, conn: conn, intake: intake}
}

func bebopCard(id string) (*trello.Card, trello.Attachment) {
	card := &trello.Card{
		ID:   id,
		Name: "Cowboy Bebop",
		Desc: "Please grab [magnet](magnet:?xt=urn:btih:abc)",
	}
	attachment := trello.Attachment{
		Name: "MAL",
		URL:  "https://myanimelist.net/anime/1/Cowboy_Bebop",
	}
	return card, attachment
}

func TestIntakeMagnetMALEndToEnd(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeStrict)
	jobs := subscribe(t, f.conn, broker.TopicDownload)
	card, attachment := bebopCard("card-1")
	f.board.addCard(card, attachment)

	require.NoError(t, f.intake.HandleCandidate(context.Background(), IntakeCandidate{CardID: "card-1"}))

	job, _ := receiveJob(t, jobs)
	assert.Equal(t, "Cowboy Bebop", job.Media.Name)
	assert.Equal(t, models.CreatorBoard, job.Media.Creator)
	assert.Equal(t, "card-1", job.Media.CreatorID)
	assert.Equal(t, models.SourceMagnet, job.Media.Source)
	assert.Equal(t, "magnet:?xt=urn:btih:abc", job.Media.SourceURI)
	assert.Equal(t, models.MetadataMAL, job.Media.Metadata)
	assert.Equal(t, "1", job.Media.MetadataID)
	assert.Equal(t, models.MediaTypeSeries, job.Media.Type)
	assertNoMessage(t, jobs)

	stored, err := f.store.FindByIdentity(context.Background(), models.MetadataMAL, "1")
	require.NoError(t, err)
	assert.Equal(t, job.Media.ID, stored.ID)
	assert.Equal(t, models.StatusQueued, stored.Status)

	assert.Equal(t, []move{{CardID: "card-1", ListID: "label-verified"}}, f.board.recordedLabels())
}

func TestIntakeDuplicateCardStrict(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeStrict)
	jobs := subscribe(t, f.conn, broker.TopicDownload)
	card, attachment := bebopCard("card-1")
	f.board.addCard(card, attachment)
	again, _ := bebopCard("card-2")
	f.board.addCard(again, attachment)

	require.NoError(t, f.intake.HandleCandidate(context.Background(), IntakeCandidate{CardID: "card-1"}))
	receiveJob(t, jobs)

	err := f.intake.HandleCandidate(context.Background(), IntakeCandidate{CardID: "card-2"})
	assert.ErrorIs(t, err, models.ErrDuplicateIdentity)
	assertNoMessage(t, jobs)
}

func TestIntakeDuplicateCardReuse(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeReuse)
	jobs := subscribe(t, f.conn, broker.TopicDownload)
	card, attachment := bebopCard("card-1")
	f.board.addCard(card, attachment)

	require.NoError(t, f.intake.HandleCandidate(context.Background(), IntakeCandidate{CardID: "card-1"}))
	first, _ := receiveJob(t, jobs)

	require.NoError(t, f.intake.HandleCandidate(context.Background(), IntakeCandidate{CardID: "card-1"}))
	second, _ := receiveJob(t, jobs)
	assert.Equal(t, first.Media.ID, second.Media.ID)
}

func TestIntakeInvalidCard(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeStrict)
	jobs := subscribe(t, f.conn, broker.TopicDownload)
	f.board.addCard(&trello.Card{ID: "card-1", Name: "No source", Desc: "nothing here"},
		trello.Attachment{Name: "MAL", URL: "1"})

	err := f.intake.HandleCandidate(context.Background(), IntakeCandidate{CardID: "card-1"})
	var verr *transform.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, transform.FieldSource, verr.Field)

	all, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assertNoMessage(t, jobs)
	assert.Empty(t, f.board.recordedLabels())
}

func TestIntakeBoardFailure(t *testing.T) {
	f := newIntakeFixture(t, config.IntakeStrict)
	err := f.intake.HandleCandidate(context.Background(), IntakeCandidate{CardID: "missing"})
	assert.Error(t, err)
}
