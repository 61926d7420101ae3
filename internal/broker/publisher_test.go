package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct {
	calls int
}

func (f *failingPublisher) Publish(topic string, messages ...*message.Message) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingPublisher) Close() error { return nil }

func TestPublisherDeliversWithMetadata(t *testing.T) {
	conn := NewMemoryConnection(NewZerologAdapter(zerolog.Nop()))
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := conn.Subscriber.Subscribe(ctx, TopicDownload)
	require.NoError(t, err)

	pub := NewPublisher(conn.Publisher, NewCircuitBreaker(DefaultBreakerConfig()))
	require.NoError(t, pub.Publish(ctx, TopicDownload, []byte(`{"a":1}`), map[string]string{
		"traceparent": "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
	}))

	select {
	case msg := <-messages:
		assert.JSONEq(t, `{"a":1}`, string(msg.Payload))
		assert.Equal(t, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01", msg.Metadata.Get("traceparent"))
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestPublisherBreakerOpens(t *testing.T) {
	failing := &failingPublisher{}
	cfg := DefaultBreakerConfig()
	cfg.Name = "test-publish"
	cfg.FailureThreshold = 2
	pub := NewPublisher(failing, NewCircuitBreaker(cfg))

	ctx := context.Background()
	assert.Error(t, pub.Publish(ctx, TopicDownload, nil, nil))
	assert.Error(t, pub.Publish(ctx, TopicDownload, nil, nil))

	err := pub.Publish(ctx, TopicDownload, nil, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, failing.calls)
}

func TestPublisherClosed(t *testing.T) {
	pub := NewPublisher(&failingPublisher{}, nil)
	require.NoError(t, pub.Close())
	assert.Error(t, pub.Publish(context.Background(), TopicDownload, nil, nil))
}
