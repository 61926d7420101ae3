package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	DriverNATS   = "nats"
	DriverMemory = "memory"
)

// Connection holds the process-wide publisher and subscriber
type Connection struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Open connects to the broker selected by driver
func Open(ctx context.Context, driver string, cfg NATSConfig, logger watermill.LoggerAdapter) (*Connection, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryConnection(logger), nil
	case DriverNATS:
		cfg = cfg.withDefaults()

		if err := EnsureStream(ctx, cfg); err != nil {
			return nil, err
		}
		pub, err := NewNATSPublisher(cfg, logger)
		if err != nil {
			return nil, err
		}
		sub, err := NewNATSSubscriber(cfg, logger)
		if err != nil {
			_ = pub.Close()
			return nil, err
		}
		return &Connection{Publisher: pub, Subscriber: sub}, nil
	default:
		return nil, fmt.Errorf("unsupported broker driver %q", driver)
	}
}

func (c NATSConfig) withDefaults() NATSConfig {
	if c.AckWait == 0 {
		c.AckWait = 30 * time.Second
	}
	if c.MaxDeliver == 0 {
		c.MaxDeliver = -1
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = -1
	}
	if c.SubscribersCount < 1 {
		c.SubscribersCount = c.MaxAckPending
	}
	if c.SubscribersCount < 1 {
		c.SubscribersCount = 1
	}
	if c.MaxAckPending < c.SubscribersCount {
		c.MaxAckPending = c.SubscribersCount
	}
	return c
}

// NewMemoryConnection creates an in-process connection for tests and single-node runs
func NewMemoryConnection(logger watermill.LoggerAdapter) *Connection {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, logger)
	return &Connection{Publisher: pubSub, Subscriber: pubSub}
}

// Close closes the publisher and subscriber
func (c *Connection) Close() error {
	return errors.Join(c.Publisher.Close(), c.Subscriber.Close())
}
