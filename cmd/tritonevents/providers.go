package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/api"
	"github.com/amaumene/tritonevents/internal/api/handlers"
	"github.com/amaumene/tritonevents/internal/broker"
	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/controllers"
	"github.com/amaumene/tritonevents/internal/database"
	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/repository"
	"github.com/amaumene/tritonevents/internal/scheduler"
	"github.com/amaumene/tritonevents/internal/services/trello"
	"github.com/amaumene/tritonevents/internal/transform"
	"github.com/amaumene/tritonevents/internal/utils"
)

const intakeQueueSize = 256

// App holds the long-running pieces of the service
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Server    *api.Server
	Events    *controllers.EventSource
	Status    *controllers.StatusController
	Scheduler *scheduler.Scheduler
	Registrar *trello.Registrar
	Requeue   *controllers.RequeueController
}

func provideLogger(cfg *config.Config) zerolog.Logger {
	return utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

func provideStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (models.Store, func(), error) {
	var store models.Store
	switch cfg.DatabaseDriver {
	case "postgres":
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store = repository.NewMediaRepository(pool)
	default:
		db, err := models.NewDatabase(cfg.DatabaseFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Info().Str("config_dir", filepath.Dir(cfg.DatabaseFile)).Msg("Database initialized")
		store = db
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close database")
		}
	}
	return store, cleanup, nil
}

func provideBroker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*broker.Connection, func(), error) {
	natsCfg := broker.NATSConfig{
		URL:              cfg.NATSURL,
		Stream:           cfg.NATSStream,
		Durable:          cfg.NATSDurable,
		MaxAckPending:    cfg.StatusPrefetch,
		SubscribersCount: cfg.StatusPrefetch,
	}
	conn, err := broker.Open(ctx, cfg.BrokerDriver, natsCfg, broker.NewZerologAdapter(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	logger.Info().Str("driver", cfg.BrokerDriver).Msg("Broker connected")

	cleanup := func() {
		if err := conn.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close broker connection")
		}
	}
	return conn, cleanup, nil
}

func providePublisher(conn *broker.Connection) *broker.Publisher {
	return broker.NewPublisher(conn.Publisher, broker.NewCircuitBreaker(broker.DefaultBreakerConfig()))
}

func provideMessagePublisher(p *broker.Publisher) controllers.MessagePublisher {
	return p
}

// provideTrelloClient returns nil when the board is disabled
func provideTrelloClient(cfg *config.Config, logger zerolog.Logger) *trello.Client {
	if cfg.BoardDisabled {
		return nil
	}
	return trello.NewClient(cfg, logger)
}

func provideBoard(client *trello.Client) controllers.Board {
	if client == nil {
		return nil
	}
	return client
}

func provideRegistrar(cfg *config.Config, client *trello.Client, logger zerolog.Logger) *trello.Registrar {
	if client == nil || !cfg.WebhookRegister {
		return nil
	}
	return trello.NewRegistrar(client, cfg.TrelloBoard, cfg.WebhookCallbackURL, cfg.WebhookMaxRetries, logger)
}

func provideTransformer(logger zerolog.Logger) *transform.CardTransformer {
	return transform.NewCardTransformer(transform.DefaultRegistry(), logger)
}

func provideJobPublisher(cfg *config.Config, publisher controllers.MessagePublisher, board controllers.Board, logger zerolog.Logger) *controllers.JobPublisher {
	return controllers.NewJobPublisher(publisher, board, cfg.VerifiedLabel, cfg.OperationTimeout, logger)
}

func provideIntakeController(cfg *config.Config, board controllers.Board, transformer *transform.CardTransformer, identity *controllers.IdentityController, publisher *controllers.JobPublisher, logger zerolog.Logger) *controllers.IntakeController {
	return controllers.NewIntakeController(board, transformer, identity, publisher, cfg.IntakeMode, cfg.OperationTimeout, logger)
}

func provideEventSource(cfg *config.Config, intake *controllers.IntakeController, logger zerolog.Logger) *controllers.EventSource {
	return controllers.NewEventSource(cfg.RequestsList, cfg.ReadyList, cfg.IntakeWorkers, intakeQueueSize, intake, logger)
}

// provideSink returns nil when the board is disabled, which keeps the webhook routes off
func provideSink(cfg *config.Config, events *controllers.EventSource) handlers.NotificationSink {
	if cfg.BoardDisabled {
		return nil
	}
	return events
}

func provideRequeuer(c *controllers.RequeueController) handlers.Requeuer {
	return c
}

func provideStatusController(cfg *config.Config, store models.Store, board controllers.Board, conn *broker.Connection, logger zerolog.Logger) *controllers.StatusController {
	return controllers.NewStatusController(store, board, cfg.StatusLists, conn.Subscriber, cfg.StatusPrefetch, cfg.OperationTimeout, logger)
}

func provideServer(cfg *config.Config, store models.Store, requeuer handlers.Requeuer, sink handlers.NotificationSink, logger zerolog.Logger) *api.Server {
	return api.NewServer(cfg, store, requeuer, sink, logger)
}

func provideScheduler(cfg *config.Config, store models.Store, logger zerolog.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(store, cfg.StaleQueuedMinutes, logger)
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.OperationTimeout > 10*time.Second {
		return cfg.OperationTimeout
	}
	return 10 * time.Second
}
