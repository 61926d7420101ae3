//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/controllers"
)

var storeSet = wire.NewSet(
	provideStore,
	controllers.NewIdentityController,
)

var brokerSet = wire.NewSet(
	provideBroker,
	providePublisher,
	provideMessagePublisher,
)

var boardSet = wire.NewSet(
	provideTrelloClient,
	provideBoard,
	provideRegistrar,
)

var controllerSet = wire.NewSet(
	provideTransformer,
	provideJobPublisher,
	provideIntakeController,
	provideEventSource,
	provideSink,
	controllers.NewRequeueController,
	provideRequeuer,
	provideStatusController,
)

func initializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		provideLogger,
		storeSet,
		brokerSet,
		boardSet,
		controllerSet,
		provideServer,
		provideScheduler,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
