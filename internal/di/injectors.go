//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"studyd/internal"
	"studyd/internal/admin"
	"studyd/internal/board"
	"studyd/internal/controllers"
	"studyd/internal/export"
	"studyd/internal/glyphs"
	"studyd/internal/platform"
	"studyd/internal/platform/gateway"
	"studyd/internal/providers"
	"studyd/internal/scheduler"
	"studyd/internal/services"
	"studyd/internal/store"
	"studyd/internal/structures"
	"studyd/internal/tracker"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewCacheProvider,
		providers.NewMetricsProvider,
		providers.NewLocation,

		gateway.NewClient,
		wire.Bind(new(platform.EventStream), new(*gateway.Client)),
		wire.Bind(new(platform.RosterPoller), new(*gateway.Client)),
		wire.Bind(new(platform.ReferenceFetcher), new(*gateway.Client)),
		wire.Bind(new(platform.Sender), new(*gateway.Client)),

		store.NewAccumulationStore,
		store.NewZstdCompressor,
		store.NewArchiver,
		tracker.NewTracker,
		glyphs.NewGlyphResolver,
		board.NewAliasResolver,
		board.NewEngine,
		board.NewRand,
		board.NewChooser,
		board.NewPublisher,
		export.NewClient,
		services.NewBoardService,
		scheduler.NewScheduler,
		admin.NewDispatcher,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
