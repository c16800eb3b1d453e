//go:build wireinject
// +build wireinject

package di

import (
	"barcodedrop/internal"
	"barcodedrop/internal/api"
	"barcodedrop/internal/channel"
	"barcodedrop/internal/clipboard"
	"barcodedrop/internal/console"
	"barcodedrop/internal/controllers"
	"barcodedrop/internal/persistence"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/services"
	"barcodedrop/internal/structures"

	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		api.NewClient,
		channel.NewWebsocketDialer,
		channel.NewChannel,
		clipboard.NewSystemWriter,
		console.NewRenderer,
		internal.NewNotifier,

		services.NewPreferencesService,
		services.NewSuppressionSet,
		services.NewScanStore,
		services.NewAutoCopyEngine,
		wire.Bind(new(services.AutoCopyEngineInterface), new(*services.AutoCopyEngine)),
		services.NewSession,
		services.NewExportService,

		persistence.NewZstdCompressor,
		persistence.NewFileManager,
		persistence.NewScheduler,

		controllers.NewScanController,
		controllers.NewSettingsController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
