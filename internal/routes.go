package internal

import (
	"barcodedrop/internal/controllers"
	"barcodedrop/internal/providers"
	"net/http"
)

func InitRoutes(scanController *controllers.ScanController, settingsController *controllers.SettingsController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/scans", http.HandlerFunc(scanController.List))
	routers.Post("/scans", http.HandlerFunc(scanController.Submit))
	routers.Get("/scans/export", http.HandlerFunc(scanController.Export))
	routers.Post("/scans/delete", http.HandlerFunc(scanController.Delete))
	routers.Post("/scans/clear", http.HandlerFunc(scanController.Clear))
	routers.Post("/visible", http.HandlerFunc(scanController.Visible))
	routers.Get("/settings", http.HandlerFunc(settingsController.Get))
	routers.Post("/settings/autocopy", http.HandlerFunc(settingsController.SetAutoCopy))
	return routers
}
