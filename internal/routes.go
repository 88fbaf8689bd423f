package internal

import (
	"net/http"
	"studyd/internal/controllers"
	"studyd/internal/providers"
	"studyd/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/boards", http.HandlerFunc(apiController.GetBoard))
	routers.Get("/session-version", http.HandlerFunc(apiController.GetSessionVersion))
	return routers
}
