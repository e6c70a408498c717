package app

import (
	"github.com/gin-gonic/gin"

	"github.com/gamepile/gamepile-backend/internal/handlers"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/middleware"
	"github.com/gamepile/gamepile-backend/internal/server"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

type Handlers struct {
	Game    *handlers.GameHandler
	Library *handlers.LibraryHandler
	Webhook *handlers.WebhookHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Game: handlers.NewGameHandler(log, serviceset.Store),
		Library: handlers.NewLibraryHandler(
			log,
			serviceset.Sync,
			serviceset.Importer,
			clients.Adapters(),
			clients.SteamAuth,
			reposet.PlatformLink,
			reposet.PlatformCache,
			reposet.UserGame,
		),
		Webhook: handlers.NewWebhookHandler(log, serviceset.Webhook, clients.IGDB),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireRouter(handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		GameHandler:    handlerset.Game,
		LibraryHandler: handlerset.Library,
		WebhookHandler: handlerset.Webhook,
		AuthMiddleware: mw.Auth,
	})
}
