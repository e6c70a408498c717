package app

import (
	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/services"
)

type Services struct {
	Matcher   services.MatcherService
	Refresher services.RefresherService
	Store     services.GameStoreService
	Importer  services.ImporterService
	Sync      services.SyncService
	Populate  services.PopulateService
	Webhook   services.WebhookService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")
	matcher, err := services.NewMatcherService(reposet.Game, reposet.PSNTitle, log)
	if err != nil {
		return Services{}, err
	}
	refresher := services.NewRefresherService(clients.IGDB, reposet.Game, log)
	store := services.NewGameStoreService(reposet.Game, clients.IGDB, refresher, log)
	importer := services.NewImporterService(store, reposet.PlatformCache, reposet.UserGame, log)
	syncService := services.NewSyncService(
		db,
		clients.Adapters(),
		matcher,
		importer,
		reposet.SteamAppMap,
		reposet.PlatformCache,
		reposet.PlatformLink,
		reposet.UserGame,
		clients.Gate,
		log,
	)
	populate := services.NewPopulateService(db, clients.IGDB, reposet.Game, log)
	webhook, err := services.NewWebhookService(reposet.Game, log)
	if err != nil {
		return Services{}, err
	}
	return Services{
		Matcher:   matcher,
		Refresher: refresher,
		Store:     store,
		Importer:  importer,
		Sync:      syncService,
		Populate:  populate,
		Webhook:   webhook,
	}, nil
}
