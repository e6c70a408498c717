package app

import (
	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

type Repos struct {
	Game          repos.GameRepo
	PlatformCache repos.PlatformCacheRepo
	UserGame      repos.UserGameRepo
	PlatformLink  repos.PlatformLinkRepo
	PSNTitle      repos.PSNTitleRepo
	SteamAppMap   repos.SteamAppMapRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Game:          repos.NewGameRepo(db, log),
		PlatformCache: repos.NewPlatformCacheRepo(db, log),
		UserGame:      repos.NewUserGameRepo(db, log),
		PlatformLink:  repos.NewPlatformLinkRepo(db, log),
		PSNTitle:      repos.NewPSNTitleRepo(db, log),
		SteamAppMap:   repos.NewSteamAppMapRepo(db, log),
	}
}
