package app

import (
	"fmt"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/clients/platforms"
	"github.com/gamepile/gamepile-backend/internal/clients/psn"
	"github.com/gamepile/gamepile-backend/internal/clients/redisgate"
	"github.com/gamepile/gamepile-backend/internal/clients/steam"
	"github.com/gamepile/gamepile-backend/internal/logger"
)

type Clients struct {
	IGDB      igdb.Client
	Steam     *steam.Client
	SteamAuth *steam.OpenID
	PSN       *psn.Client
	Gate      redisgate.SyncGate
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")
	igdbClient, err := igdb.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init igdb client: %w", err)
	}
	steamClient, err := steam.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init steam client: %w", err)
	}
	steamAuth, err := steam.NewOpenID(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init steam openid: %w", err)
	}
	psnClient, err := psn.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init psn client: %w", err)
	}
	gate, err := redisgate.NewSyncGate(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init sync gate: %w", err)
	}
	return Clients{
		IGDB:      igdbClient,
		Steam:     steamClient,
		SteamAuth: steamAuth,
		PSN:       psnClient,
		Gate:      gate,
	}, nil
}

func (c Clients) Adapters() []platforms.Adapter {
	return []platforms.Adapter{c.PSN, c.Steam}
}
