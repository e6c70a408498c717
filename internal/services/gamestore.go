package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
	"github.com/gamepile/gamepile-backend/internal/projection"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

// GameStoreService is the read surface over canonical games. Cached
// rows are served immediately; staleness only schedules a background
// refresh, it never blocks the read. A miss falls through to the
// provider synchronously and stores the result when it passes the
// quality filter.
type GameStoreService interface {
	GetByIGDBID(ctx context.Context, igdbID int64) (*catalog.Game, error)
	GetBySlug(ctx context.Context, slug string) (*catalog.Game, error)
	GetByID(ctx context.Context, id uint64) (*catalog.Game, error)
	Browse(ctx context.Context, limit, offset int) ([]*catalog.Game, error)
}

type gameStoreService struct {
	games     repos.GameRepo
	igdb      igdb.Client
	refresher RefresherService
	log       *logger.Logger
}

func NewGameStoreService(games repos.GameRepo, client igdb.Client, refresher RefresherService, baseLog *logger.Logger) GameStoreService {
	return &gameStoreService{
		games:     games,
		igdb:      client,
		refresher: refresher,
		log:       baseLog.With("service", "GameStoreService"),
	}
}

func (s *gameStoreService) GetByIGDBID(ctx context.Context, igdbID int64) (*catalog.Game, error) {
	game, err := s.games.GetByIGDBID(ctx, nil, igdbID)
	if err != nil {
		return nil, err
	}
	if game != nil {
		if s.refresher.IsStale(game) {
			s.refresher.RefreshAsync(game.IGDBID)
		}
		return game, nil
	}

	raw, err := s.igdb.FetchByID(ctx, igdbID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("game %d: %w", igdbID, apperr.ErrNotFound)
	}
	return s.store(ctx, raw)
}

func (s *gameStoreService) GetBySlug(ctx context.Context, slug string) (*catalog.Game, error) {
	game, err := s.games.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, err
	}
	if game != nil {
		if s.refresher.IsStale(game) {
			s.refresher.RefreshAsync(game.IGDBID)
		}
		return game, nil
	}

	body := igdb.NewQuery().
		Fields(igdb.GameFields).
		Where(fmt.Sprintf(`slug = "%s"`, strings.ReplaceAll(slug, `"`, `\"`))).
		Limit(1).
		Build()
	records, err := s.igdb.FetchQuery(ctx, body, "games")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("slug %q: %w", slug, apperr.ErrNotFound)
	}
	return s.store(ctx, records[0])
}

func (s *gameStoreService) GetByID(ctx context.Context, id uint64) (*catalog.Game, error) {
	game, err := s.games.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game row %d: %w", id, apperr.ErrNotFound)
	}
	return game, nil
}

func (s *gameStoreService) Browse(ctx context.Context, limit, offset int) ([]*catalog.Game, error) {
	return s.games.Browse(ctx, nil, limit, offset)
}

// store projects and persists one freshly fetched record. The quality
// filter applies on this create path only; an already-stored record
// that loses a concurrent create race is returned as-is.
func (s *gameStoreService) store(ctx context.Context, raw igdb.Record) (*catalog.Game, error) {
	game, err := projection.ProjectGame(raw)
	if err != nil {
		return nil, err
	}
	if !projection.MeetsQuality(game) {
		return nil, fmt.Errorf("game %d rejected by quality filter: %w", game.IGDBID, apperr.ErrNotFound)
	}
	game.UpdatedAt = time.Now().UTC()
	if err := s.games.Create(ctx, nil, game); err != nil {
		if apperr.IsUniqueViolation(err) {
			return s.games.GetByIGDBID(ctx, nil, game.IGDBID)
		}
		return nil, err
	}
	s.refresher.RefreshAuxAsync(game.IGDBID)
	return game, nil
}
