package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

// ImportItem is one promote request: move a matched platform-cache
// entry into the user's library.
type ImportItem struct {
	IGDBID     int64                 `json:"igdb_id" binding:"required"`
	PlatformID string                `json:"platform_id"`
	ListType   library.LibraryStatus `json:"list_type"`
}

type ImportDelta struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImporterService promotes matched platform titles into the
// user-library table and owns the cross-platform playtime aggregates.
type ImporterService interface {
	ImportGames(ctx context.Context, userID uuid.UUID, platform library.Platform, items []ImportItem) (*ImportDelta, error)

	// UpdateLibraryStats recomputes playtime and last-played for the
	// given canonical ids from every platform-cache row the user has.
	UpdateLibraryStats(ctx context.Context, userID uuid.UUID, igdbIDs []int64) error
}

type importerService struct {
	store     GameStoreService
	cache     repos.PlatformCacheRepo
	userGames repos.UserGameRepo
	log       *logger.Logger
}

func NewImporterService(store GameStoreService, cache repos.PlatformCacheRepo, userGames repos.UserGameRepo, baseLog *logger.Logger) ImporterService {
	return &importerService{
		store:     store,
		cache:     cache,
		userGames: userGames,
		log:       baseLog.With("service", "ImporterService"),
	}
}

func (s *importerService) ImportGames(ctx context.Context, userID uuid.UUID, platform library.Platform, items []ImportItem) (*ImportDelta, error) {
	delta := &ImportDelta{}
	for _, item := range items {
		game, err := s.store.GetByIGDBID(ctx, item.IGDBID)
		if err != nil {
			s.log.Warn("import skipped unresolvable game",
				"user_id", userID, "igdb_id", item.IGDBID, "error", err)
			delta.Skipped++
			continue
		}

		playtime, lastPlayed, err := s.aggregateStats(ctx, userID, item.IGDBID)
		if err != nil {
			return nil, err
		}

		entry, err := s.userGames.GetByUserAndIGDBID(ctx, nil, userID, item.IGDBID)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		if entry != nil {
			fields := map[string]any{
				"playtime_minutes": playtime,
				"last_played_at":   lastPlayed,
				"updated_at":       now,
			}
			if entry.Status == library.StatusWantToPlay && item.ListType == library.StatusPlayed {
				fields["status"] = library.StatusPlayed
			}
			if err := s.userGames.UpdateFields(ctx, nil, entry.ID, fields); err != nil {
				return nil, err
			}
			delta.Skipped++
		} else {
			status := item.ListType
			if status == "" {
				status = library.StatusInList
			}
			if err := s.userGames.Create(ctx, nil, &library.UserGame{
				UserID:          userID,
				GameID:          game.ID,
				IGDBID:          item.IGDBID,
				Status:          status,
				PlaytimeMinutes: playtime,
				LastPlayedAt:    lastPlayed,
				ImportSource:    importSourceFor(platform),
				AddedAt:         now,
				UpdatedAt:       now,
			}); err != nil {
				return nil, err
			}
			delta.Imported++
		}

		if err := s.cache.MarkImportedByMatchedID(ctx, nil, userID, item.IGDBID); err != nil {
			return nil, err
		}
	}
	return delta, nil
}

func (s *importerService) UpdateLibraryStats(ctx context.Context, userID uuid.UUID, igdbIDs []int64) error {
	for _, igdbID := range igdbIDs {
		entry, err := s.userGames.GetByUserAndIGDBID(ctx, nil, userID, igdbID)
		if err != nil {
			return err
		}
		if entry == nil {
			continue
		}
		playtime, lastPlayed, err := s.aggregateStats(ctx, userID, igdbID)
		if err != nil {
			return err
		}
		if err := s.userGames.UpdateFields(ctx, nil, entry.ID, map[string]any{
			"playtime_minutes": playtime,
			"last_played_at":   lastPlayed,
			"updated_at":       time.Now().UTC(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// aggregateStats sums playtime and takes the max last-played over all
// of the user's cache rows matched to one canonical game, across every
// platform.
func (s *importerService) aggregateStats(ctx context.Context, userID uuid.UUID, igdbID int64) (int, *time.Time, error) {
	rows, err := s.cache.GetByMatchedIGDBID(ctx, nil, userID, igdbID)
	if err != nil {
		return 0, nil, err
	}
	playtime := 0
	var lastPlayed *time.Time
	for _, row := range rows {
		playtime += row.PlaytimeMinutes
		if row.LastPlayedAt != nil && (lastPlayed == nil || row.LastPlayedAt.After(*lastPlayed)) {
			lastPlayed = row.LastPlayedAt
		}
	}
	return playtime, lastPlayed, nil
}

func importSourceFor(platform library.Platform) library.ImportSource {
	switch platform {
	case library.PlatformPSN:
		return library.SourcePSN
	case library.PlatformSteam:
		return library.SourceSteam
	default:
		return library.SourceManual
	}
}
