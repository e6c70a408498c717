package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/clients/platforms"
	"github.com/gamepile/gamepile-backend/internal/clients/redisgate"
	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

// SyncDelta summarizes one library sync.
type SyncDelta struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Updated   int `json:"updated"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
}

// SyncService reconciles a platform library against the per-user
// platform cache. One sync per user+platform runs at a time; the redis
// gate rejects overlap. All cache writes happen in one transaction so
// an error leaves no partial progress.
type SyncService interface {
	SyncLibrary(ctx context.Context, userID uuid.UUID, platform library.Platform) (*SyncDelta, error)
}

const steamMatchWorkers = 8

type syncService struct {
	db        *gorm.DB
	adapters  map[library.Platform]platforms.Adapter
	matcher   MatcherService
	importer  ImporterService
	steamMap  repos.SteamAppMapRepo
	cache     repos.PlatformCacheRepo
	links     repos.PlatformLinkRepo
	userGames repos.UserGameRepo
	gate      redisgate.SyncGate
	log       *logger.Logger
}

func NewSyncService(
	db *gorm.DB,
	adapters []platforms.Adapter,
	matcher MatcherService,
	importer ImporterService,
	steamMap repos.SteamAppMapRepo,
	cache repos.PlatformCacheRepo,
	links repos.PlatformLinkRepo,
	userGames repos.UserGameRepo,
	gate redisgate.SyncGate,
	baseLog *logger.Logger,
) SyncService {
	byPlatform := make(map[library.Platform]platforms.Adapter, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
	}
	return &syncService{
		db:        db,
		adapters:  byPlatform,
		matcher:   matcher,
		importer:  importer,
		steamMap:  steamMap,
		cache:     cache,
		links:     links,
		userGames: userGames,
		gate:      gate,
		log:       baseLog.With("service", "SyncService"),
	}
}

func (s *syncService) SyncLibrary(ctx context.Context, userID uuid.UUID, platform library.Platform) (*SyncDelta, error) {
	adapter, ok := s.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}

	release, acquired, err := s.gate.Acquire(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("sync already running for %s: %w", platform, apperr.ErrConflict)
	}
	defer release()

	link, err := s.links.GetByUserPlatform(ctx, nil, userID, platform)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("%s account not linked: %w", platform, apperr.ErrNotFound)
	}

	fetched, err := adapter.FetchLibrary(ctx, link.AccountID)
	if err != nil {
		return nil, err
	}

	delta := &SyncDelta{}
	titles := s.prepareTitles(platform, fetched, delta)

	existing, err := s.cache.GetForUserPlatform(ctx, nil, userID, platform)
	if err != nil {
		return nil, err
	}
	cached := make(map[string]*library.PlatformCache, len(existing))
	for _, entry := range existing {
		cached[entry.PlatformID] = entry
	}

	librarySet, err := s.userGames.IGDBIDSet(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	var uncached []platforms.Title
	for _, t := range titles {
		if _, ok := cached[t.PlatformID]; !ok {
			uncached = append(uncached, t)
		}
	}
	matches, err := s.matchTitles(ctx, platform, uncached)
	if err != nil {
		return nil, err
	}

	matchedIDs := make(map[int64]struct{})
	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range titles {
			delta.Total++
			entry := cached[t.PlatformID]
			if entry != nil {
				if err := s.reconcileEntry(ctx, tx, entry, t, librarySet, now, delta); err != nil {
					return err
				}
				if entry.MatchedIGDBID != nil {
					matchedIDs[*entry.MatchedIGDBID] = struct{}{}
					delta.Matched++
				} else {
					delta.Unmatched++
				}
				continue
			}

			result := matches[t.PlatformID]
			if err := s.createEntry(ctx, tx, userID, platform, t, result, librarySet, now); err != nil {
				return err
			}
			delta.New++
			if result != nil {
				matchedIDs[result.IGDBID] = struct{}{}
				delta.Matched++
			} else {
				delta.Unmatched++
			}
		}
		return s.links.TouchSynced(ctx, tx, userID, platform, now)
	})
	if err != nil {
		return nil, err
	}

	// Post-commit aggregation runs on the service's own session; a
	// failure here does not undo the sync.
	ids := make([]int64, 0, len(matchedIDs))
	for id := range matchedIDs {
		ids = append(ids, id)
	}
	if err := s.importer.UpdateLibraryStats(ctx, userID, ids); err != nil {
		s.log.Warn("post-sync stats recompute failed", "user_id", userID, "error", err)
	}

	s.log.Info("library sync complete",
		"user_id", userID, "platform", platform,
		"total", delta.Total, "new", delta.New, "updated", delta.Updated,
		"matched", delta.Matched, "unmatched", delta.Unmatched, "skipped", delta.Skipped)
	return delta, nil
}

// prepareTitles drops blocklisted titles, deduplicates by external id
// and, for PSN, merges PS4/PS5 duplicates of the same game by cleaned
// name: playtime and counts sum, last-played takes the max,
// first-played the min.
func (s *syncService) prepareTitles(platform library.Platform, fetched []platforms.Title, delta *SyncDelta) []platforms.Title {
	seen := make(map[string]struct{}, len(fetched))
	var titles []platforms.Title
	for _, t := range fetched {
		if s.matcher.IsBlocklisted(t.Name) {
			delta.Skipped++
			continue
		}
		if _, dup := seen[t.PlatformID]; dup {
			continue
		}
		seen[t.PlatformID] = struct{}{}
		titles = append(titles, t)
	}
	if platform != library.PlatformPSN {
		return titles
	}

	byName := make(map[string]int, len(titles))
	var merged []platforms.Title
	for _, t := range titles {
		key := s.matcher.CleanDisplayName(t.Name)
		idx, dup := byName[key]
		if !dup {
			byName[key] = len(merged)
			merged = append(merged, t)
			continue
		}
		kept := &merged[idx]
		kept.PlaytimeMinutes += t.PlaytimeMinutes
		kept.PlayCount += t.PlayCount
		if t.LastPlayed != nil && (kept.LastPlayed == nil || t.LastPlayed.After(*kept.LastPlayed)) {
			kept.LastPlayed = t.LastPlayed
		}
		if t.FirstPlayed != nil && (kept.FirstPlayed == nil || t.FirstPlayed.Before(*kept.FirstPlayed)) {
			kept.FirstPlayed = t.FirstPlayed
		}
	}
	return merged
}

// matchTitles resolves uncached titles. Steam runs in two phases: the
// shared app-id map first, then the local slug pipeline in parallel
// for the leftovers. PSN titles take the full per-title path. No
// provider calls happen during sync.
func (s *syncService) matchTitles(ctx context.Context, platform library.Platform, titles []platforms.Title) (map[string]*MatchResult, error) {
	results := make(map[string]*MatchResult, len(titles))
	if len(titles) == 0 {
		return results, nil
	}

	if platform == library.PlatformSteam {
		return s.matchSteam(ctx, titles)
	}

	for _, t := range titles {
		res, err := s.matcher.MatchPSN(ctx, t.PlatformID, s.matcher.CleanDisplayName(t.Name), t.FirstPlayed)
		if err != nil {
			return nil, err
		}
		if res != nil {
			results[t.PlatformID] = res
		}
	}
	return results, nil
}

func (s *syncService) matchSteam(ctx context.Context, titles []platforms.Title) (map[string]*MatchResult, error) {
	results := make(map[string]*MatchResult, len(titles))

	appIDs := make([]int64, 0, len(titles))
	byAppID := make(map[int64]platforms.Title, len(titles))
	for _, t := range titles {
		appID, err := strconv.ParseInt(t.PlatformID, 10, 64)
		if err != nil {
			continue
		}
		appIDs = append(appIDs, appID)
		byAppID[appID] = t
	}

	known, err := s.steamMap.GetByAppIDs(ctx, nil, appIDs)
	if err != nil {
		return nil, err
	}
	var leftovers []platforms.Title
	for appID, t := range byAppID {
		if entry, ok := known[appID]; ok {
			results[t.PlatformID] = &MatchResult{
				IGDBID:     entry.IGDBID,
				Name:       entry.Name,
				CoverURL:   &entry.CoverURL,
				Confidence: entry.Confidence,
				Method:     entry.Method,
			}
			continue
		}
		leftovers = append(leftovers, t)
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(steamMatchWorkers)
	for _, t := range leftovers {
		group.Go(func() error {
			res, err := s.matcher.Match(groupCtx, s.matcher.CleanDisplayName(t.Name), t.FirstPlayed)
			if err != nil {
				return err
			}
			if res == nil {
				return nil
			}
			mu.Lock()
			results[t.PlatformID] = res
			mu.Unlock()

			// Teach the shared map so the next sync of any user hits
			// the fast path. The map is an optimization, so a failed
			// write never fails the sync.
			appID, _ := strconv.ParseInt(t.PlatformID, 10, 64)
			cover := ""
			if res.CoverURL != nil {
				cover = *res.CoverURL
			}
			if err := s.steamMap.Upsert(groupCtx, nil, &library.SteamAppMap{
				AppID:      appID,
				IGDBID:     res.IGDBID,
				Name:       res.Name,
				CoverURL:   cover,
				Confidence: res.Confidence,
				Method:     res.Method,
				UpdatedAt:  time.Now().UTC(),
			}); err != nil {
				s.log.Warn("steam map write failed", "app_id", appID, "error", err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// reconcileEntry refreshes an existing cache row in place. Hidden rows
// stay hidden; everything else re-derives its status from library
// membership.
func (s *syncService) reconcileEntry(ctx context.Context, tx *gorm.DB, entry *library.PlatformCache, t platforms.Title, librarySet map[int64]struct{}, now time.Time, delta *SyncDelta) error {
	fields := map[string]any{
		"last_synced_at": now,
		"updated_at":     now,
	}
	changed := false
	if t.PlaytimeMinutes != entry.PlaytimeMinutes {
		fields["playtime_minutes"] = t.PlaytimeMinutes
		changed = true
	}
	if t.LastPlayed != nil && (entry.LastPlayedAt == nil || t.LastPlayed.After(*entry.LastPlayedAt)) {
		fields["last_played_at"] = t.LastPlayed
		changed = true
	}
	if entry.Status != library.CacheHidden {
		status := library.CachePending
		if entry.MatchedIGDBID != nil {
			if _, ok := librarySet[*entry.MatchedIGDBID]; ok {
				status = library.CacheImported
			}
		}
		if status != entry.Status {
			fields["status"] = status
			changed = true
		}
	}
	if changed {
		delta.Updated++
	}
	return s.cache.UpdateFields(ctx, tx, entry.ID, fields)
}

func (s *syncService) createEntry(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform, t platforms.Title, result *MatchResult, librarySet map[int64]struct{}, now time.Time) error {
	entry := &library.PlatformCache{
		UserID:           userID,
		Platform:         platform,
		PlatformID:       t.PlatformID,
		PlatformName:     t.Name,
		PlatformImageURL: t.ImageURL,
		MatchMethod:      library.MatchNone,
		Status:           library.CachePending,
		PlaytimeMinutes:  t.PlaytimeMinutes,
		PlayCount:        t.PlayCount,
		FirstPlayed:      t.FirstPlayed,
		LastPlayedAt:     t.LastPlayed,
		LastSyncedAt:     &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if result != nil {
		entry.MatchedIGDBID = &result.IGDBID
		entry.MatchedName = &result.Name
		entry.MatchedCoverURL = result.CoverURL
		entry.MatchConfidence = &result.Confidence
		entry.MatchMethod = result.Method
		if _, ok := librarySet[result.IGDBID]; ok {
			entry.Status = library.CacheImported
		}
	}
	return s.cache.Create(ctx, tx, entry)
}
