package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/clients/platforms"
	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

type syncEnv struct {
	db        *gorm.DB
	cache     repos.PlatformCacheRepo
	links     repos.PlatformLinkRepo
	userGames repos.UserGameRepo
	steamMap  repos.SteamAppMapRepo
	adapter   *fakeAdapter
	gate      *fakeGate
	svc       SyncService
}

func newSyncEnv(t *testing.T, adapter *fakeAdapter) *syncEnv {
	t.Helper()
	db := newTestDB(t)
	log := testLogger()
	games := repos.NewGameRepo(db, log)
	psnTitles := repos.NewPSNTitleRepo(db, log)
	cache := repos.NewPlatformCacheRepo(db, log)
	links := repos.NewPlatformLinkRepo(db, log)
	userGames := repos.NewUserGameRepo(db, log)
	steamMap := repos.NewSteamAppMapRepo(db, log)

	matcher, err := NewMatcherService(games, psnTitles, log)
	if err != nil {
		t.Fatalf("NewMatcherService: %v", err)
	}
	store := NewGameStoreService(games, &fakeIGDB{}, &fakeRefresher{}, log)
	importer := NewImporterService(store, cache, userGames, log)
	gate := &fakeGate{}
	svc := NewSyncService(db, []platforms.Adapter{adapter}, matcher, importer,
		steamMap, cache, links, userGames, gate, log)
	return &syncEnv{
		db: db, cache: cache, links: links, userGames: userGames,
		steamMap: steamMap, adapter: adapter, gate: gate, svc: svc,
	}
}

func (e *syncEnv) linkAccount(t *testing.T, userID uuid.UUID, platform library.Platform) {
	t.Helper()
	if err := e.links.Upsert(context.Background(), nil, &library.PlatformLink{
		UserID: userID, Platform: platform, AccountID: "acct-1",
	}); err != nil {
		t.Fatalf("link account: %v", err)
	}
}

func minutesAgo(n int) *time.Time {
	t := time.Now().UTC().Add(-time.Duration(n) * time.Minute)
	return &t
}

func TestSyncPSNLibrary(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformPSN, titles: []platforms.Title{
		{PlatformID: "CUSA01163_00", Name: "Rocket League™", PlaytimeMinutes: 120},
		{PlatformID: "CUSA13323_00", Name: "Ghost of Tsushima", PlaytimeMinutes: 300,
			LastPlayed: minutesAgo(600), Category: "ps4_game"},
		{PlatformID: "PPSA01467_00", Name: "Ghost of Tsushima", PlaytimeMinutes: 150,
			LastPlayed: minutesAgo(60), Category: "ps5_native_game"},
		{PlatformID: "NPXS29038_00", Name: "Netflix"},
	}}
	env := newSyncEnv(t, adapter)
	seedGame(t, env.db, &catalog.Game{IGDBID: 11069, Name: "Rocket League",
		Slug: strptr("rocket-league"), UpdatedAt: time.Now().UTC()})
	seedGame(t, env.db, &catalog.Game{IGDBID: 26758, Name: "Ghost of Tsushima",
		Slug: strptr("ghost-of-tsushima"), UpdatedAt: time.Now().UTC()})

	userID := uuid.New()
	env.linkAccount(t, userID, library.PlatformPSN)
	ctx := context.Background()

	delta, err := env.svc.SyncLibrary(ctx, userID, library.PlatformPSN)
	if err != nil {
		t.Fatalf("SyncLibrary: %v", err)
	}
	if delta.Total != 2 || delta.New != 2 || delta.Matched != 2 || delta.Skipped != 1 {
		t.Fatalf("delta = %+v, want total 2, new 2, matched 2, skipped 1", delta)
	}

	// PS4 and PS5 releases collapse into one row with summed playtime
	// and the later last-played stamp.
	ghost, err := env.cache.GetByPlatformID(ctx, nil, userID, library.PlatformPSN, "CUSA13323_00")
	if err != nil || ghost == nil {
		t.Fatalf("merged ghost row missing: %v", err)
	}
	if ghost.PlaytimeMinutes != 450 {
		t.Errorf("merged playtime = %d, want 450", ghost.PlaytimeMinutes)
	}
	if ghost.MatchedIGDBID == nil || *ghost.MatchedIGDBID != 26758 {
		t.Errorf("merged match = %v", ghost.MatchedIGDBID)
	}
	if ghost.Status != library.CachePending {
		t.Errorf("status = %q, want pending before import", ghost.Status)
	}

	link, err := env.links.GetByUserPlatform(ctx, nil, userID, library.PlatformPSN)
	if err != nil || link.LastSyncedAt == nil {
		t.Errorf("link not stamped after sync: %v %v", err, link)
	}

	// A repeat sync with identical data changes nothing.
	delta, err = env.svc.SyncLibrary(ctx, userID, library.PlatformPSN)
	if err != nil {
		t.Fatalf("second SyncLibrary: %v", err)
	}
	if delta.New != 0 || delta.Updated != 0 {
		t.Errorf("repeat delta = %+v, want no new and no updated", delta)
	}
}

func TestSyncReconcilesChangedPlaytime(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformPSN, titles: []platforms.Title{
		{PlatformID: "CUSA00207_00", Name: "Bloodborne", PlaytimeMinutes: 100},
	}}
	env := newSyncEnv(t, adapter)
	userID := uuid.New()
	env.linkAccount(t, userID, library.PlatformPSN)
	ctx := context.Background()

	if _, err := env.svc.SyncLibrary(ctx, userID, library.PlatformPSN); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	adapter.titles[0].PlaytimeMinutes = 160
	delta, err := env.svc.SyncLibrary(ctx, userID, library.PlatformPSN)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if delta.Updated != 1 {
		t.Errorf("delta = %+v, want 1 updated", delta)
	}
	entry, _ := env.cache.GetByPlatformID(ctx, nil, userID, library.PlatformPSN, "CUSA00207_00")
	if entry.PlaytimeMinutes != 160 {
		t.Errorf("playtime = %d, want 160", entry.PlaytimeMinutes)
	}
}

func TestSyncKeepsHiddenEntriesHidden(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformPSN, titles: []platforms.Title{
		{PlatformID: "CUSA03041_00", Name: "Destiny 2", PlaytimeMinutes: 40},
	}}
	env := newSyncEnv(t, adapter)
	userID := uuid.New()
	env.linkAccount(t, userID, library.PlatformPSN)
	ctx := context.Background()

	if _, err := env.svc.SyncLibrary(ctx, userID, library.PlatformPSN); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	entry, _ := env.cache.GetByPlatformID(ctx, nil, userID, library.PlatformPSN, "CUSA03041_00")
	if err := env.cache.UpdateFields(ctx, nil, entry.ID, map[string]any{
		"status": library.CacheHidden,
	}); err != nil {
		t.Fatalf("hide entry: %v", err)
	}

	if _, err := env.svc.SyncLibrary(ctx, userID, library.PlatformPSN); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	entry, _ = env.cache.GetByPlatformID(ctx, nil, userID, library.PlatformPSN, "CUSA03041_00")
	if entry.Status != library.CacheHidden {
		t.Errorf("status = %q, hidden should survive sync", entry.Status)
	}
}

func TestSyncRejectsConcurrentRun(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformPSN}
	env := newSyncEnv(t, adapter)
	env.gate.busy = true
	userID := uuid.New()
	env.linkAccount(t, userID, library.PlatformPSN)

	_, err := env.svc.SyncLibrary(context.Background(), userID, library.PlatformPSN)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestSyncRequiresLinkedAccount(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformPSN}
	env := newSyncEnv(t, adapter)

	_, err := env.svc.SyncLibrary(context.Background(), uuid.New(), library.PlatformPSN)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for unlinked platform", err)
	}
}

func TestSyncSteamUsesSharedMapAndLearns(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformSteam, titles: []platforms.Title{
		{PlatformID: "570", Name: "Dota 2", PlaytimeMinutes: 2000},
		{PlatformID: "440", Name: "Team Fortress 2", PlaytimeMinutes: 800},
	}}
	env := newSyncEnv(t, adapter)
	seedGame(t, env.db, &catalog.Game{IGDBID: 8593, Name: "Team Fortress 2",
		Slug: strptr("team-fortress-2"), UpdatedAt: time.Now().UTC()})

	ctx := context.Background()
	if err := env.steamMap.Upsert(ctx, nil, &library.SteamAppMap{
		AppID: 570, IGDBID: 235, Name: "Dota 2",
		Confidence: 1.0, Method: library.MatchUser, UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed steam map: %v", err)
	}

	userID := uuid.New()
	env.linkAccount(t, userID, library.PlatformSteam)
	delta, err := env.svc.SyncLibrary(ctx, userID, library.PlatformSteam)
	if err != nil {
		t.Fatalf("SyncLibrary: %v", err)
	}
	if delta.Matched != 2 || delta.New != 2 {
		t.Fatalf("delta = %+v, want both titles matched", delta)
	}

	// The mapped appid carried its stored match straight through.
	dota, _ := env.cache.GetByPlatformID(ctx, nil, userID, library.PlatformSteam, "570")
	if dota.MatchedIGDBID == nil || *dota.MatchedIGDBID != 235 || dota.MatchMethod != library.MatchUser {
		t.Errorf("mapped match = %v %q", dota.MatchedIGDBID, dota.MatchMethod)
	}

	// The locally matched appid was taught back to the shared map.
	learned, err := env.steamMap.GetByAppIDs(ctx, nil, []int64{440})
	if err != nil {
		t.Fatalf("GetByAppIDs: %v", err)
	}
	entry, ok := learned[440]
	if !ok {
		t.Fatal("appid 440 was not learned")
	}
	if entry.IGDBID != 8593 || entry.Method != library.MatchSlug {
		t.Errorf("learned entry = %+v", entry)
	}
}

func TestSyncSteamDropsDisplaySuffix(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformSteam, titles: []platforms.Title{
		{PlatformID: "1085660", Name: "Destiny 2 – Season of the Lost", PlaytimeMinutes: 500},
	}}
	env := newSyncEnv(t, adapter)
	seedGame(t, env.db, &catalog.Game{IGDBID: 25657, Name: "Destiny 2",
		Slug: strptr("destiny-2"), UpdatedAt: time.Now().UTC()})

	userID := uuid.New()
	env.linkAccount(t, userID, library.PlatformSteam)
	ctx := context.Background()

	delta, err := env.svc.SyncLibrary(ctx, userID, library.PlatformSteam)
	if err != nil {
		t.Fatalf("SyncLibrary: %v", err)
	}
	if delta.Matched != 1 {
		t.Fatalf("delta = %+v, want the suffixed title matched", delta)
	}
	entry, _ := env.cache.GetByPlatformID(ctx, nil, userID, library.PlatformSteam, "1085660")
	if entry.MatchedIGDBID == nil || *entry.MatchedIGDBID != 25657 {
		t.Errorf("match = %v, want the base game behind the season suffix", entry.MatchedIGDBID)
	}
}

// brokenSteamMap refuses every write; reads pass through.
type brokenSteamMap struct{ repos.SteamAppMapRepo }

func (brokenSteamMap) Upsert(context.Context, *gorm.DB, *library.SteamAppMap) error {
	return errors.New("write refused")
}

func TestSyncSteamSurvivesMapWriteFailure(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformSteam, titles: []platforms.Title{
		{PlatformID: "440", Name: "Team Fortress 2", PlaytimeMinutes: 800},
	}}
	db := newTestDB(t)
	log := testLogger()
	games := repos.NewGameRepo(db, log)
	psnTitles := repos.NewPSNTitleRepo(db, log)
	cache := repos.NewPlatformCacheRepo(db, log)
	links := repos.NewPlatformLinkRepo(db, log)
	userGames := repos.NewUserGameRepo(db, log)
	steamMap := brokenSteamMap{repos.NewSteamAppMapRepo(db, log)}

	matcher, err := NewMatcherService(games, psnTitles, log)
	if err != nil {
		t.Fatalf("NewMatcherService: %v", err)
	}
	store := NewGameStoreService(games, &fakeIGDB{}, &fakeRefresher{}, log)
	importer := NewImporterService(store, cache, userGames, log)
	svc := NewSyncService(db, []platforms.Adapter{adapter}, matcher, importer,
		steamMap, cache, links, userGames, &fakeGate{}, log)

	seedGame(t, db, &catalog.Game{IGDBID: 8593, Name: "Team Fortress 2",
		Slug: strptr("team-fortress-2"), UpdatedAt: time.Now().UTC()})
	userID := uuid.New()
	ctx := context.Background()
	if err := links.Upsert(ctx, nil, &library.PlatformLink{
		UserID: userID, Platform: library.PlatformSteam, AccountID: "acct-1",
	}); err != nil {
		t.Fatalf("link account: %v", err)
	}

	delta, err := svc.SyncLibrary(ctx, userID, library.PlatformSteam)
	if err != nil {
		t.Fatalf("SyncLibrary should survive a failed map write: %v", err)
	}
	if delta.Matched != 1 || delta.New != 1 {
		t.Errorf("delta = %+v, want the title matched and cached", delta)
	}
}

func TestSyncUnmatchedTitleStaysPending(t *testing.T) {
	adapter := &fakeAdapter{platform: library.PlatformPSN, titles: []platforms.Title{
		{PlatformID: "CUSA99999_00", Name: "Obscure Indie Nobody Indexed", PlaytimeMinutes: 10},
	}}
	env := newSyncEnv(t, adapter)
	userID := uuid.New()
	env.linkAccount(t, userID, library.PlatformPSN)

	delta, err := env.svc.SyncLibrary(context.Background(), userID, library.PlatformPSN)
	if err != nil {
		t.Fatalf("SyncLibrary: %v", err)
	}
	if delta.Unmatched != 1 || delta.Matched != 0 {
		t.Fatalf("delta = %+v, want 1 unmatched", delta)
	}
	entry, _ := env.cache.GetByPlatformID(context.Background(), nil, userID, library.PlatformPSN, "CUSA99999_00")
	if entry.MatchedIGDBID != nil || entry.Status != library.CachePending || entry.MatchMethod != library.MatchNone {
		t.Errorf("unmatched entry = %+v", entry)
	}
}
