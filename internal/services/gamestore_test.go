package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

func newTestStore(t *testing.T, db *gorm.DB, fake *fakeIGDB, refresher *fakeRefresher) GameStoreService {
	t.Helper()
	log := testLogger()
	return NewGameStoreService(repos.NewGameRepo(db, log), fake, refresher, log)
}

func TestStoreFetchesAndPersistsOnMiss(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeIGDB{records: map[int64]igdb.Record{
		1942: rawGame(1942, "The Witcher 3: Wild Hunt", "the-witcher-3-wild-hunt"),
	}}
	refresher := &fakeRefresher{}
	store := newTestStore(t, db, fake, refresher)

	game, err := store.GetByIGDBID(context.Background(), 1942)
	if err != nil {
		t.Fatalf("GetByIGDBID: %v", err)
	}
	if game.Name != "The Witcher 3: Wild Hunt" {
		t.Errorf("name = %q", game.Name)
	}

	var count int64
	db.Model(&catalog.Game{}).Where("igdb_id = ?", 1942).Count(&count)
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
	if len(refresher.auxStarted) != 1 || refresher.auxStarted[0] != 1942 {
		t.Errorf("aux refresh calls = %v, want [1942]", refresher.auxStarted)
	}
}

func TestStoreServesStaleRowAndSchedulesRefresh(t *testing.T) {
	db := newTestDB(t)
	seedGame(t, db, &catalog.Game{
		IGDBID: 1942, Name: "Cached Copy",
		UpdatedAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	fake := &fakeIGDB{}
	refresher := &fakeRefresher{stale: true}
	store := newTestStore(t, db, fake, refresher)

	game, err := store.GetByIGDBID(context.Background(), 1942)
	if err != nil {
		t.Fatalf("GetByIGDBID: %v", err)
	}
	if game.Name != "Cached Copy" {
		t.Errorf("stale read should serve the cached row, got %q", game.Name)
	}
	if fake.fetchCalls != 0 {
		t.Errorf("stale read hit the provider %d times", fake.fetchCalls)
	}
	if len(refresher.refreshed) != 1 || refresher.refreshed[0] != 1942 {
		t.Errorf("refresh calls = %v, want [1942]", refresher.refreshed)
	}
}

func TestStoreFreshRowSkipsRefresh(t *testing.T) {
	db := newTestDB(t)
	seedGame(t, db, &catalog.Game{
		IGDBID: 7334, Name: "Bloodborne", UpdatedAt: time.Now().UTC(),
	})
	refresher := &fakeRefresher{}
	store := newTestStore(t, db, &fakeIGDB{}, refresher)

	if _, err := store.GetByIGDBID(context.Background(), 7334); err != nil {
		t.Fatalf("GetByIGDBID: %v", err)
	}
	if len(refresher.refreshed) != 0 {
		t.Errorf("fresh row scheduled refresh: %v", refresher.refreshed)
	}
}

func TestStoreMissReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t, db, &fakeIGDB{}, &fakeRefresher{})

	_, err := store.GetByIGDBID(context.Background(), 12345)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreRejectsLowQualityFetch(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeIGDB{records: map[int64]igdb.Record{
		55: {"id": float64(55), "name": "Coverless"},
	}}
	store := newTestStore(t, db, fake, &fakeRefresher{})

	_, err := store.GetByIGDBID(context.Background(), 55)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var count int64
	db.Model(&catalog.Game{}).Count(&count)
	if count != 0 {
		t.Errorf("low-quality record was stored")
	}
}

func TestStoreGetBySlugFetchesOnMiss(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeIGDB{queryFn: func(body, endpoint string) ([]igdb.Record, error) {
		return []igdb.Record{rawGame(1020, "Grand Theft Auto V", "grand-theft-auto-v")}, nil
	}}
	store := newTestStore(t, db, fake, &fakeRefresher{})

	game, err := store.GetBySlug(context.Background(), "grand-theft-auto-v")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if game.IGDBID != 1020 {
		t.Errorf("igdb_id = %d", game.IGDBID)
	}

	// The stored row now serves repeat reads without the provider.
	fake.queryFn = func(string, string) ([]igdb.Record, error) {
		t.Error("second read should not query the provider")
		return nil, nil
	}
	if _, err := store.GetBySlug(context.Background(), "grand-theft-auto-v"); err != nil {
		t.Fatalf("cached GetBySlug: %v", err)
	}
}

func TestStoreGetBySlugEscapesQuotes(t *testing.T) {
	db := newTestDB(t)
	var captured string
	fake := &fakeIGDB{queryFn: func(body, endpoint string) ([]igdb.Record, error) {
		captured = body
		return nil, nil
	}}
	store := newTestStore(t, db, fake, &fakeRefresher{})

	_, err := store.GetBySlug(context.Background(), `evil"; fields *`)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(captured, `slug = "evil\"; fields *"`) {
		t.Errorf("query body = %q, want the quote escaped", captured)
	}
}
