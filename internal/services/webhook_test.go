package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

func newTestWebhook(t *testing.T, db *gorm.DB) WebhookService {
	t.Helper()
	t.Setenv("IGDB_WEBHOOK_SECRET", "hunter2")
	log := testLogger()
	svc, err := NewWebhookService(repos.NewGameRepo(db, log), log)
	if err != nil {
		t.Fatalf("NewWebhookService: %v", err)
	}
	return svc
}

func TestVerifySecret(t *testing.T) {
	svc := newTestWebhook(t, newTestDB(t))
	if err := svc.VerifySecret("hunter2"); err != nil {
		t.Errorf("matching secret rejected: %v", err)
	}
	if err := svc.VerifySecret("wrong"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if err := svc.VerifySecret(""); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("empty header err = %v, want ErrUnauthorized", err)
	}
}

func TestWebhookCreate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestWebhook(t, db)
	ctx := context.Background()

	if err := svc.HandleEvent(ctx, WebhookCreate, rawGame(500, "Webhooked", "webhooked")); err != nil {
		t.Fatalf("create event: %v", err)
	}
	var got catalog.Game
	if err := db.First(&got, "igdb_id = ?", 500).Error; err != nil {
		t.Fatalf("created row missing: %v", err)
	}
	if got.IsDeleted {
		t.Error("fresh create should not be tombstoned")
	}

	// Low-quality creates are dropped without error.
	if err := svc.HandleEvent(ctx, WebhookCreate, map[string]any{
		"id": float64(501), "name": "Coverless",
	}); err != nil {
		t.Fatalf("low-quality create: %v", err)
	}
	var count int64
	db.Model(&catalog.Game{}).Count(&count)
	if count != 1 {
		t.Errorf("stored games = %d, want 1", count)
	}
}

func TestWebhookCreateOverwritesExisting(t *testing.T) {
	db := newTestDB(t)
	svc := newTestWebhook(t, db)
	seeded := seedGame(t, db, &catalog.Game{
		IGDBID: 510, Name: "Stale Name", IsDeleted: true, UpdatedAt: time.Now().UTC(),
	})

	// The replay record has no cover; overwrites bypass the quality
	// filter and clear the tombstone.
	raw := map[string]any{"id": float64(510), "name": "Fresh Name"}
	if err := svc.HandleEvent(context.Background(), WebhookCreate, raw); err != nil {
		t.Fatalf("create event: %v", err)
	}
	var got catalog.Game
	if err := db.First(&got, "igdb_id = ?", 510).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ID != seeded.ID {
		t.Errorf("row id changed: %d -> %d", seeded.ID, got.ID)
	}
	if got.Name != "Fresh Name" {
		t.Errorf("name = %q", got.Name)
	}
	if got.IsDeleted {
		t.Error("create should clear is_deleted")
	}
}

func TestWebhookUpdateFallsBackToCreate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestWebhook(t, db)

	if err := svc.HandleEvent(context.Background(), WebhookUpdate, rawGame(520, "Never Seen", "never-seen")); err != nil {
		t.Fatalf("update event: %v", err)
	}
	var got catalog.Game
	if err := db.First(&got, "igdb_id = ?", 520).Error; err != nil {
		t.Fatalf("update for unknown game should create: %v", err)
	}
}

func TestWebhookDeleteTombstones(t *testing.T) {
	db := newTestDB(t)
	svc := newTestWebhook(t, db)
	seedGame(t, db, &catalog.Game{IGDBID: 530, Name: "Doomed", UpdatedAt: time.Now().UTC()})
	ctx := context.Background()

	if err := svc.HandleEvent(ctx, WebhookDelete, map[string]any{"id": float64(530)}); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	var got catalog.Game
	if err := db.First(&got, "igdb_id = ?", 530).Error; err != nil {
		t.Fatalf("tombstoned row should remain: %v", err)
	}
	if !got.IsDeleted {
		t.Error("delete should set is_deleted")
	}

	if err := svc.HandleEvent(ctx, WebhookDelete, map[string]any{"name": "no id"}); !errors.Is(err, apperr.ErrInvalidProviderRecord) {
		t.Errorf("delete without id err = %v, want ErrInvalidProviderRecord", err)
	}
}

func TestWebhookUnknownEvent(t *testing.T) {
	svc := newTestWebhook(t, newTestDB(t))
	if err := svc.HandleEvent(context.Background(), WebhookEvent("publish"), rawGame(1, "X", "x")); err == nil {
		t.Error("unknown event should error")
	}
}
