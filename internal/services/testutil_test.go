package services

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// newTestDB opens a private in-memory database with the full schema.
// A single connection keeps every session on the same memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&catalog.Game{},
		&library.PlatformCache{},
		&library.UserGame{},
		&library.PlatformLink{},
		&library.PSNTitle{},
		&library.SteamAppMap{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedGame(t *testing.T, db *gorm.DB, game *catalog.Game) *catalog.Game {
	t.Helper()
	if err := db.Create(game).Error; err != nil {
		t.Fatalf("seed game %d: %v", game.IGDBID, err)
	}
	return game
}

func strptr(s string) *string { return &s }
