package platforms

import (
	"context"
	"time"

	"github.com/gamepile/gamepile-backend/internal/domain/library"
)

// Title is one externally-owned game as the platform reports it, with
// timestamps already converted to UTC.
type Title struct {
	PlatformID      string
	Name            string
	ImageURL        string
	PlaytimeMinutes int
	PlayCount       int
	FirstPlayed     *time.Time
	LastPlayed      *time.Time
	// Platform-reported category, e.g. "ps4_game" / "ps5_native_game".
	Category string
}

// Account identifies a verified external account.
type Account struct {
	ID       string
	Username string
}

// Adapter is the capability set shared by every console/store library
// source. Implementations are injected so tests can substitute
// in-memory fixtures.
type Adapter interface {
	Platform() library.Platform
	FetchLibrary(ctx context.Context, accountID string) ([]Title, error)
	VerifyAccount(ctx context.Context, credential string) (Account, error)
}
