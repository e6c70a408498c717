package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/clients/platforms"
	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/domain/library"
)

// fakeIGDB serves canned records keyed by id and routes arbitrary
// queries through queryFn.
type fakeIGDB struct {
	mu      sync.Mutex
	records map[int64]igdb.Record
	ttb     map[int64]igdb.Record
	queryFn func(body, endpoint string) ([]igdb.Record, error)

	fetchCalls int
	bodies     []string
}

func (f *fakeIGDB) FetchByID(_ context.Context, igdbID int64) (igdb.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	rec, ok := f.records[igdbID]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (f *fakeIGDB) FetchQuery(_ context.Context, body, endpoint string) ([]igdb.Record, error) {
	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	fn := f.queryFn
	f.mu.Unlock()
	if fn != nil {
		return fn(body, endpoint)
	}
	return nil, nil
}

func (f *fakeIGDB) FetchTimeToBeat(_ context.Context, igdbID int64) (igdb.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.ttb[igdbID]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (f *fakeIGDB) RegisterWebhook(context.Context, string, string, string) (igdb.Record, error) {
	return igdb.Record{"id": float64(1)}, nil
}
func (f *fakeIGDB) ListWebhooks(context.Context) ([]igdb.Record, error) { return nil, nil }
func (f *fakeIGDB) DeleteWebhook(context.Context, int64) error          { return nil }
func (f *fakeIGDB) TestWebhook(context.Context, int64, int64) error     { return nil }

// rawGame builds a record that passes the quality filter.
func rawGame(id int64, name, slug string) igdb.Record {
	return igdb.Record{
		"id":      float64(id),
		"name":    name,
		"slug":    slug,
		"summary": "a summary",
		"cover":   map[string]any{"image_id": "cov"},
	}
}

// fakeRefresher records scheduling calls instead of spawning tasks.
type fakeRefresher struct {
	mu         sync.Mutex
	stale      bool
	refreshed  []int64
	auxStarted []int64
}

func (f *fakeRefresher) IsStale(*catalog.Game) bool { return f.stale }

func (f *fakeRefresher) RefreshAsync(igdbID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, igdbID)
}

func (f *fakeRefresher) RefreshAuxAsync(igdbID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auxStarted = append(f.auxStarted, igdbID)
}

// fakeGate grants or refuses based on busy; no redis involved.
type fakeGate struct{ busy bool }

func (g *fakeGate) Acquire(context.Context, uuid.UUID, library.Platform) (func(), bool, error) {
	if g.busy {
		return nil, false, nil
	}
	return func() {}, true, nil
}
func (g *fakeGate) Close() error { return nil }

// fakeAdapter plays back a fixed library.
type fakeAdapter struct {
	platform library.Platform
	titles   []platforms.Title
}

func (a *fakeAdapter) Platform() library.Platform { return a.platform }
func (a *fakeAdapter) FetchLibrary(context.Context, string) ([]platforms.Title, error) {
	return a.titles, nil
}
func (a *fakeAdapter) VerifyAccount(_ context.Context, credential string) (platforms.Account, error) {
	return platforms.Account{ID: credential, Username: "tester"}, nil
}
