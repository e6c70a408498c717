package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
	"github.com/gamepile/gamepile-backend/internal/projection"
	"github.com/gamepile/gamepile-backend/internal/repos"
	"github.com/gamepile/gamepile-backend/internal/utils"
)

// RefresherService keeps stored games fresh in the background. All
// refreshes run on their own context and session so a caller's request
// can return (and its transaction close) before any provider call
// completes. Failures are logged and swallowed.
type RefresherService interface {
	// IsStale reports whether a stored record is past its max age.
	IsStale(game *catalog.Game) bool

	// RefreshAsync re-fetches and re-projects one game, then chains
	// the auxiliary refreshers. Concurrent calls for the same id are
	// deduplicated; the store is last-write-wins either way.
	RefreshAsync(igdbID int64)

	// RefreshAuxAsync runs only the auxiliary refreshers: time to
	// beat, similar games, related child types, editions and bundles.
	RefreshAuxAsync(igdbID int64)
}

type refresherService struct {
	igdb    igdb.Client
	games   repos.GameRepo
	group   singleflight.Group
	maxAge  time.Duration
	timeout time.Duration
	log     *logger.Logger
}

func NewRefresherService(client igdb.Client, games repos.GameRepo, baseLog *logger.Logger) RefresherService {
	log := baseLog.With("service", "RefresherService")
	maxAgeHours := utils.GetEnvAsInt("GAME_MAX_AGE_HOURS", 24, log)
	timeoutSeconds := utils.GetEnvAsInt("GAME_REFRESH_TIMEOUT_SECONDS", 60, log)
	return &refresherService{
		igdb:    client,
		games:   games,
		maxAge:  time.Duration(maxAgeHours) * time.Hour,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		log:     log,
	}
}

func (r *refresherService) IsStale(game *catalog.Game) bool {
	if game.UpdatedAt.IsZero() {
		return true
	}
	return time.Since(game.UpdatedAt) > r.maxAge
}

func (r *refresherService) RefreshAsync(igdbID int64) {
	go func() {
		_, _, _ = r.group.Do(fmt.Sprintf("refresh:%d", igdbID), func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			if r.refresh(ctx, igdbID) {
				r.runAux(igdbID)
			}
			return nil, nil
		})
	}()
}

func (r *refresherService) RefreshAuxAsync(igdbID int64) {
	go func() {
		_, _, _ = r.group.Do(fmt.Sprintf("aux:%d", igdbID), func() (any, error) {
			r.runAux(igdbID)
			return nil, nil
		})
	}()
}

// refresh re-fetches one game and commits it in its own session.
// Updates bypass the quality filter; creates apply it.
func (r *refresherService) refresh(ctx context.Context, igdbID int64) bool {
	raw, err := r.igdb.FetchByID(ctx, igdbID)
	if err != nil {
		r.log.Warn("refresh fetch failed", "igdb_id", igdbID, "error", err)
		return false
	}
	if raw == nil {
		r.log.Warn("refresh found no provider record", "igdb_id", igdbID)
		return false
	}

	projected, err := projection.ProjectGame(raw)
	if err != nil {
		r.log.Warn("refresh projection failed", "igdb_id", igdbID, "error", err)
		return false
	}

	existing, err := r.games.GetByIGDBID(ctx, nil, igdbID)
	if err != nil {
		r.log.Warn("refresh lookup failed", "igdb_id", igdbID, "error", err)
		return false
	}

	now := time.Now().UTC()
	if existing != nil {
		projected.ID = existing.ID
		projected.CreatedAt = existing.CreatedAt
		projected.UpdatedAt = now
		if err := r.games.Save(ctx, nil, projected); err != nil {
			r.log.Warn("refresh save failed", "igdb_id", igdbID, "error", err)
			return false
		}
		return true
	}

	if !projection.MeetsQuality(projected) {
		r.log.Debug("refresh skipped low-quality record", "igdb_id", igdbID)
		return false
	}
	projected.UpdatedAt = now
	if err := r.games.Create(ctx, nil, projected); err != nil {
		if apperr.IsUniqueViolation(err) {
			return true
		}
		r.log.Warn("refresh create failed", "igdb_id", igdbID, "error", err)
		return false
	}
	return true
}

// runAux fetches time to beat synchronously, then fires the three
// related-collection refreshers as independent tasks.
func (r *refresherService) runAux(igdbID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.fetchTimeToBeat(ctx, igdbID); err != nil {
		r.log.Warn("time to beat refresh failed", "igdb_id", igdbID, "error", err)
	}

	go r.withTimeout(func(ctx context.Context) {
		if err := r.syncSimilarGames(ctx, igdbID); err != nil {
			r.log.Warn("similar games refresh failed", "igdb_id", igdbID, "error", err)
		}
	})
	go r.withTimeout(func(ctx context.Context) {
		if err := r.fetchRelatedGameTypes(ctx, igdbID); err != nil {
			r.log.Warn("related types refresh failed", "igdb_id", igdbID, "error", err)
		}
	})
	go r.withTimeout(func(ctx context.Context) {
		if err := r.fetchEditionsAndBundles(ctx, igdbID); err != nil {
			r.log.Warn("editions refresh failed", "igdb_id", igdbID, "error", err)
		}
	})
}

func (r *refresherService) withTimeout(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	fn(ctx)
}

func (r *refresherService) fetchTimeToBeat(ctx context.Context, igdbID int64) error {
	game, err := r.games.GetByIGDBID(ctx, nil, igdbID)
	if err != nil || game == nil {
		return err
	}
	raw, err := r.igdb.FetchTimeToBeat(ctx, igdbID)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	ttb := projection.ProjectTimeToBeat(raw)
	encoded, err := json.Marshal(ttb)
	if err != nil {
		return err
	}
	return r.games.UpdateFields(ctx, nil, game.ID, map[string]any{
		"time_to_beat": datatypes.JSON(encoded),
	})
}

// syncSimilarGames stores any similar games referenced by the parent
// that are missing from the local table. Quality filtering applies:
// these are fresh creates.
func (r *refresherService) syncSimilarGames(ctx context.Context, igdbID int64) error {
	game, err := r.games.GetByIGDBID(ctx, nil, igdbID)
	if err != nil || game == nil {
		return err
	}
	var entries []catalog.RelatedGame
	if len(game.SimilarGames) > 0 {
		if err := json.Unmarshal(game.SimilarGames, &entries); err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.IGDBID)
	}
	stored, err := r.games.GetByIGDBIDs(ctx, nil, ids)
	if err != nil {
		return err
	}
	have := make(map[int64]struct{}, len(stored))
	for _, g := range stored {
		have[g.IGDBID] = struct{}{}
	}
	missing := ids[:0]
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	body := igdb.NewQuery().
		Fields(igdb.GameFields).
		Where(fmt.Sprintf("id = (%s)", joinIDs(missing))).
		Limit(len(missing)).
		Build()
	records, err := r.igdb.FetchQuery(ctx, body, "games")
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, raw := range records {
		projected, err := projection.ProjectGame(raw)
		if err != nil {
			continue
		}
		if !projection.MeetsQuality(projected) {
			continue
		}
		projected.UpdatedAt = now
		if err := r.games.Create(ctx, nil, projected); err != nil && !apperr.IsUniqueViolation(err) {
			return err
		}
	}
	return nil
}

// fetchRelatedGameTypes fills the parent's episodes, seasons and packs
// columns from a single child query.
func (r *refresherService) fetchRelatedGameTypes(ctx context.Context, igdbID int64) error {
	game, err := r.games.GetByIGDBID(ctx, nil, igdbID)
	if err != nil || game == nil {
		return err
	}
	body := igdb.NewQuery().
		Fields("id", "name", "slug", "game_type", "cover.image_id").
		Where(fmt.Sprintf("parent_game = %d", igdbID)).
		Where(fmt.Sprintf("game_type = (%d,%d,%d)",
			catalog.GameTypeEpisode, catalog.GameTypeSeason, catalog.GameTypePack)).
		Limit(100).
		Build()
	records, err := r.igdb.FetchQuery(ctx, body, "games")
	if err != nil {
		return err
	}

	byType := map[int][]igdb.Record{}
	for _, rec := range records {
		if t, ok := rec["game_type"]; ok {
			if f, ok := t.(float64); ok {
				byType[int(f)] = append(byType[int(f)], rec)
			}
		}
	}
	fields := map[string]any{}
	for gameType, column := range map[int]string{
		catalog.GameTypeEpisode: "episodes",
		catalog.GameTypeSeason:  "seasons",
		catalog.GameTypePack:    "packs",
	} {
		entries := projection.ProjectRelatedEntries(byType[gameType], false)
		if len(entries) == 0 {
			continue
		}
		encoded, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		fields[column] = datatypes.JSON(encoded)
	}
	if len(fields) == 0 {
		return nil
	}
	return r.games.UpdateFields(ctx, nil, game.ID, fields)
}

// fetchEditionsAndBundles fills the parent's editions column (children
// whose version_parent is the game) and in_bundles column (bundles
// containing the game).
func (r *refresherService) fetchEditionsAndBundles(ctx context.Context, igdbID int64) error {
	game, err := r.games.GetByIGDBID(ctx, nil, igdbID)
	if err != nil || game == nil {
		return err
	}
	fields := map[string]any{}

	editionsBody := igdb.NewQuery().
		Fields("id", "name", "slug", "version_title", "cover.image_id").
		Where(fmt.Sprintf("version_parent = %d", igdbID)).
		Limit(100).
		Build()
	editions, err := r.igdb.FetchQuery(ctx, editionsBody, "games")
	if err != nil {
		return err
	}
	if entries := projection.ProjectRelatedEntries(editions, false); len(entries) > 0 {
		encoded, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		fields["editions"] = datatypes.JSON(encoded)
	}

	bundlesBody := igdb.NewQuery().
		Fields("id", "name", "slug", "cover.image_id").
		Where(fmt.Sprintf("bundles = (%d)", igdbID)).
		Limit(100).
		Build()
	bundles, err := r.igdb.FetchQuery(ctx, bundlesBody, "games")
	if err != nil {
		return err
	}
	if entries := projection.ProjectRelatedEntries(bundles, false); len(entries) > 0 {
		encoded, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		fields["in_bundles"] = datatypes.JSON(encoded)
	}

	if len(fields) == 0 {
		return nil
	}
	return r.games.UpdateFields(ctx, nil, game.ID, fields)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
