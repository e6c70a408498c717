package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
	"github.com/gamepile/gamepile-backend/internal/projection"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

const (
	populateBatchSize = 500
	populatePause     = 300 * time.Millisecond
)

// PopulateProgress is persisted after every committed batch so an
// interrupted run resumes at the last offset.
type PopulateProgress struct {
	Offset        int       `json:"offset"`
	TotalStored   int       `json:"total_stored"`
	TotalUpdated  int       `json:"total_updated"`
	TotalFiltered int       `json:"total_filtered"`
	Timestamp     time.Time `json:"timestamp"`
}

type PopulateOptions struct {
	// Tier selects the scan order: "released" walks by rating-count
	// descending, "anticipated" by hype descending.
	Tier string

	// Limit caps the number of records processed; 0 means unbounded.
	Limit int

	// Reset discards any saved progress and starts at offset zero.
	Reset bool

	// ProgressPath overrides the default checkpoint file location.
	ProgressPath string
}

// PopulateService walks the provider catalog in bulk and upserts it
// into the local store. Creates go through the quality filter, updates
// bypass it.
type PopulateService interface {
	Run(ctx context.Context, opts PopulateOptions) (*PopulateProgress, error)
}

type populateService struct {
	db    *gorm.DB
	igdb  igdb.Client
	games repos.GameRepo
	log   *logger.Logger
}

func NewPopulateService(db *gorm.DB, client igdb.Client, games repos.GameRepo, baseLog *logger.Logger) PopulateService {
	return &populateService{
		db:    db,
		igdb:  client,
		games: games,
		log:   baseLog.With("service", "PopulateService"),
	}
}

func (s *populateService) Run(ctx context.Context, opts PopulateOptions) (*PopulateProgress, error) {
	where, sortField, err := tierQuery(opts.Tier)
	if err != nil {
		return nil, err
	}
	path := opts.ProgressPath
	if path == "" {
		path = "populate_progress.json"
	}

	progress := &PopulateProgress{}
	if !opts.Reset {
		if loaded, err := loadProgress(path); err != nil {
			s.log.Warn("ignoring unreadable progress file", "path", path, "error", err)
		} else if loaded != nil {
			progress = loaded
			s.log.Info("resuming populate run", "offset", progress.Offset)
		}
	}

	processed := 0
	emptyStreak := 0
	for {
		if err := ctx.Err(); err != nil {
			return progress, err
		}
		if opts.Limit > 0 && processed >= opts.Limit {
			s.log.Info("populate limit reached", "processed", processed)
			return progress, nil
		}

		body := igdb.NewQuery().
			Fields(igdb.GameFields).
			Where(where).
			Sort(sortField, "desc").
			Limit(populateBatchSize).
			Offset(progress.Offset).
			Build()
		records, err := s.igdb.FetchQuery(ctx, body, "games")
		if err != nil {
			return progress, err
		}
		if len(records) == 0 {
			emptyStreak++
			if emptyStreak >= 2 {
				s.log.Info("populate run complete",
					"stored", progress.TotalStored,
					"updated", progress.TotalUpdated,
					"filtered", progress.TotalFiltered)
				return progress, nil
			}
			progress.Offset += populateBatchSize
			continue
		}
		emptyStreak = 0

		stored, updated, filtered, err := s.upsertBatch(ctx, records)
		if err != nil {
			return progress, err
		}
		processed += len(records)
		progress.Offset += len(records)
		progress.TotalStored += stored
		progress.TotalUpdated += updated
		progress.TotalFiltered += filtered
		progress.Timestamp = time.Now().UTC()
		if err := saveProgress(path, progress); err != nil {
			s.log.Warn("progress checkpoint failed", "path", path, "error", err)
		}
		s.log.Info("populate batch committed",
			"offset", progress.Offset, "stored", stored, "updated", updated, "filtered", filtered)

		select {
		case <-ctx.Done():
			return progress, ctx.Err()
		case <-time.After(populatePause):
		}
	}
}

// upsertBatch commits one fetched page in a single transaction.
func (s *populateService) upsertBatch(ctx context.Context, records []igdb.Record) (stored, updated, filtered int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, raw := range records {
			game, perr := projection.ProjectGame(raw)
			if perr != nil {
				s.log.Debug("skipping invalid record", "error", perr)
				filtered++
				continue
			}

			existing, gerr := s.games.GetByIGDBID(ctx, tx, game.IGDBID)
			if gerr != nil {
				return gerr
			}
			now := time.Now().UTC()
			if existing != nil {
				game.ID = existing.ID
				game.CreatedAt = existing.CreatedAt
				game.UpdatedAt = now
				if serr := s.games.Save(ctx, tx, game); serr != nil {
					return serr
				}
				updated++
				continue
			}
			if !projection.MeetsQuality(game) {
				filtered++
				continue
			}
			game.UpdatedAt = now
			if cerr := s.games.Create(ctx, tx, game); cerr != nil {
				if apperr.IsUniqueViolation(cerr) {
					continue
				}
				return cerr
			}
			stored++
		}
		return nil
	})
	return stored, updated, filtered, err
}

func tierQuery(tier string) (where, sortField string, err error) {
	switch tier {
	case "", "released":
		return "total_rating_count > 0", "total_rating_count", nil
	case "anticipated":
		return fmt.Sprintf("hypes > 0 & first_release_date > %d", time.Now().Unix()), "hypes", nil
	default:
		return "", "", fmt.Errorf("unknown tier %q", tier)
	}
}

func loadProgress(path string) (*PopulateProgress, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var progress PopulateProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func saveProgress(path string, progress *PopulateProgress) error {
	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
