package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/pkg/apperr"
	"github.com/gamepile/gamepile-backend/internal/projection"
	"github.com/gamepile/gamepile-backend/internal/repos"
	"github.com/gamepile/gamepile-backend/internal/utils"
)

type WebhookEvent string

const (
	WebhookCreate WebhookEvent = "create"
	WebhookUpdate WebhookEvent = "update"
	WebhookDelete WebhookEvent = "delete"
)

// WebhookService applies provider change notifications to the local
// store. Deletes tombstone rather than purge; create and update force
// is_deleted back off so a re-published game resurfaces.
type WebhookService interface {
	VerifySecret(header string) error
	HandleEvent(ctx context.Context, event WebhookEvent, raw igdb.Record) error
}

type webhookService struct {
	games  repos.GameRepo
	secret string
	log    *logger.Logger
}

func NewWebhookService(games repos.GameRepo, baseLog *logger.Logger) (WebhookService, error) {
	secret, err := utils.MustEnv("IGDB_WEBHOOK_SECRET")
	if err != nil {
		return nil, err
	}
	return &webhookService{
		games:  games,
		secret: secret,
		log:    baseLog.With("service", "WebhookService"),
	}, nil
}

func (s *webhookService) VerifySecret(header string) error {
	if subtle.ConstantTimeCompare([]byte(header), []byte(s.secret)) != 1 {
		return fmt.Errorf("webhook secret mismatch: %w", apperr.ErrUnauthorized)
	}
	return nil
}

func (s *webhookService) HandleEvent(ctx context.Context, event WebhookEvent, raw igdb.Record) error {
	switch event {
	case WebhookCreate:
		return s.handleCreate(ctx, raw)
	case WebhookUpdate:
		return s.handleUpdate(ctx, raw)
	case WebhookDelete:
		return s.handleDelete(ctx, raw)
	default:
		return fmt.Errorf("unknown webhook event %q", event)
	}
}

func (s *webhookService) handleCreate(ctx context.Context, raw igdb.Record) error {
	game, err := projection.ProjectGame(raw)
	if err != nil {
		return err
	}
	existing, err := s.games.GetByIGDBID(ctx, nil, game.IGDBID)
	if err != nil {
		return err
	}
	if existing != nil {
		return s.overwrite(ctx, existing.ID, existing.CreatedAt, raw)
	}
	if !projection.MeetsQuality(game) {
		s.log.Debug("webhook create rejected by quality filter", "igdb_id", game.IGDBID)
		return nil
	}
	game.IsDeleted = false
	game.UpdatedAt = time.Now().UTC()
	if err := s.games.Create(ctx, nil, game); err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil
		}
		return err
	}
	s.log.Info("webhook created game", "igdb_id", game.IGDBID)
	return nil
}

func (s *webhookService) handleUpdate(ctx context.Context, raw igdb.Record) error {
	game, err := projection.ProjectGame(raw)
	if err != nil {
		return err
	}
	existing, err := s.games.GetByIGDBID(ctx, nil, game.IGDBID)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.handleCreate(ctx, raw)
	}
	return s.overwrite(ctx, existing.ID, existing.CreatedAt, raw)
}

func (s *webhookService) handleDelete(ctx context.Context, raw igdb.Record) error {
	igdbID, ok := rawID(raw)
	if !ok {
		return fmt.Errorf("%w: delete event without id", apperr.ErrInvalidProviderRecord)
	}
	if err := s.games.SetDeleted(ctx, nil, igdbID, true); err != nil {
		return err
	}
	s.log.Info("webhook tombstoned game", "igdb_id", igdbID)
	return nil
}

// overwrite replaces a stored record in place. The quality filter does
// not apply; records once admitted stay.
func (s *webhookService) overwrite(ctx context.Context, id uint64, createdAt time.Time, raw igdb.Record) error {
	game, err := projection.ProjectGame(raw)
	if err != nil {
		return err
	}
	game.ID = id
	game.CreatedAt = createdAt
	game.IsDeleted = false
	game.UpdatedAt = time.Now().UTC()
	if err := s.games.Save(ctx, nil, game); err != nil {
		return err
	}
	s.log.Info("webhook updated game", "igdb_id", game.IGDBID)
	return nil
}

func rawID(raw igdb.Record) (int64, bool) {
	switch v := raw["id"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
