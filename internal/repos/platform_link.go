package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
)

type PlatformLinkRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, link *library.PlatformLink) error
	GetByUserPlatform(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform) (*library.PlatformLink, error)
	TouchSynced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform, at time.Time) error
	Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform) error
}

type platformLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlatformLinkRepo(db *gorm.DB, baseLog *logger.Logger) PlatformLinkRepo {
	return &platformLinkRepo{db: db, log: baseLog.With("repo", "PlatformLinkRepo")}
}

func (r *platformLinkRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *platformLinkRepo) Upsert(ctx context.Context, tx *gorm.DB, link *library.PlatformLink) error {
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "platform"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_id", "account_name", "updated_at"}),
		}).
		Create(link).Error
}

func (r *platformLinkRepo) GetByUserPlatform(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform) (*library.PlatformLink, error) {
	var link library.PlatformLink
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, platform).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *platformLinkRepo) TouchSynced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform, at time.Time) error {
	return r.conn(tx).WithContext(ctx).
		Model(&library.PlatformLink{}).
		Where("user_id = ? AND platform = ?", userID, platform).
		Updates(map[string]any{
			"last_synced_at": at,
			"updated_at":     at,
		}).Error
}

func (r *platformLinkRepo) Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform) error {
	return r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, platform).
		Delete(&library.PlatformLink{}).Error
}
