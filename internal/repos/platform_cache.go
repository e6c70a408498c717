package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
)

// PlatformCacheRepo owns the per-user platform cache table. Rows are
// partitioned by (user, platform); only sync and import write them.
type PlatformCacheRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *library.PlatformCache) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uint64, fields map[string]any) error

	GetForUserPlatform(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform) ([]*library.PlatformCache, error)
	GetByPlatformID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform, platformID string) (*library.PlatformCache, error)

	// GetByMatchedIGDBID spans every platform: cross-platform playtime
	// aggregation reads all rows matched to one canonical game.
	GetByMatchedIGDBID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, igdbID int64) ([]*library.PlatformCache, error)

	MarkImportedByMatchedID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, igdbID int64) error
	DeleteForUserPlatform(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform) error
}

type platformCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlatformCacheRepo(db *gorm.DB, baseLog *logger.Logger) PlatformCacheRepo {
	return &platformCacheRepo{db: db, log: baseLog.With("repo", "PlatformCacheRepo")}
}

func (r *platformCacheRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *platformCacheRepo) Create(ctx context.Context, tx *gorm.DB, entry *library.PlatformCache) error {
	return r.conn(tx).WithContext(ctx).Create(entry).Error
}

func (r *platformCacheRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uint64, fields map[string]any) error {
	return r.conn(tx).WithContext(ctx).
		Model(&library.PlatformCache{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *platformCacheRepo) GetForUserPlatform(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform) ([]*library.PlatformCache, error) {
	var results []*library.PlatformCache
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, platform).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *platformCacheRepo) GetByPlatformID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform, platformID string) (*library.PlatformCache, error) {
	var entry library.PlatformCache
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND platform = ? AND platform_id = ?", userID, platform, platformID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *platformCacheRepo) GetByMatchedIGDBID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, igdbID int64) ([]*library.PlatformCache, error) {
	var results []*library.PlatformCache
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND matched_igdb_id = ?", userID, igdbID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *platformCacheRepo) MarkImportedByMatchedID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, igdbID int64) error {
	return r.conn(tx).WithContext(ctx).
		Model(&library.PlatformCache{}).
		Where("user_id = ? AND matched_igdb_id = ?", userID, igdbID).
		Updates(map[string]any{
			"status":     library.CacheImported,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *platformCacheRepo) DeleteForUserPlatform(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform library.Platform) error {
	return r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, platform).
		Delete(&library.PlatformCache{}).Error
}
