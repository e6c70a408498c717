package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
)

// SteamAppMapRepo owns the shared appid → canonical game cache used as
// the batch fast path of Steam matching.
type SteamAppMapRepo interface {
	GetByAppIDs(ctx context.Context, tx *gorm.DB, appIDs []int64) (map[int64]*library.SteamAppMap, error)
	Upsert(ctx context.Context, tx *gorm.DB, entry *library.SteamAppMap) error
}

type steamAppMapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSteamAppMapRepo(db *gorm.DB, baseLog *logger.Logger) SteamAppMapRepo {
	return &steamAppMapRepo{db: db, log: baseLog.With("repo", "SteamAppMapRepo")}
}

func (r *steamAppMapRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *steamAppMapRepo) GetByAppIDs(ctx context.Context, tx *gorm.DB, appIDs []int64) (map[int64]*library.SteamAppMap, error) {
	result := make(map[int64]*library.SteamAppMap, len(appIDs))
	if len(appIDs) == 0 {
		return result, nil
	}
	var rows []*library.SteamAppMap
	if err := r.conn(tx).WithContext(ctx).
		Where("app_id IN ?", appIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.AppID] = row
	}
	return result, nil
}

func (r *steamAppMapRepo) Upsert(ctx context.Context, tx *gorm.DB, entry *library.SteamAppMap) error {
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "app_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"igdb_id", "name", "cover_url", "confidence", "method", "updated_at"}),
		}).
		Create(entry).Error
}
