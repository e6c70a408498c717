package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
)

type PSNTitleRepo interface {
	GetByTitleID(ctx context.Context, tx *gorm.DB, titleID string) (*library.PSNTitle, error)
	BulkUpsert(ctx context.Context, tx *gorm.DB, titles []*library.PSNTitle) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type psnTitleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPSNTitleRepo(db *gorm.DB, baseLog *logger.Logger) PSNTitleRepo {
	return &psnTitleRepo{db: db, log: baseLog.With("repo", "PSNTitleRepo")}
}

func (r *psnTitleRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *psnTitleRepo) GetByTitleID(ctx context.Context, tx *gorm.DB, titleID string) (*library.PSNTitle, error) {
	var title library.PSNTitle
	err := r.conn(tx).WithContext(ctx).
		Where("title_id = ?", titleID).
		First(&title).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &title, nil
}

func (r *psnTitleRepo) BulkUpsert(ctx context.Context, tx *gorm.DB, titles []*library.PSNTitle) error {
	if len(titles) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"concept_id", "official_name", "region"}),
		}).
		CreateInBatches(titles, 500).Error
}

func (r *psnTitleRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&library.PSNTitle{}).Count(&count).Error
	return count, err
}
