package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
)

// UserGameRepo owns the user-library table.
type UserGameRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *library.UserGame) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uint64, fields map[string]any) error

	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*library.UserGame, error)
	GetByUserAndIGDBID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, igdbID int64) (*library.UserGame, error)

	// IGDBIDSet returns the set of canonical ids already in the user's
	// library, used by sync to flip cache rows to imported.
	IGDBIDSet(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[int64]struct{}, error)
}

type userGameRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserGameRepo(db *gorm.DB, baseLog *logger.Logger) UserGameRepo {
	return &userGameRepo{db: db, log: baseLog.With("repo", "UserGameRepo")}
}

func (r *userGameRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userGameRepo) Create(ctx context.Context, tx *gorm.DB, entry *library.UserGame) error {
	return r.conn(tx).WithContext(ctx).Create(entry).Error
}

func (r *userGameRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uint64, fields map[string]any) error {
	return r.conn(tx).WithContext(ctx).
		Model(&library.UserGame{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *userGameRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*library.UserGame, error) {
	var results []*library.UserGame
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userGameRepo) GetByUserAndIGDBID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, igdbID int64) (*library.UserGame, error) {
	var entry library.UserGame
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND igdb_id = ?", userID, igdbID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *userGameRepo) IGDBIDSet(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[int64]struct{}, error) {
	var ids []int64
	if err := r.conn(tx).WithContext(ctx).
		Model(&library.UserGame{}).
		Where("user_id = ?", userID).
		Pluck("igdb_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
