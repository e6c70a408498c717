package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
	"github.com/gamepile/gamepile-backend/internal/logger"
)

// GameRepo owns the canonical game table. Other components read games
// through here rather than touching the table directly.
type GameRepo interface {
	Create(ctx context.Context, tx *gorm.DB, game *catalog.Game) error
	Save(ctx context.Context, tx *gorm.DB, game *catalog.Game) error

	// Point lookups return (nil, nil) when no row exists.
	GetByID(ctx context.Context, tx *gorm.DB, id uint64) (*catalog.Game, error)
	GetByIGDBID(ctx context.Context, tx *gorm.DB, igdbID int64) (*catalog.Game, error)
	GetByIGDBIDs(ctx context.Context, tx *gorm.DB, igdbIDs []int64) ([]*catalog.Game, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*catalog.Game, error)

	// FindBySlugOrSuffixed returns live games whose slug equals the
	// given one or carries the provider's duplicate suffix (slug--1,
	// slug--2, ...), ordered by igdb id.
	FindBySlugOrSuffixed(ctx context.Context, tx *gorm.DB, slug string) ([]*catalog.Game, error)
	FindByExactName(ctx context.Context, tx *gorm.DB, name string) (*catalog.Game, error)
	FindByNameFold(ctx context.Context, tx *gorm.DB, name string) (*catalog.Game, error)
	FindFirstByNamePrefix(ctx context.Context, tx *gorm.DB, prefix string) (*catalog.Game, error)

	Browse(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*catalog.Game, error)
	SetDeleted(ctx context.Context, tx *gorm.DB, igdbID int64, deleted bool) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uint64, fields map[string]any) error
}

type gameRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGameRepo(db *gorm.DB, baseLog *logger.Logger) GameRepo {
	return &gameRepo{db: db, log: baseLog.With("repo", "GameRepo")}
}

func (r *gameRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *gameRepo) Create(ctx context.Context, tx *gorm.DB, game *catalog.Game) error {
	return r.conn(tx).WithContext(ctx).Create(game).Error
}

func (r *gameRepo) Save(ctx context.Context, tx *gorm.DB, game *catalog.Game) error {
	return r.conn(tx).WithContext(ctx).Save(game).Error
}

func (r *gameRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint64) (*catalog.Game, error) {
	var game catalog.Game
	err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepo) GetByIGDBID(ctx context.Context, tx *gorm.DB, igdbID int64) (*catalog.Game, error) {
	var game catalog.Game
	err := r.conn(tx).WithContext(ctx).
		Where("igdb_id = ?", igdbID).
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepo) GetByIGDBIDs(ctx context.Context, tx *gorm.DB, igdbIDs []int64) ([]*catalog.Game, error) {
	var results []*catalog.Game
	if len(igdbIDs) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("igdb_id IN ?", igdbIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gameRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*catalog.Game, error) {
	var game catalog.Game
	err := r.conn(tx).WithContext(ctx).
		Where("slug = ?", slug).
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepo) FindBySlugOrSuffixed(ctx context.Context, tx *gorm.DB, slug string) ([]*catalog.Game, error) {
	var results []*catalog.Game
	if err := r.conn(tx).WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("slug = ? OR slug LIKE ?", slug, slug+"--%").
		Order("igdb_id asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gameRepo) FindByExactName(ctx context.Context, tx *gorm.DB, name string) (*catalog.Game, error) {
	var game catalog.Game
	err := r.conn(tx).WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("name = ?", name).
		Order("igdb_id asc").
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepo) FindByNameFold(ctx context.Context, tx *gorm.DB, name string) (*catalog.Game, error) {
	var game catalog.Game
	err := r.conn(tx).WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("LOWER(name) = LOWER(?)", name).
		Order("igdb_id asc").
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepo) FindFirstByNamePrefix(ctx context.Context, tx *gorm.DB, prefix string) (*catalog.Game, error) {
	var game catalog.Game
	err := r.conn(tx).WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("LOWER(name) LIKE LOWER(?)", escapeLike(prefix)+"%").
		Order("igdb_id asc").
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepo) Browse(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*catalog.Game, error) {
	var results []*catalog.Game
	if err := r.conn(tx).WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("total_rating_count desc nulls last").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gameRepo) SetDeleted(ctx context.Context, tx *gorm.DB, igdbID int64, deleted bool) error {
	return r.conn(tx).WithContext(ctx).
		Model(&catalog.Game{}).
		Where("igdb_id = ?", igdbID).
		Update("is_deleted", deleted).Error
}

func (r *gameRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uint64, fields map[string]any) error {
	return r.conn(tx).WithContext(ctx).
		Model(&catalog.Game{}).
		Where("id = ?", id).
		Updates(fields).Error
}
