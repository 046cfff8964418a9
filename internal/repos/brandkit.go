package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/types"
)

type BrandKitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, kits []*types.BrandKit) ([]*types.BrandKit, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, kitIDs []uuid.UUID) ([]*types.BrandKit, error)
	GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.BrandKit, error)
	PatchByID(ctx context.Context, tx *gorm.DB, kitID uuid.UUID, fields map[string]any) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, kitIDs []uuid.UUID) error
}

type brandKitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandKitRepo(db *gorm.DB, baseLog *logger.Logger) BrandKitRepo {
	repoLog := baseLog.With("repo", "BrandKitRepo")
	return &brandKitRepo{db: db, log: repoLog}
}

func (br *brandKitRepo) Create(ctx context.Context, tx *gorm.DB, kits []*types.BrandKit) ([]*types.BrandKit, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if len(kits) == 0 {
		return []*types.BrandKit{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&kits).Error; err != nil {
		return nil, err
	}
	return kits, nil
}

func (br *brandKitRepo) GetByIDs(ctx context.Context, tx *gorm.DB, kitIDs []uuid.UUID) ([]*types.BrandKit, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var results []*types.BrandKit
	if len(kitIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", kitIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *brandKitRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.BrandKit, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var results []*types.BrandKit
	if len(projectIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *brandKitRepo) PatchByID(ctx context.Context, tx *gorm.DB, kitID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.BrandKit{}).
		Where("id = ?", kitID).
		Updates(fields).Error
}

func (br *brandKitRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, kitIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if len(kitIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", kitIDs).
		Delete(&types.BrandKit{}).Error
}
