package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/types"
)

type BrandKitPresetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, presets []*types.BrandKitPreset) ([]*types.BrandKitPreset, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, presetIDs []uuid.UUID) ([]*types.BrandKitPreset, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.BrandKitPreset, error)
	PatchByID(ctx context.Context, tx *gorm.DB, presetID uuid.UUID, fields map[string]any) error
	ClearDefaultForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, presetIDs []uuid.UUID) error
}

type brandKitPresetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandKitPresetRepo(db *gorm.DB, baseLog *logger.Logger) BrandKitPresetRepo {
	repoLog := baseLog.With("repo", "BrandKitPresetRepo")
	return &brandKitPresetRepo{db: db, log: repoLog}
}

func (bpr *brandKitPresetRepo) Create(ctx context.Context, tx *gorm.DB, presets []*types.BrandKitPreset) ([]*types.BrandKitPreset, error) {
	transaction := tx
	if transaction == nil {
		transaction = bpr.db
	}
	if len(presets) == 0 {
		return []*types.BrandKitPreset{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&presets).Error; err != nil {
		return nil, err
	}
	return presets, nil
}

func (bpr *brandKitPresetRepo) GetByIDs(ctx context.Context, tx *gorm.DB, presetIDs []uuid.UUID) ([]*types.BrandKitPreset, error) {
	transaction := tx
	if transaction == nil {
		transaction = bpr.db
	}
	var results []*types.BrandKitPreset
	if len(presetIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", presetIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (bpr *brandKitPresetRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.BrandKitPreset, error) {
	transaction := tx
	if transaction == nil {
		transaction = bpr.db
	}
	var results []*types.BrandKitPreset
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (bpr *brandKitPresetRepo) PatchByID(ctx context.Context, tx *gorm.DB, presetID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = bpr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.BrandKitPreset{}).
		Where("id = ?", presetID).
		Updates(fields).Error
}

func (bpr *brandKitPresetRepo) ClearDefaultForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = bpr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.BrandKitPreset{}).
		Where("user_id = ? AND is_default = true", userID).
		Update("is_default", false).Error
}

func (bpr *brandKitPresetRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, presetIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = bpr.db
	}
	if len(presetIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", presetIDs).
		Delete(&types.BrandKitPreset{}).Error
}
