package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/types"
)

type ShareRepo interface {
	Create(ctx context.Context, tx *gorm.DB, shares []*types.Share) ([]*types.Share, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, shareIDs []uuid.UUID) ([]*types.Share, error)
	GetByTokens(ctx context.Context, tx *gorm.DB, tokens []string) ([]*types.Share, error)
	GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.Share, error)
	IncrementViewCount(ctx context.Context, tx *gorm.DB, shareID uuid.UUID, delta int64) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, shareIDs []uuid.UUID) error
}

type shareRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShareRepo(db *gorm.DB, baseLog *logger.Logger) ShareRepo {
	repoLog := baseLog.With("repo", "ShareRepo")
	return &shareRepo{db: db, log: repoLog}
}

func (sr *shareRepo) Create(ctx context.Context, tx *gorm.DB, shares []*types.Share) ([]*types.Share, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(shares) == 0 {
		return []*types.Share{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

func (sr *shareRepo) GetByIDs(ctx context.Context, tx *gorm.DB, shareIDs []uuid.UUID) ([]*types.Share, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Share
	if len(shareIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", shareIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *shareRepo) GetByTokens(ctx context.Context, tx *gorm.DB, tokens []string) ([]*types.Share, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Share
	if len(tokens) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("token IN ?", tokens).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *shareRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.Share, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Share
	if len(projectIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *shareRepo) IncrementViewCount(ctx context.Context, tx *gorm.DB, shareID uuid.UUID, delta int64) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if delta == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Share{}).
		Where("id = ?", shareID).
		Update("view_count", gorm.Expr("view_count + ?", delta)).Error
}

func (sr *shareRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, shareIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(shareIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", shareIDs).
		Delete(&types.Share{}).Error
}
