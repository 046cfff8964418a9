package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/types"
)

type CanvasStateRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, state *types.CanvasState) (*types.CanvasState, error)
	GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.CanvasState, error)
	FullDeleteByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) error
}

type canvasStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCanvasStateRepo(db *gorm.DB, baseLog *logger.Logger) CanvasStateRepo {
	repoLog := baseLog.With("repo", "CanvasStateRepo")
	return &canvasStateRepo{db: db, log: repoLog}
}

func (cr *canvasStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *types.CanvasState) (*types.CanvasState, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"nodes", "edges", "viewport", "updated_at"}),
		}).
		Create(state).Error; err != nil {
		return nil, err
	}
	return state, nil
}

func (cr *canvasStateRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.CanvasState, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.CanvasState
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

func (cr *canvasStateRepo) FullDeleteByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(projectIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Delete(&types.CanvasState{}).Error
}
