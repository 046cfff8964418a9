package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/types"
)

type AgentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, agents []*types.Agent) ([]*types.Agent, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) ([]*types.Agent, error)
	GetByProductIDs(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) ([]*types.Agent, error)
	GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.Agent, error)
	PatchByID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID, fields map[string]any) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) error
}

type agentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRepo(db *gorm.DB, baseLog *logger.Logger) AgentRepo {
	repoLog := baseLog.With("repo", "AgentRepo")
	return &agentRepo{db: db, log: repoLog}
}

func (ar *agentRepo) Create(ctx context.Context, tx *gorm.DB, agents []*types.Agent) ([]*types.Agent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(agents) == 0 {
		return []*types.Agent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (ar *agentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) ([]*types.Agent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Agent
	if len(agentIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", agentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *agentRepo) GetByProductIDs(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) ([]*types.Agent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Agent
	if len(productIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *agentRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.Agent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Agent
	if len(projectIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *agentRepo) PatchByID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Agent{}).
		Where("id = ?", agentID).
		Updates(fields).Error
}

func (ar *agentRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(agentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", agentIDs).
		Delete(&types.Agent{}).Error
}
