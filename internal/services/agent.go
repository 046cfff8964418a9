package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/repos"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/types"
)

type AgentPatch struct {
	Draft     *string  `json:"draft"`
	PositionX *float64 `json:"position_x"`
	PositionY *float64 `json:"position_y"`
}

type AgentService interface {
	GetAgent(ctx context.Context, agentID uuid.UUID) (*types.Agent, error)
	ListAgentsByProduct(ctx context.Context, productID uuid.UUID) ([]*types.Agent, error)
	UpdateAgent(ctx context.Context, agentID uuid.UUID, patch AgentPatch) (*types.Agent, error)
}

type agentService struct {
	db        *gorm.DB
	log       *logger.Logger
	agentRepo repos.AgentRepo
}

func NewAgentService(db *gorm.DB, log *logger.Logger, agentRepo repos.AgentRepo) AgentService {
	return &agentService{
		db:        db,
		log:       log.With("service", "AgentService"),
		agentRepo: agentRepo,
	}
}

func (as *agentService) requireAgent(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) (*types.Agent, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	agents, err := as.agentRepo.GetByIDs(ctx, tx, []uuid.UUID{agentID})
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	if len(agents) == 0 {
		return nil, ErrNotFound
	}
	if agents[0].UserID != rd.UserID {
		return nil, ErrForbidden
	}
	return agents[0], nil
}

func (as *agentService) GetAgent(ctx context.Context, agentID uuid.UUID) (*types.Agent, error) {
	return as.requireAgent(ctx, nil, agentID)
}

func (as *agentService) ListAgentsByProduct(ctx context.Context, productID uuid.UUID) ([]*types.Agent, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	agents, err := as.agentRepo.GetByProductIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	for _, a := range agents {
		if a.UserID != rd.UserID {
			return nil, ErrForbidden
		}
	}
	return agents, nil
}

// UpdateAgent handles manual draft edits and node drags. A manual edit of
// the draft marks the agent ready; editing is not allowed mid-generation.
func (as *agentService) UpdateAgent(ctx context.Context, agentID uuid.UUID, patch AgentPatch) (*types.Agent, error) {
	agent, err := as.requireAgent(ctx, nil, agentID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Draft != nil {
		if agent.Status == types.AgentStatusGenerating {
			return nil, fmt.Errorf("%w: agent is generating", ErrConflict)
		}
		fields["draft"] = *patch.Draft
		if strings.TrimSpace(*patch.Draft) != "" {
			fields["status"] = types.AgentStatusReady
			fields["error_message"] = ""
		}
	}
	if patch.PositionX != nil {
		fields["position_x"] = *patch.PositionX
	}
	if patch.PositionY != nil {
		fields["position_y"] = *patch.PositionY
	}

	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		if err := as.agentRepo.PatchByID(ctx, nil, agentID, fields); err != nil {
			return nil, fmt.Errorf("failed to patch agent: %w", err)
		}
	}
	return as.requireAgent(ctx, nil, agentID)
}
