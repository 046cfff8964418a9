package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/repos"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/types"
)

type ShareService interface {
	CreateShare(ctx context.Context, projectID uuid.UUID) (*types.Share, error)
	ListShares(ctx context.Context, projectID uuid.UUID) ([]*types.Share, error)
	RevokeShare(ctx context.Context, shareID uuid.UUID) error
	// GetSharedCanvas is the public read path; no auth, token only.
	GetSharedCanvas(ctx context.Context, token string) (*types.Share, error)
}

type shareService struct {
	db            *gorm.DB
	log           *logger.Logger
	projectRepo   repos.ProjectRepo
	shareRepo     repos.ShareRepo
	canvasService CanvasService
	viewCounter   ViewCounter
}

func NewShareService(
	db *gorm.DB,
	log *logger.Logger,
	projectRepo repos.ProjectRepo,
	shareRepo repos.ShareRepo,
	canvasService CanvasService,
	viewCounter ViewCounter,
) ShareService {
	return &shareService{
		db:            db,
		log:           log.With("service", "ShareService"),
		projectRepo:   projectRepo,
		shareRepo:     shareRepo,
		canvasService: canvasService,
		viewCounter:   viewCounter,
	}
}

func (ss *shareService) requireOwnedProject(ctx context.Context, projectID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return fmt.Errorf("no request data found in context")
	}
	projects, err := ss.projectRepo.GetByIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if len(projects) == 0 {
		return ErrNotFound
	}
	if projects[0].UserID != rd.UserID {
		return ErrForbidden
	}
	return nil
}

// CreateShare freezes the current reconciled canvas into the share row.
// The share token is an opaque uuid; guessing one is guessing a uuid.
func (ss *shareService) CreateShare(ctx context.Context, projectID uuid.UUID) (*types.Share, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	if err := ss.requireOwnedProject(ctx, projectID); err != nil {
		return nil, err
	}

	nodes, edges, viewport, err := ss.canvasService.SnapshotJSON(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot canvas: %w", err)
	}

	share := &types.Share{
		ID:        uuid.New(),
		UserID:    rd.UserID,
		ProjectID: projectID,
		Token:     uuid.New().String(),
		Nodes:     nodes,
		Edges:     edges,
		Viewport:  viewport,
	}
	if _, err := ss.shareRepo.Create(ctx, nil, []*types.Share{share}); err != nil {
		return nil, fmt.Errorf("failed to create share: %w", err)
	}
	return share, nil
}

func (ss *shareService) ListShares(ctx context.Context, projectID uuid.UUID) ([]*types.Share, error) {
	if err := ss.requireOwnedProject(ctx, projectID); err != nil {
		return nil, err
	}
	shares, err := ss.shareRepo.GetByProjectIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return shares, nil
}

func (ss *shareService) RevokeShare(ctx context.Context, shareID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return fmt.Errorf("no request data found in context")
	}
	shares, err := ss.shareRepo.GetByIDs(ctx, nil, []uuid.UUID{shareID})
	if err != nil {
		return fmt.Errorf("failed to load share: %w", err)
	}
	if len(shares) == 0 {
		return ErrNotFound
	}
	if shares[0].UserID != rd.UserID {
		return ErrForbidden
	}
	return ss.shareRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{shareID})
}

func (ss *shareService) GetSharedCanvas(ctx context.Context, token string) (*types.Share, error) {
	shares, err := ss.shareRepo.GetByTokens(ctx, nil, []string{token})
	if err != nil {
		return nil, fmt.Errorf("failed to load share: %w", err)
	}
	if len(shares) == 0 {
		return nil, ErrNotFound
	}
	share := shares[0]

	if err := ss.viewCounter.RecordView(ctx, share.ID); err != nil {
		ss.log.Warn("failed to record share view", "shareID", share.ID, "error", err)
	}
	return share, nil
}
