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

type ProjectPatch struct {
	Title    *string `json:"title"`
	Archived *bool   `json:"archived"`
}

type ProjectService interface {
	CreateProject(ctx context.Context, title string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*types.Project, error)
	UpdateProject(ctx context.Context, projectID uuid.UUID, patch ProjectPatch) (*types.Project, error)
	DeleteProject(ctx context.Context, projectID uuid.UUID) error
}

type projectService struct {
	db              *gorm.DB
	log             *logger.Logger
	projectRepo     repos.ProjectRepo
	productRepo     repos.ProductRepo
	agentRepo       repos.AgentRepo
	brandKitRepo    repos.BrandKitRepo
	shareRepo       repos.ShareRepo
	canvasStateRepo repos.CanvasStateRepo
}

func NewProjectService(
	db *gorm.DB,
	log *logger.Logger,
	projectRepo repos.ProjectRepo,
	productRepo repos.ProductRepo,
	agentRepo repos.AgentRepo,
	brandKitRepo repos.BrandKitRepo,
	shareRepo repos.ShareRepo,
	canvasStateRepo repos.CanvasStateRepo,
) ProjectService {
	return &projectService{
		db:              db,
		log:             log.With("service", "ProjectService"),
		projectRepo:     projectRepo,
		productRepo:     productRepo,
		agentRepo:       agentRepo,
		brandKitRepo:    brandKitRepo,
		shareRepo:       shareRepo,
		canvasStateRepo: canvasStateRepo,
	}
}

// requireProject loads the project and verifies the requesting user owns
// it. Every project-scoped operation goes through this check.
func (ps *projectService) requireProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*types.Project, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	projects, err := ps.projectRepo.GetByIDs(ctx, tx, []uuid.UUID{projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if len(projects) == 0 {
		return nil, ErrNotFound
	}
	if projects[0].UserID != rd.UserID {
		return nil, ErrForbidden
	}
	return projects[0], nil
}

func (ps *projectService) CreateProject(ctx context.Context, title string) (*types.Project, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Project"
	}

	project := &types.Project{
		ID:     uuid.New(),
		UserID: rd.UserID,
		Title:  title,
	}
	if _, err := ps.projectRepo.Create(ctx, nil, []*types.Project{project}); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (ps *projectService) ListProjects(ctx context.Context) ([]*types.Project, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	projects, err := ps.projectRepo.GetByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (ps *projectService) GetProject(ctx context.Context, projectID uuid.UUID) (*types.Project, error) {
	return ps.requireProject(ctx, nil, projectID)
}

func (ps *projectService) UpdateProject(ctx context.Context, projectID uuid.UUID, patch ProjectPatch) (*types.Project, error) {
	project, err := ps.requireProject(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalid)
		}
		fields["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Archived != nil {
		fields["archived"] = *patch.Archived
	}
	if len(fields) == 0 {
		return project, nil
	}
	fields["updated_at"] = time.Now()

	if err := ps.projectRepo.PatchByID(ctx, nil, projectID, fields); err != nil {
		return nil, fmt.Errorf("failed to patch project: %w", err)
	}
	return ps.requireProject(ctx, nil, projectID)
}

// DeleteProject removes the project and everything hanging off it in one
// transaction, children first so foreign keys never block the delete.
func (ps *projectService) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	if _, err := ps.requireProject(ctx, nil, projectID); err != nil {
		return err
	}

	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agents, err := ps.agentRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
		if err != nil {
			return fmt.Errorf("failed to load agents: %w", err)
		}
		agentIDs := make([]uuid.UUID, 0, len(agents))
		for _, a := range agents {
			agentIDs = append(agentIDs, a.ID)
		}
		if err := ps.agentRepo.FullDeleteByIDs(ctx, tx, agentIDs); err != nil {
			return fmt.Errorf("failed to delete agents: %w", err)
		}

		products, err := ps.productRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		productIDs := make([]uuid.UUID, 0, len(products))
		for _, p := range products {
			productIDs = append(productIDs, p.ID)
		}
		if err := ps.productRepo.FullDeleteByIDs(ctx, tx, productIDs); err != nil {
			return fmt.Errorf("failed to delete products: %w", err)
		}

		kits, err := ps.brandKitRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
		if err != nil {
			return fmt.Errorf("failed to load brand kit: %w", err)
		}
		kitIDs := make([]uuid.UUID, 0, len(kits))
		for _, k := range kits {
			kitIDs = append(kitIDs, k.ID)
		}
		if err := ps.brandKitRepo.FullDeleteByIDs(ctx, tx, kitIDs); err != nil {
			return fmt.Errorf("failed to delete brand kit: %w", err)
		}

		shares, err := ps.shareRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
		if err != nil {
			return fmt.Errorf("failed to load shares: %w", err)
		}
		shareIDs := make([]uuid.UUID, 0, len(shares))
		for _, s := range shares {
			shareIDs = append(shareIDs, s.ID)
		}
		if err := ps.shareRepo.FullDeleteByIDs(ctx, tx, shareIDs); err != nil {
			return fmt.Errorf("failed to delete shares: %w", err)
		}

		if err := ps.canvasStateRepo.FullDeleteByProjectIDs(ctx, tx, []uuid.UUID{projectID}); err != nil {
			return fmt.Errorf("failed to delete canvas state: %w", err)
		}

		return ps.projectRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{projectID})
	})
}
