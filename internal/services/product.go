package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/repos"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/types"
)

type CreateProductInput struct {
	ProjectID uuid.UUID            `json:"project_id"`
	Title     string               `json:"title"`
	ASIN      string               `json:"asin"`
	Images    []types.ProductImage `json:"images"`
}

type ProductPatch struct {
	Title          *string   `json:"title"`
	ASIN           *string   `json:"asin"`
	Name           *string   `json:"name"`
	KeyFeatures    *string   `json:"key_features"`
	TargetKeywords *string   `json:"target_keywords"`
	TargetAudience *string   `json:"target_audience"`
	Category       *string   `json:"category"`
	Features       *[]string `json:"features"`
	Specifications *[]string `json:"specifications"`
	Keywords       *[]string `json:"keywords"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*types.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*types.Product, error)
	ListProducts(ctx context.Context, projectID uuid.UUID) ([]*types.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, patch ProductPatch) (*types.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	AppendImages(ctx context.Context, productID uuid.UUID, images []types.ProductImage) (*types.Product, error)
}

type productService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	productRepo repos.ProductRepo
	agentRepo   repos.AgentRepo
}

func NewProductService(
	db *gorm.DB,
	log *logger.Logger,
	projectRepo repos.ProjectRepo,
	productRepo repos.ProductRepo,
	agentRepo repos.AgentRepo,
) ProductService {
	return &productService{
		db:          db,
		log:         log.With("service", "ProductService"),
		projectRepo: projectRepo,
		productRepo: productRepo,
		agentRepo:   agentRepo,
	}
}

// requireProduct loads the product and verifies ownership.
func (ps *productService) requireProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.Product, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	products, err := ps.productRepo.GetByIDs(ctx, tx, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	if products[0].UserID != rd.UserID {
		return nil, ErrForbidden
	}
	return products[0], nil
}

func (ps *productService) requireOwnedProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return fmt.Errorf("no request data found in context")
	}
	projects, err := ps.projectRepo.GetByIDs(ctx, tx, []uuid.UUID{projectID})
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

// CreateProduct also fans out one agent per content type so a fresh
// product lands on the canvas with its full set of generation nodes.
func (ps *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*types.Product, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	if err := ps.requireOwnedProject(ctx, nil, input.ProjectID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}

	imagesJSON, err := json.Marshal(input.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to encode images: %w", err)
	}

	product := &types.Product{
		ID:        uuid.New(),
		UserID:    rd.UserID,
		ProjectID: input.ProjectID,
		Title:     strings.TrimSpace(input.Title),
		ASIN:      strings.TrimSpace(input.ASIN),
		Images:    datatypes.JSON(imagesJSON),
	}

	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := ps.productRepo.Create(ctx, tx, []*types.Product{product}); cErr != nil {
			return fmt.Errorf("failed to create product: %w", cErr)
		}

		agents := make([]*types.Agent, 0, len(types.AllContentTypes))
		connections, mErr := json.Marshal([]string{product.ID.String()})
		if mErr != nil {
			return mErr
		}
		for _, ct := range types.AllContentTypes {
			agents = append(agents, &types.Agent{
				ID:          uuid.New(),
				UserID:      rd.UserID,
				ProductID:   product.ID,
				ProjectID:   input.ProjectID,
				ContentType: ct,
				Connections: datatypes.JSON(connections),
				ChatHistory: datatypes.JSON([]byte("[]")),
				Status:      types.AgentStatusIdle,
			})
		}
		if _, aErr := ps.agentRepo.Create(ctx, tx, agents); aErr != nil {
			return fmt.Errorf("failed to create agents: %w", aErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (ps *productService) GetProduct(ctx context.Context, productID uuid.UUID) (*types.Product, error) {
	return ps.requireProduct(ctx, nil, productID)
}

func (ps *productService) ListProducts(ctx context.Context, projectID uuid.UUID) ([]*types.Product, error) {
	if err := ps.requireOwnedProject(ctx, nil, projectID); err != nil {
		return nil, err
	}
	products, err := ps.productRepo.GetByProjectIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (ps *productService) UpdateProduct(ctx context.Context, productID uuid.UUID, patch ProductPatch) (*types.Product, error) {
	if _, err := ps.requireProduct(ctx, nil, productID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	setString := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	setString("title", patch.Title)
	setString("asin", patch.ASIN)
	setString("name", patch.Name)
	setString("key_features", patch.KeyFeatures)
	setString("target_keywords", patch.TargetKeywords)
	setString("target_audience", patch.TargetAudience)
	setString("category", patch.Category)

	setList := func(col string, v *[]string) error {
		if v == nil {
			return nil
		}
		raw, err := json.Marshal(*v)
		if err != nil {
			return err
		}
		fields[col] = datatypes.JSON(raw)
		return nil
	}
	if err := setList("features", patch.Features); err != nil {
		return nil, err
	}
	if err := setList("specifications", patch.Specifications); err != nil {
		return nil, err
	}
	if err := setList("keywords", patch.Keywords); err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		if err := ps.productRepo.PatchByID(ctx, nil, productID, fields); err != nil {
			return nil, fmt.Errorf("failed to patch product: %w", err)
		}
	}
	return ps.requireProduct(ctx, nil, productID)
}

// DeleteProduct removes the product's agents first, in the same
// transaction, so no orphaned agent survives the delete.
func (ps *productService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := ps.requireProduct(ctx, nil, productID); err != nil {
		return err
	}

	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agents, err := ps.agentRepo.GetByProductIDs(ctx, tx, []uuid.UUID{productID})
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
		return ps.productRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{productID})
	})
}

func (ps *productService) AppendImages(ctx context.Context, productID uuid.UUID, images []types.ProductImage) (*types.Product, error) {
	product, err := ps.requireProduct(ctx, nil, productID)
	if err != nil {
		return nil, err
	}

	var existing []types.ProductImage
	if len(product.Images) > 0 {
		if uErr := json.Unmarshal(product.Images, &existing); uErr != nil {
			ps.log.Warn("failed to decode existing images, resetting", "productID", productID, "error", uErr)
			existing = nil
		}
	}
	existing = append(existing, images...)

	raw, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("failed to encode images: %w", err)
	}
	if err := ps.productRepo.PatchByID(ctx, nil, productID, map[string]any{
		"images":     datatypes.JSON(raw),
		"updated_at": time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to patch product images: %w", err)
	}
	return ps.requireProduct(ctx, nil, productID)
}
