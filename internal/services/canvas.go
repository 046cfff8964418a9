package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/canvas"
	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/repos"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/sse"
	"github.com/listforge/listforge-backend/internal/types"
)

// CanvasView is the full load-canvas response: the reconciled graph plus
// the entity rows the client renders inside the nodes.
type CanvasView struct {
	Snapshot canvas.Snapshot   `json:"snapshot"`
	Products []*types.Product  `json:"products"`
	Agents   []*types.Agent    `json:"agents"`
	BrandKit *types.BrandKit   `json:"brand_kit,omitempty"`
}

type CanvasService interface {
	LoadCanvas(ctx context.Context, projectID uuid.UUID) (*CanvasView, error)
	SaveCanvas(ctx context.Context, projectID uuid.UUID, snapshot canvas.Snapshot) error
	SnapshotJSON(ctx context.Context, projectID uuid.UUID) (nodes, edges, viewport datatypes.JSON, err error)
}

type canvasService struct {
	db              *gorm.DB
	log             *logger.Logger
	projectRepo     repos.ProjectRepo
	productRepo     repos.ProductRepo
	agentRepo       repos.AgentRepo
	brandKitRepo    repos.BrandKitRepo
	canvasStateRepo repos.CanvasStateRepo
	hub             *sse.Hub
}

func NewCanvasService(
	db *gorm.DB,
	log *logger.Logger,
	projectRepo repos.ProjectRepo,
	productRepo repos.ProductRepo,
	agentRepo repos.AgentRepo,
	brandKitRepo repos.BrandKitRepo,
	canvasStateRepo repos.CanvasStateRepo,
	hub *sse.Hub,
) CanvasService {
	return &canvasService{
		db:              db,
		log:             log.With("service", "CanvasService"),
		projectRepo:     projectRepo,
		productRepo:     productRepo,
		agentRepo:       agentRepo,
		brandKitRepo:    brandKitRepo,
		canvasStateRepo: canvasStateRepo,
		hub:             hub,
	}
}

func (cs *canvasService) requireOwnedProject(ctx context.Context, projectID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return fmt.Errorf("no request data found in context")
	}
	projects, err := cs.projectRepo.GetByIDs(ctx, nil, []uuid.UUID{projectID})
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

// LoadCanvas fans the four independent reads out concurrently, then
// reconciles the saved snapshot against what actually exists.
func (cs *canvasService) LoadCanvas(ctx context.Context, projectID uuid.UUID) (*CanvasView, error) {
	if err := cs.requireOwnedProject(ctx, projectID); err != nil {
		return nil, err
	}

	var (
		products []*types.Product
		agents   []*types.Agent
		kits     []*types.BrandKit
		states   []*types.CanvasState
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = cs.productRepo.GetByProjectIDs(gctx, nil, []uuid.UUID{projectID})
		return err
	})
	g.Go(func() error {
		var err error
		agents, err = cs.agentRepo.GetByProjectIDs(gctx, nil, []uuid.UUID{projectID})
		return err
	})
	g.Go(func() error {
		var err error
		kits, err = cs.brandKitRepo.GetByProjectIDs(gctx, nil, []uuid.UUID{projectID})
		return err
	})
	g.Go(func() error {
		var err error
		states, err = cs.canvasStateRepo.GetByProjectIDs(gctx, nil, []uuid.UUID{projectID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load canvas entities: %w", err)
	}

	var saved *canvas.Snapshot
	if len(states) > 0 {
		snap, err := decodeSnapshot(states[0])
		if err != nil {
			cs.log.Warn("discarding undecodable canvas state", "projectID", projectID, "error", err)
		} else {
			saved = snap
		}
	}

	ents := entitiesFromModels(products, agents, kits)
	snapshot := canvas.Reconcile(saved, ents)

	view := &CanvasView{
		Snapshot: snapshot,
		Products: products,
		Agents:   agents,
	}
	if len(kits) > 0 {
		view.BrandKit = kits[0]
	}
	return view, nil
}

// SaveCanvas persists the snapshot and rewrites each agent's connections
// mirror from the saved edge list, all in one transaction.
func (cs *canvasService) SaveCanvas(ctx context.Context, projectID uuid.UUID, snapshot canvas.Snapshot) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return fmt.Errorf("no request data found in context")
	}
	if err := cs.requireOwnedProject(ctx, projectID); err != nil {
		return err
	}

	nodesJSON, err := json.Marshal(snapshot.Nodes)
	if err != nil {
		return fmt.Errorf("failed to encode nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(snapshot.Edges)
	if err != nil {
		return fmt.Errorf("failed to encode edges: %w", err)
	}
	viewportJSON, err := json.Marshal(snapshot.Viewport)
	if err != nil {
		return fmt.Errorf("failed to encode viewport: %w", err)
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state := &types.CanvasState{
			ID:        uuid.New(),
			UserID:    rd.UserID,
			ProjectID: projectID,
			Nodes:     datatypes.JSON(nodesJSON),
			Edges:     datatypes.JSON(edgesJSON),
			Viewport:  datatypes.JSON(viewportJSON),
		}
		if _, uErr := cs.canvasStateRepo.Upsert(ctx, tx, state); uErr != nil {
			return fmt.Errorf("failed to upsert canvas state: %w", uErr)
		}

		agents, aErr := cs.agentRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
		if aErr != nil {
			return fmt.Errorf("failed to load agents: %w", aErr)
		}
		products, pErr := cs.productRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
		if pErr != nil {
			return fmt.Errorf("failed to load products: %w", pErr)
		}
		kits, kErr := cs.brandKitRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
		if kErr != nil {
			return fmt.Errorf("failed to load brand kit: %w", kErr)
		}

		ents := entitiesFromModels(products, agents, kits)
		connections := canvas.ConnectionsFromEdges(snapshot.Edges, ents)

		// Node positions flow back onto the entity rows so a later
		// reconcile without saved state still lands close.
		positions := map[string][2]float64{}
		for _, n := range snapshot.Nodes {
			positions[n.ID] = [2]float64{n.X, n.Y}
		}

		for _, a := range agents {
			fields := map[string]any{"updated_at": time.Now()}
			if conns, ok := connections[a.ID]; ok {
				raw, mErr := json.Marshal(conns)
				if mErr != nil {
					return mErr
				}
				fields["connections"] = datatypes.JSON(raw)
			}
			if pos, ok := positions[canvas.AgentNodeID(string(a.ContentType), a.ID)]; ok {
				fields["position_x"] = pos[0]
				fields["position_y"] = pos[1]
			}
			if uErr := cs.agentRepo.PatchByID(ctx, tx, a.ID, fields); uErr != nil {
				return fmt.Errorf("failed to patch agent %s: %w", a.ID, uErr)
			}
		}

		if len(kits) > 0 {
			if pos, ok := positions[canvas.BrandKitNodeID(kits[0].ID)]; ok {
				if uErr := cs.brandKitRepo.PatchByID(ctx, tx, kits[0].ID, map[string]any{
					"position_x": pos[0],
					"position_y": pos[1],
					"updated_at": time.Now(),
				}); uErr != nil {
					return fmt.Errorf("failed to patch brand kit position: %w", uErr)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	cs.hub.Broadcast(sse.Message{
		Channel: sse.ProjectChannel(projectID),
		Event:   sse.EventCanvasSaved,
		Data:    map[string]any{"project_id": projectID},
	})
	return nil
}

func (cs *canvasService) SnapshotJSON(ctx context.Context, projectID uuid.UUID) (datatypes.JSON, datatypes.JSON, datatypes.JSON, error) {
	view, err := cs.LoadCanvas(ctx, projectID)
	if err != nil {
		return nil, nil, nil, err
	}
	nodes, err := json.Marshal(view.Snapshot.Nodes)
	if err != nil {
		return nil, nil, nil, err
	}
	edges, err := json.Marshal(view.Snapshot.Edges)
	if err != nil {
		return nil, nil, nil, err
	}
	viewport, err := json.Marshal(view.Snapshot.Viewport)
	if err != nil {
		return nil, nil, nil, err
	}
	return datatypes.JSON(nodes), datatypes.JSON(edges), datatypes.JSON(viewport), nil
}

func decodeSnapshot(state *types.CanvasState) (*canvas.Snapshot, error) {
	var snap canvas.Snapshot
	if len(state.Nodes) > 0 {
		if err := json.Unmarshal(state.Nodes, &snap.Nodes); err != nil {
			return nil, fmt.Errorf("decode nodes: %w", err)
		}
	}
	if len(state.Edges) > 0 {
		if err := json.Unmarshal(state.Edges, &snap.Edges); err != nil {
			return nil, fmt.Errorf("decode edges: %w", err)
		}
	}
	if len(state.Viewport) > 0 {
		if err := json.Unmarshal(state.Viewport, &snap.Viewport); err != nil {
			return nil, fmt.Errorf("decode viewport: %w", err)
		}
	}
	return &snap, nil
}

func entitiesFromModels(products []*types.Product, agents []*types.Agent, kits []*types.BrandKit) canvas.Entities {
	var ents canvas.Entities
	for _, p := range products {
		ents.Products = append(ents.Products, canvas.ProductRef{ID: p.ID})
	}
	for _, a := range agents {
		ref := canvas.AgentRef{
			ID:          a.ID,
			ContentType: string(a.ContentType),
			X:           a.PositionX,
			Y:           a.PositionY,
		}
		if len(a.Connections) > 0 {
			if err := json.Unmarshal(a.Connections, &ref.Connections); err != nil {
				ref.Connections = nil
			}
		}
		ents.Agents = append(ents.Agents, ref)
	}
	if len(kits) > 0 {
		ents.BrandKit = &canvas.BrandKitRef{
			ID: kits[0].ID,
			X:  kits[0].PositionX,
			Y:  kits[0].PositionY,
		}
	}
	return ents
}
