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

type BrandKitInput struct {
	ProjectID  uuid.UUID      `json:"project_id"`
	PresetID   *uuid.UUID     `json:"preset_id"`
	BrandName  string         `json:"brand_name"`
	Palette    *types.Palette `json:"palette"`
	BrandVoice string         `json:"brand_voice"`
	PositionX  float64        `json:"position_x"`
	PositionY  float64        `json:"position_y"`
}

type BrandKitPatch struct {
	BrandName  *string        `json:"brand_name"`
	Palette    *types.Palette `json:"palette"`
	BrandVoice *string        `json:"brand_voice"`
	PositionX  *float64       `json:"position_x"`
	PositionY  *float64       `json:"position_y"`
}

type PresetInput struct {
	Name       string         `json:"name"`
	Palette    *types.Palette `json:"palette"`
	BrandVoice string         `json:"brand_voice"`
	IsDefault  bool           `json:"is_default"`
}

type BrandKitService interface {
	CreateBrandKit(ctx context.Context, input BrandKitInput) (*types.BrandKit, error)
	GetBrandKitByProject(ctx context.Context, projectID uuid.UUID) (*types.BrandKit, error)
	UpdateBrandKit(ctx context.Context, kitID uuid.UUID, patch BrandKitPatch) (*types.BrandKit, error)
	DeleteBrandKit(ctx context.Context, kitID uuid.UUID) error

	CreatePreset(ctx context.Context, input PresetInput) (*types.BrandKitPreset, error)
	ListPresets(ctx context.Context) ([]*types.BrandKitPreset, error)
	DeletePreset(ctx context.Context, presetID uuid.UUID) error
}

type brandKitService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	kitRepo     repos.BrandKitRepo
	presetRepo  repos.BrandKitPresetRepo
}

func NewBrandKitService(
	db *gorm.DB,
	log *logger.Logger,
	projectRepo repos.ProjectRepo,
	kitRepo repos.BrandKitRepo,
	presetRepo repos.BrandKitPresetRepo,
) BrandKitService {
	return &brandKitService{
		db:          db,
		log:         log.With("service", "BrandKitService"),
		projectRepo: projectRepo,
		kitRepo:     kitRepo,
		presetRepo:  presetRepo,
	}
}

func (bs *brandKitService) requireOwnedProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return fmt.Errorf("no request data found in context")
	}
	projects, err := bs.projectRepo.GetByIDs(ctx, tx, []uuid.UUID{projectID})
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

func (bs *brandKitService) requireKit(ctx context.Context, tx *gorm.DB, kitID uuid.UUID) (*types.BrandKit, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	kits, err := bs.kitRepo.GetByIDs(ctx, tx, []uuid.UUID{kitID})
	if err != nil {
		return nil, fmt.Errorf("failed to load brand kit: %w", err)
	}
	if len(kits) == 0 {
		return nil, ErrNotFound
	}
	if kits[0].UserID != rd.UserID {
		return nil, ErrForbidden
	}
	return kits[0], nil
}

// CreateBrandKit enforces one kit per project. When a preset id is given,
// the preset's palette and voice seed the kit and explicit input fields
// override them.
func (bs *brandKitService) CreateBrandKit(ctx context.Context, input BrandKitInput) (*types.BrandKit, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	if err := bs.requireOwnedProject(ctx, nil, input.ProjectID); err != nil {
		return nil, err
	}

	existing, err := bs.kitRepo.GetByProjectIDs(ctx, nil, []uuid.UUID{input.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing brand kit: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: project already has a brand kit", ErrConflict)
	}

	kit := &types.BrandKit{
		ID:         uuid.New(),
		UserID:     rd.UserID,
		ProjectID:  input.ProjectID,
		PresetID:   input.PresetID,
		BrandName:  strings.TrimSpace(input.BrandName),
		BrandVoice: strings.TrimSpace(input.BrandVoice),
		PositionX:  input.PositionX,
		PositionY:  input.PositionY,
	}

	if input.PresetID != nil {
		presets, pErr := bs.presetRepo.GetByIDs(ctx, nil, []uuid.UUID{*input.PresetID})
		if pErr != nil {
			return nil, fmt.Errorf("failed to load preset: %w", pErr)
		}
		if len(presets) == 0 {
			return nil, fmt.Errorf("%w: preset", ErrNotFound)
		}
		preset := presets[0]
		if preset.UserID != rd.UserID {
			return nil, ErrForbidden
		}
		if kit.BrandName == "" {
			kit.BrandName = preset.Name
		}
		if kit.BrandVoice == "" {
			kit.BrandVoice = preset.BrandVoice
		}
		kit.Palette = preset.Palette
	}

	if input.Palette != nil {
		raw, mErr := json.Marshal(input.Palette)
		if mErr != nil {
			return nil, fmt.Errorf("failed to encode palette: %w", mErr)
		}
		kit.Palette = datatypes.JSON(raw)
	}

	if _, err := bs.kitRepo.Create(ctx, nil, []*types.BrandKit{kit}); err != nil {
		return nil, fmt.Errorf("failed to create brand kit: %w", err)
	}
	return kit, nil
}

func (bs *brandKitService) GetBrandKitByProject(ctx context.Context, projectID uuid.UUID) (*types.BrandKit, error) {
	if err := bs.requireOwnedProject(ctx, nil, projectID); err != nil {
		return nil, err
	}
	kits, err := bs.kitRepo.GetByProjectIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to load brand kit: %w", err)
	}
	if len(kits) == 0 {
		return nil, ErrNotFound
	}
	return kits[0], nil
}

func (bs *brandKitService) UpdateBrandKit(ctx context.Context, kitID uuid.UUID, patch BrandKitPatch) (*types.BrandKit, error) {
	if _, err := bs.requireKit(ctx, nil, kitID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.BrandName != nil {
		fields["brand_name"] = strings.TrimSpace(*patch.BrandName)
	}
	if patch.BrandVoice != nil {
		fields["brand_voice"] = strings.TrimSpace(*patch.BrandVoice)
	}
	if patch.Palette != nil {
		raw, err := json.Marshal(patch.Palette)
		if err != nil {
			return nil, fmt.Errorf("failed to encode palette: %w", err)
		}
		fields["palette"] = datatypes.JSON(raw)
	}
	if patch.PositionX != nil {
		fields["position_x"] = *patch.PositionX
	}
	if patch.PositionY != nil {
		fields["position_y"] = *patch.PositionY
	}

	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		if err := bs.kitRepo.PatchByID(ctx, nil, kitID, fields); err != nil {
			return nil, fmt.Errorf("failed to patch brand kit: %w", err)
		}
	}
	return bs.requireKit(ctx, nil, kitID)
}

func (bs *brandKitService) DeleteBrandKit(ctx context.Context, kitID uuid.UUID) error {
	if _, err := bs.requireKit(ctx, nil, kitID); err != nil {
		return err
	}
	return bs.kitRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{kitID})
}

func (bs *brandKitService) CreatePreset(ctx context.Context, input PresetInput) (*types.BrandKitPreset, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: preset name is required", ErrInvalid)
	}

	preset := &types.BrandKitPreset{
		ID:         uuid.New(),
		UserID:     rd.UserID,
		Name:       strings.TrimSpace(input.Name),
		BrandVoice: strings.TrimSpace(input.BrandVoice),
		IsDefault:  input.IsDefault,
	}
	if input.Palette != nil {
		raw, err := json.Marshal(input.Palette)
		if err != nil {
			return nil, fmt.Errorf("failed to encode palette: %w", err)
		}
		preset.Palette = datatypes.JSON(raw)
	}

	err := bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only one default per user.
		if preset.IsDefault {
			if cErr := bs.presetRepo.ClearDefaultForUser(ctx, tx, rd.UserID); cErr != nil {
				return fmt.Errorf("failed to clear default preset: %w", cErr)
			}
		}
		_, cErr := bs.presetRepo.Create(ctx, tx, []*types.BrandKitPreset{preset})
		return cErr
	})
	if err != nil {
		return nil, err
	}
	return preset, nil
}

func (bs *brandKitService) ListPresets(ctx context.Context) ([]*types.BrandKitPreset, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	presets, err := bs.presetRepo.GetByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	return presets, nil
}

func (bs *brandKitService) DeletePreset(ctx context.Context, presetID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return fmt.Errorf("no request data found in context")
	}
	presets, err := bs.presetRepo.GetByIDs(ctx, nil, []uuid.UUID{presetID})
	if err != nil {
		return fmt.Errorf("failed to load preset: %w", err)
	}
	if len(presets) == 0 {
		return ErrNotFound
	}
	if presets[0].UserID != rd.UserID {
		return ErrForbidden
	}
	return bs.presetRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{presetID})
}
