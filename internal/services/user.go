package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/repos"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/sse"
	"github.com/listforge/listforge-backend/internal/types"
)

type UserProfilePatch struct {
	FirstName             *string `json:"first_name"`
	LastName              *string `json:"last_name"`
	DefaultBrandName      *string `json:"default_brand_name"`
	DefaultBrandVoice     *string `json:"default_brand_voice"`
	DefaultTargetAudience *string `json:"default_target_audience"`
}

type UserService interface {
	GetCurrentUser(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, patch UserProfilePatch) (*types.User, error)
	UploadAvatar(ctx context.Context, raw []byte) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	hub           *sse.Hub
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, avatarService AvatarService, hub *sse.Hub) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		avatarService: avatarService,
		hub:           hub,
	}
}

func (us *userService) GetCurrentUser(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users[0], nil
}

func (us *userService) UpdateProfile(ctx context.Context, patch UserProfilePatch) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}

	fields := map[string]any{}
	if patch.FirstName != nil {
		if strings.TrimSpace(*patch.FirstName) == "" {
			return nil, fmt.Errorf("%w: first name cannot be empty", ErrInvalid)
		}
		fields["first_name"] = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		if strings.TrimSpace(*patch.LastName) == "" {
			return nil, fmt.Errorf("%w: last name cannot be empty", ErrInvalid)
		}
		fields["last_name"] = strings.TrimSpace(*patch.LastName)
	}
	if patch.DefaultBrandName != nil {
		fields["default_brand_name"] = strings.TrimSpace(*patch.DefaultBrandName)
	}
	if patch.DefaultBrandVoice != nil {
		fields["default_brand_voice"] = strings.TrimSpace(*patch.DefaultBrandVoice)
	}
	if patch.DefaultTargetAudience != nil {
		fields["default_target_audience"] = strings.TrimSpace(*patch.DefaultTargetAudience)
	}

	if len(fields) > 0 {
		if err := us.userRepo.PatchByID(ctx, nil, rd.UserID, fields); err != nil {
			return nil, fmt.Errorf("failed to patch user: %w", err)
		}
	}
	return us.GetCurrentUser(ctx)
}

func (us *userService) UploadAvatar(ctx context.Context, raw []byte) (*types.User, error) {
	user, err := us.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if aErr := us.avatarService.CreateAndUploadUserAvatarFromImage(ctx, tx, user, raw); aErr != nil {
			return aErr
		}
		return us.userRepo.PatchByID(ctx, tx, user.ID, map[string]any{
			"avatar_bucket_key": user.AvatarBucketKey,
			"avatar_url":        user.AvatarURL,
			"avatar_color":      user.AvatarColor,
		})
	})
	if err != nil {
		return nil, err
	}

	us.hub.Broadcast(sse.Message{
		Channel: sse.UserChannel(user.ID),
		Event:   sse.EventUserAvatarChanged,
		Data:    map[string]any{"avatar_url": user.AvatarURL},
	})
	return user, nil
}
