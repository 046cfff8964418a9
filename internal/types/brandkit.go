package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Palette is either a named preset or a custom three-color set.
type Palette struct {
	Preset string   `json:"preset,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// BrandKit is the per-project canvas node. One per project, enforced at
// the service layer.
type BrandKit struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex;column:project_id" json:"project_id"`
	PresetID  *uuid.UUID `gorm:"type:uuid;column:preset_id" json:"preset_id,omitempty"`

	BrandName  string         `gorm:"column:brand_name" json:"brand_name"`
	Palette    datatypes.JSON `gorm:"column:palette" json:"palette"`
	BrandVoice string         `gorm:"column:brand_voice" json:"brand_voice"`

	PositionX float64 `gorm:"column:position_x" json:"position_x"`
	PositionY float64 `gorm:"column:position_y" json:"position_y"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (BrandKit) TableName() string {
	return "brand_kit"
}

// BrandKitPreset is a saved, project-independent brand kit.
type BrandKitPreset struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Name       string         `gorm:"not null;column:name" json:"name"`
	Palette    datatypes.JSON `gorm:"column:palette" json:"palette"`
	BrandVoice string         `gorm:"column:brand_voice" json:"brand_voice"`
	IsDefault  bool           `gorm:"not null;default:false;column:is_default" json:"is_default"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (BrandKitPreset) TableName() string {
	return "brand_kit_preset"
}
