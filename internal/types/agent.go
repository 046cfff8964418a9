package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContentType string

const (
	ContentTypeTitle          ContentType = "title"
	ContentTypeBulletPoints   ContentType = "bullet_points"
	ContentTypeHeroImage      ContentType = "hero_image"
	ContentTypeLifestyleImage ContentType = "lifestyle_image"
	ContentTypeInfographic    ContentType = "infographic"
)

// AllContentTypes is the fixed generate-all order.
var AllContentTypes = []ContentType{
	ContentTypeTitle,
	ContentTypeBulletPoints,
	ContentTypeHeroImage,
	ContentTypeLifestyleImage,
	ContentTypeInfographic,
}

func (ct ContentType) Valid() bool {
	switch ct {
	case ContentTypeTitle, ContentTypeBulletPoints, ContentTypeHeroImage,
		ContentTypeLifestyleImage, ContentTypeInfographic:
		return true
	}
	return false
}

func (ct ContentType) IsImage() bool {
	switch ct {
	case ContentTypeHeroImage, ContentTypeLifestyleImage, ContentTypeInfographic:
		return true
	}
	return false
}

type AgentStatus string

const (
	AgentStatusIdle       AgentStatus = "idle"
	AgentStatusGenerating AgentStatus = "generating"
	AgentStatusReady      AgentStatus = "ready"
	AgentStatusError      AgentStatus = "error"
)

// ChatMessage is one element of the ChatHistory JSON column.
type ChatMessage struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Agent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index;column:product_id" json:"product_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`

	ContentType ContentType `gorm:"not null;column:content_type" json:"content_type"`
	Draft       string      `gorm:"column:draft" json:"draft"`

	ImageURL       string `gorm:"column:image_url" json:"image_url"`
	ImageBucketKey string `gorm:"column:image_bucket_key" json:"image_bucket_key"`

	// Upstream entity ids as plain strings; mirrors the saved edge list
	// and is the reconstruction source when no edge list was saved.
	Connections datatypes.JSON `gorm:"column:connections" json:"connections"`

	ChatHistory datatypes.JSON `gorm:"column:chat_history" json:"chat_history"`

	PositionX float64 `gorm:"column:position_x" json:"position_x"`
	PositionY float64 `gorm:"column:position_y" json:"position_y"`

	Status       AgentStatus `gorm:"not null;column:status" json:"status"`
	ErrorMessage string      `gorm:"column:error_message" json:"error_message"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Agent) TableName() string {
	return "agent"
}
