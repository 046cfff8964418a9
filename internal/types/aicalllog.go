package types

import (
	"time"

	"github.com/google/uuid"
)

type AICallKind string

const (
	AICallKindText      AICallKind = "text"
	AICallKindVision    AICallKind = "vision"
	AICallKindImage     AICallKind = "image"
	AICallKindImageEdit AICallKind = "image_edit"
)

type AICallLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;column:user_id" json:"user_id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;index;column:project_id" json:"project_id"`
	AgentID   *uuid.UUID `gorm:"type:uuid;index;column:agent_id" json:"agent_id,omitempty"`

	ContentType ContentType `gorm:"column:content_type" json:"content_type"`
	Kind        AICallKind  `gorm:"not null;column:kind" json:"kind"`
	DurationMS  int64       `gorm:"column:duration_ms" json:"duration_ms"`
	Status      string      `gorm:"not null;column:status" json:"status"`
	Error       string      `gorm:"column:error" json:"error"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AICallLog) TableName() string {
	return "ai_call_log"
}
