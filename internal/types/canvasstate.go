package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CanvasState is the persisted mirror of the client graph, written on the
// client's debounce timer.
type CanvasState struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:project_id" json:"project_id"`

	Nodes    datatypes.JSON `gorm:"column:nodes" json:"nodes"`
	Edges    datatypes.JSON `gorm:"column:edges" json:"edges"`
	Viewport datatypes.JSON `gorm:"column:viewport" json:"viewport"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CanvasState) TableName() string {
	return "canvas_state"
}
