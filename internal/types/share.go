package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Share struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`

	Token string `gorm:"not null;uniqueIndex;column:token" json:"token"`

	// Full canvas snapshot frozen at share time.
	Nodes    datatypes.JSON `gorm:"column:nodes" json:"nodes"`
	Edges    datatypes.JSON `gorm:"column:edges" json:"edges"`
	Viewport datatypes.JSON `gorm:"column:viewport" json:"viewport"`

	ViewCount int64 `gorm:"not null;default:0;column:view_count" json:"view_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Share) TableName() string {
	return "share"
}
