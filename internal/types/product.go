package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProductImageRole string

const (
	ProductImageRoleMain   ProductImageRole = "main"
	ProductImageRoleAngle  ProductImageRole = "angle"
	ProductImageRoleDetail ProductImageRole = "detail"
)

// ProductImage is one element of the Images JSON column.
type ProductImage struct {
	URL       string           `json:"url"`
	BucketKey string           `json:"bucket_key"`
	Role      ProductImageRole `json:"role"`
}

type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index;column:project_id" json:"project_id"`

	Title string `gorm:"column:title" json:"title"`
	ASIN  string `gorm:"column:asin" json:"asin"`

	Images datatypes.JSON `gorm:"column:images" json:"images"`

	// Per-node metadata edited on the canvas. Takes priority over the
	// legacy fields below during prompt assembly.
	Name           string `gorm:"column:name" json:"name"`
	KeyFeatures    string `gorm:"column:key_features" json:"key_features"`
	TargetKeywords string `gorm:"column:target_keywords" json:"target_keywords"`
	TargetAudience string `gorm:"column:target_audience" json:"target_audience"`
	Category       string `gorm:"column:category" json:"category"`

	// Legacy structured fields kept for older rows.
	Features       datatypes.JSON `gorm:"column:features" json:"features"`
	Specifications datatypes.JSON `gorm:"column:specifications" json:"specifications"`
	Keywords       datatypes.JSON `gorm:"column:keywords" json:"keywords"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
