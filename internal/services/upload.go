package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/types"
)

// MaxUploadBytes caps product image uploads.
const MaxUploadBytes = 10 << 20

type UploadService interface {
	UploadProductImage(ctx context.Context, productID uuid.UUID, role types.ProductImageRole, raw []byte) (*types.Product, error)
}

type uploadService struct {
	db             *gorm.DB
	log            *logger.Logger
	productService ProductService
	bucketService  BucketService
}

func NewUploadService(db *gorm.DB, log *logger.Logger, productService ProductService, bucketService BucketService) UploadService {
	return &uploadService{
		db:             db,
		log:            log.With("service", "UploadService"),
		productService: productService,
		bucketService:  bucketService,
	}
}

var allowedImageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// UploadProductImage validates the payload by sniffing its real content
// type, stores it under a versioned key, and appends it to the product's
// image list.
func (us *uploadService) UploadProductImage(ctx context.Context, productID uuid.UUID, role types.ProductImageRole, raw []byte) (*types.Product, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalid)
	}
	if len(raw) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalid, MaxUploadBytes)
	}

	contentType := http.DetectContentType(raw)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image type %s", ErrInvalid, contentType)
	}

	// Ownership check happens inside the product service.
	product, err := us.productService.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	switch role {
	case types.ProductImageRoleMain, types.ProductImageRoleAngle, types.ProductImageRoleDetail:
	case "":
		// The first image becomes the main shot; later ones are angles.
		role = types.ProductImageRoleAngle
		if len(product.Images) == 0 || string(product.Images) == "[]" || string(product.Images) == "null" {
			role = types.ProductImageRoleMain
		}
	default:
		return nil, fmt.Errorf("%w: unknown image role %q", ErrInvalid, role)
	}

	key := fmt.Sprintf("product_image/%s/%d.%s", productID.String(), time.Now().UnixNano(), ext)
	if err := us.bucketService.UploadFile(ctx, key, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}

	image := types.ProductImage{
		URL:       us.bucketService.GetPublicURL(key),
		BucketKey: key,
		Role:      role,
	}
	return us.productService.AppendImages(ctx, productID, []types.ProductImage{image})
}
