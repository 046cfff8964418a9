package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-backend/internal/services"
	"github.com/listforge/listforge-backend/internal/types"
)

type ProductHandler struct {
	productService services.ProductService
	uploadService  services.UploadService
}

func NewProductHandler(productService services.ProductService, uploadService services.UploadService) *ProductHandler {
	return &ProductHandler{productService: productService, uploadService: uploadService}
}

func (ph *ProductHandler) Create(c *gin.Context) {
	var input services.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	product, err := ph.productService.CreateProduct(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, product)
}

func (ph *ProductHandler) ListByProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "projectID")
	if !ok {
		return
	}
	products, err := ph.productService.ListProducts(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, products)
}

func (ph *ProductHandler) Get(c *gin.Context) {
	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}
	product, err := ph.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, product)
}

func (ph *ProductHandler) Update(c *gin.Context) {
	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}
	var patch services.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	product, err := ph.productService.UpdateProduct(c.Request.Context(), productID, patch)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, product)
}

func (ph *ProductHandler) Delete(c *gin.Context) {
	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}
	if err := ph.productService.DeleteProduct(c.Request.Context(), productID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (ph *ProductHandler) UploadImage(c *gin.Context) {
	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, services.MaxUploadBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}

	role := types.ProductImageRole(c.PostForm("role"))
	product, err := ph.uploadService.UploadProductImage(c.Request.Context(), productID, role, raw)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, product)
}
