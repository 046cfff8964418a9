package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-backend/internal/services"
)

type BrandKitHandler struct {
	brandKitService services.BrandKitService
}

func NewBrandKitHandler(brandKitService services.BrandKitService) *BrandKitHandler {
	return &BrandKitHandler{brandKitService: brandKitService}
}

func (bh *BrandKitHandler) Create(c *gin.Context) {
	var input services.BrandKitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	kit, err := bh.brandKitService.CreateBrandKit(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, kit)
}

func (bh *BrandKitHandler) GetByProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "projectID")
	if !ok {
		return
	}
	kit, err := bh.brandKitService.GetBrandKitByProject(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, kit)
}

func (bh *BrandKitHandler) Update(c *gin.Context) {
	kitID, ok := parseIDParam(c, "kitID")
	if !ok {
		return
	}
	var patch services.BrandKitPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	kit, err := bh.brandKitService.UpdateBrandKit(c.Request.Context(), kitID, patch)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, kit)
}

func (bh *BrandKitHandler) Delete(c *gin.Context) {
	kitID, ok := parseIDParam(c, "kitID")
	if !ok {
		return
	}
	if err := bh.brandKitService.DeleteBrandKit(c.Request.Context(), kitID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (bh *BrandKitHandler) CreatePreset(c *gin.Context) {
	var input services.PresetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	preset, err := bh.brandKitService.CreatePreset(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, preset)
}

func (bh *BrandKitHandler) ListPresets(c *gin.Context) {
	presets, err := bh.brandKitService.ListPresets(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, presets)
}

func (bh *BrandKitHandler) DeletePreset(c *gin.Context) {
	presetID, ok := parseIDParam(c, "presetID")
	if !ok {
		return
	}
	if err := bh.brandKitService.DeletePreset(c.Request.Context(), presetID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
