package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-backend/internal/services"
)

type ShareHandler struct {
	shareService services.ShareService
}

func NewShareHandler(shareService services.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

func (sh *ShareHandler) Create(c *gin.Context) {
	projectID, ok := parseIDParam(c, "projectID")
	if !ok {
		return
	}
	share, err := sh.shareService.CreateShare(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, share)
}

func (sh *ShareHandler) ListByProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "projectID")
	if !ok {
		return
	}
	shares, err := sh.shareService.ListShares(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, shares)
}

func (sh *ShareHandler) Revoke(c *gin.Context) {
	shareID, ok := parseIDParam(c, "shareID")
	if !ok {
		return
	}
	if err := sh.shareService.RevokeShare(c.Request.Context(), shareID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"revoked": true})
}

// GetPublic serves the frozen canvas for a share token. Unauthenticated.
func (sh *ShareHandler) GetPublic(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		RespondError(c, http.StatusBadRequest, "invalid_token", nil)
		return
	}
	share, err := sh.shareService.GetSharedCanvas(c.Request.Context(), token)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"nodes":    share.Nodes,
		"edges":    share.Edges,
		"viewport": share.Viewport,
	})
}
