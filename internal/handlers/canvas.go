package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-backend/internal/canvas"
	"github.com/listforge/listforge-backend/internal/services"
)

type CanvasHandler struct {
	canvasService services.CanvasService
}

func NewCanvasHandler(canvasService services.CanvasService) *CanvasHandler {
	return &CanvasHandler{canvasService: canvasService}
}

func (ch *CanvasHandler) Load(c *gin.Context) {
	projectID, ok := parseIDParam(c, "projectID")
	if !ok {
		return
	}
	view, err := ch.canvasService.LoadCanvas(c.Request.Context(), projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

func (ch *CanvasHandler) Save(c *gin.Context) {
	projectID, ok := parseIDParam(c, "projectID")
	if !ok {
		return
	}
	var snapshot canvas.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := ch.canvasService.SaveCanvas(c.Request.Context(), projectID, snapshot); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"saved": true})
}
