package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/services"
	"github.com/listforge/listforge-backend/internal/sse"
)

type SSEHandler struct {
	hub            *sse.Hub
	projectService services.ProjectService
}

func NewSSEHandler(hub *sse.Hub, projectService services.ProjectService) *SSEHandler {
	return &SSEHandler{hub: hub, projectService: projectService}
}

// Stream subscribes the client to its user channel plus any project
// channels passed as repeated "project" query params, then serves the
// event stream until the connection drops. Project channels carry drafts
// and status events, so each requested project is checked for ownership
// before the subscription is added.
func (sh *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var projectIDs []uuid.UUID
	for _, p := range c.QueryArray("project") {
		projectID, err := parseProjectParam(p)
		if err != nil {
			continue
		}
		if _, err := sh.projectService.GetProject(c.Request.Context(), projectID); err != nil {
			RespondServiceError(c, err)
			return
		}
		projectIDs = append(projectIDs, projectID)
	}

	client := sh.hub.NewClient(rd.UserID)
	sh.hub.AddChannel(client, sse.UserChannel(rd.UserID))
	for _, projectID := range projectIDs {
		sh.hub.AddChannel(client, sse.ProjectChannel(projectID))
	}
	defer sh.hub.CloseClient(client)

	sh.hub.ServeHTTP(c.Writer, c.Request, client)
}

func parseProjectParam(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}
