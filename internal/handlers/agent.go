package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-backend/internal/services"
)

type AgentHandler struct {
	agentService      services.AgentService
	generationService services.GenerationService
}

func NewAgentHandler(agentService services.AgentService, generationService services.GenerationService) *AgentHandler {
	return &AgentHandler{agentService: agentService, generationService: generationService}
}

func (ah *AgentHandler) Get(c *gin.Context) {
	agentID, ok := parseIDParam(c, "agentID")
	if !ok {
		return
	}
	agent, err := ah.agentService.GetAgent(c.Request.Context(), agentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agent)
}

func (ah *AgentHandler) ListByProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}
	agents, err := ah.agentService.ListAgentsByProduct(c.Request.Context(), productID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agents)
}

func (ah *AgentHandler) Update(c *gin.Context) {
	agentID, ok := parseIDParam(c, "agentID")
	if !ok {
		return
	}
	var patch services.AgentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	agent, err := ah.agentService.UpdateAgent(c.Request.Context(), agentID, patch)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agent)
}

func (ah *AgentHandler) Generate(c *gin.Context) {
	agentID, ok := parseIDParam(c, "agentID")
	if !ok {
		return
	}
	agent, err := ah.generationService.Generate(c.Request.Context(), agentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agent)
}

func (ah *AgentHandler) GenerateAll(c *gin.Context) {
	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}
	agents, err := ah.generationService.GenerateAll(c.Request.Context(), productID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agents)
}

func (ah *AgentHandler) Refine(c *gin.Context) {
	agentID, ok := parseIDParam(c, "agentID")
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	agent, err := ah.generationService.Refine(c.Request.Context(), agentID, req.Message)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agent)
}
