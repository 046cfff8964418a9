package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/prompt"
	"github.com/listforge/listforge-backend/internal/repos"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/sse"
	"github.com/listforge/listforge-backend/internal/types"
)

type GenerationService interface {
	Generate(ctx context.Context, agentID uuid.UUID) (*types.Agent, error)
	GenerateAll(ctx context.Context, productID uuid.UUID) ([]*types.Agent, error)
	Refine(ctx context.Context, agentID uuid.UUID, instruction string) (*types.Agent, error)
}

type generationService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	productRepo   repos.ProductRepo
	agentRepo     repos.AgentRepo
	brandKitRepo  repos.BrandKitRepo
	aiCallLogRepo repos.AICallLogRepo
	aiClient      AIClient
	bucketService BucketService
	hub           *sse.Hub
}

func NewGenerationService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	productRepo repos.ProductRepo,
	agentRepo repos.AgentRepo,
	brandKitRepo repos.BrandKitRepo,
	aiCallLogRepo repos.AICallLogRepo,
	aiClient AIClient,
	bucketService BucketService,
	hub *sse.Hub,
) GenerationService {
	return &generationService{
		db:            db,
		log:           log.With("service", "GenerationService"),
		userRepo:      userRepo,
		productRepo:   productRepo,
		agentRepo:     agentRepo,
		brandKitRepo:  brandKitRepo,
		aiCallLogRepo: aiCallLogRepo,
		aiClient:      aiClient,
		bucketService: bucketService,
		hub:           hub,
	}
}

// Generate runs one agent through the full pipeline: claim the generating
// state, assemble the prompt, call the provider, persist the result and
// land on ready or error. The claim is done in its own transaction so a
// second concurrent Generate on the same agent gets a conflict.
func (gs *generationService) Generate(ctx context.Context, agentID uuid.UUID) (*types.Agent, error) {
	agent, err := gs.claimAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	gs.broadcastStatus(agent.ProjectID, agent.ID, types.AgentStatusGenerating, "")

	if genErr := gs.runGeneration(ctx, agent); genErr != nil {
		userMsg := classifyProviderError(genErr)
		gs.log.Error("generation failed", "agentID", agent.ID, "contentType", agent.ContentType, "error", genErr)
		_ = gs.agentRepo.PatchByID(ctx, nil, agent.ID, map[string]any{
			"status":        types.AgentStatusError,
			"error_message": userMsg,
			"updated_at":    time.Now(),
		})
		gs.broadcastStatus(agent.ProjectID, agent.ID, types.AgentStatusError, userMsg)
		return nil, fmt.Errorf("generation failed: %s", userMsg)
	}

	agents, err := gs.agentRepo.GetByIDs(ctx, nil, []uuid.UUID{agentID})
	if err != nil || len(agents) == 0 {
		return nil, fmt.Errorf("failed to reload agent: %w", err)
	}
	return agents[0], nil
}

// GenerateAll runs every agent of a product sequentially in the fixed
// content-type order, so text results are available as upstream context
// for the image types. A failed agent does not stop the rest.
func (gs *generationService) GenerateAll(ctx context.Context, productID uuid.UUID) ([]*types.Agent, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	agents, err := gs.agentRepo.GetByProductIDs(ctx, nil, []uuid.UUID{productID})
	if err != nil {
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}
	if len(agents) == 0 {
		return nil, ErrNotFound
	}

	byType := map[types.ContentType]*types.Agent{}
	for _, a := range agents {
		if a.UserID != rd.UserID {
			return nil, ErrForbidden
		}
		byType[a.ContentType] = a
	}

	var out []*types.Agent
	for _, ct := range types.AllContentTypes {
		agent, ok := byType[ct]
		if !ok {
			continue
		}
		result, gErr := gs.Generate(ctx, agent.ID)
		if gErr != nil {
			gs.log.Warn("generate-all: agent failed, continuing", "agentID", agent.ID, "contentType", ct, "error", gErr)
			failed, rErr := gs.agentRepo.GetByIDs(ctx, nil, []uuid.UUID{agent.ID})
			if rErr == nil && len(failed) > 0 {
				out = append(out, failed[0])
			}
			continue
		}
		out = append(out, result)
	}
	return out, nil
}

// Refine applies a chat instruction to the current draft. Image agents
// regenerate their image from the refined prompt.
func (gs *generationService) Refine(ctx context.Context, agentID uuid.UUID, instruction string) (*types.Agent, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is required", ErrInvalid)
	}

	agent, err := gs.claimAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	gs.broadcastStatus(agent.ProjectID, agent.ID, types.AgentStatusGenerating, "")

	if rErr := gs.runRefinement(ctx, agent, instruction); rErr != nil {
		userMsg := classifyProviderError(rErr)
		gs.log.Error("refinement failed", "agentID", agent.ID, "error", rErr)
		_ = gs.agentRepo.PatchByID(ctx, nil, agent.ID, map[string]any{
			"status":        types.AgentStatusError,
			"error_message": userMsg,
			"updated_at":    time.Now(),
		})
		gs.broadcastStatus(agent.ProjectID, agent.ID, types.AgentStatusError, userMsg)
		return nil, fmt.Errorf("refinement failed: %s", userMsg)
	}

	agents, err := gs.agentRepo.GetByIDs(ctx, nil, []uuid.UUID{agentID})
	if err != nil || len(agents) == 0 {
		return nil, fmt.Errorf("failed to reload agent: %w", err)
	}
	return agents[0], nil
}

// claimAgent flips the agent into generating, failing with a conflict if
// another request already holds it.
func (gs *generationService) claimAgent(ctx context.Context, agentID uuid.UUID) (*types.Agent, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}

	var agent *types.Agent
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agents, aErr := gs.agentRepo.GetByIDs(ctx, tx, []uuid.UUID{agentID})
		if aErr != nil {
			return fmt.Errorf("failed to load agent: %w", aErr)
		}
		if len(agents) == 0 {
			return ErrNotFound
		}
		agent = agents[0]
		if agent.UserID != rd.UserID {
			return ErrForbidden
		}
		if agent.Status == types.AgentStatusGenerating {
			return fmt.Errorf("%w: agent is already generating", ErrConflict)
		}
		return gs.agentRepo.PatchByID(ctx, tx, agent.ID, map[string]any{
			"status":        types.AgentStatusGenerating,
			"error_message": "",
			"updated_at":    time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	agent.Status = types.AgentStatusGenerating
	return agent, nil
}

func (gs *generationService) runGeneration(ctx context.Context, agent *types.Agent) error {
	pc, product, err := gs.buildPromptContext(ctx, agent)
	if err != nil {
		return err
	}

	p, err := prompt.Build(agent.ContentType, *pc)
	if err != nil {
		return err
	}

	if agent.ContentType.IsImage() {
		return gs.generateImage(ctx, agent, product, p)
	}
	return gs.generateText(ctx, agent, p)
}

func (gs *generationService) generateText(ctx context.Context, agent *types.Agent, p prompt.Prompt) error {
	started := time.Now()
	draft, err := gs.aiClient.GenerateText(ctx, p.System, p.User, p.MaxTokens, p.Temperature)
	gs.logAICall(ctx, agent, types.AICallKindText, started, err)
	if err != nil {
		return err
	}

	if pErr := gs.agentRepo.PatchByID(ctx, nil, agent.ID, map[string]any{
		"draft":      draft,
		"status":     types.AgentStatusReady,
		"updated_at": time.Now(),
	}); pErr != nil {
		return fmt.Errorf("failed to store draft: %w", pErr)
	}

	gs.hub.Broadcast(sse.Message{
		Channel: sse.ProjectChannel(agent.ProjectID),
		Event:   sse.EventAgentDraftUpdated,
		Data:    map[string]any{"agent_id": agent.ID, "draft": draft},
	})
	gs.broadcastStatus(agent.ProjectID, agent.ID, types.AgentStatusReady, "")
	return nil
}

// generateImage is a two-step pipeline: the text model writes the image
// prompt (seeing the product photos when available), then the image model
// renders it. Editing from the real product photos is preferred; plain
// generation is the fallback.
func (gs *generationService) generateImage(ctx context.Context, agent *types.Agent, product *types.Product, p prompt.Prompt) error {
	imageURLs := productImageURLs(product)

	started := time.Now()
	var imagePrompt string
	var err error
	if len(imageURLs) > 0 {
		imagePrompt, err = gs.aiClient.GenerateTextWithImages(ctx, p.System, p.User, imageURLs, p.MaxTokens, p.Temperature)
		gs.logAICall(ctx, agent, types.AICallKindVision, started, err)
	} else {
		imagePrompt, err = gs.aiClient.GenerateText(ctx, p.System, p.User, p.MaxTokens, p.Temperature)
		gs.logAICall(ctx, agent, types.AICallKindText, started, err)
	}
	if err != nil {
		return err
	}

	sources := gs.downloadProductImages(ctx, product)

	var raw []byte
	if len(sources) > 0 {
		started = time.Now()
		raw, err = gs.aiClient.EditImage(ctx, imagePrompt, sources)
		gs.logAICall(ctx, agent, types.AICallKindImageEdit, started, err)
		if err != nil {
			gs.log.Warn("image edit failed, falling back to generation", "agentID", agent.ID, "error", err)
			raw = nil
		}
	}
	if raw == nil {
		started = time.Now()
		raw, err = gs.aiClient.GenerateImage(ctx, imagePrompt)
		gs.logAICall(ctx, agent, types.AICallKindImage, started, err)
		if err != nil {
			return err
		}
	}

	key := fmt.Sprintf("agent_image/%s/%d.png", agent.ID.String(), time.Now().UnixNano())
	if upErr := gs.bucketService.UploadFile(ctx, key, bytes.NewReader(raw)); upErr != nil {
		return fmt.Errorf("failed to upload generated image: %w", upErr)
	}
	imageURL := gs.bucketService.GetPublicURL(key)

	oldKey := agent.ImageBucketKey

	if pErr := gs.agentRepo.PatchByID(ctx, nil, agent.ID, map[string]any{
		"draft":            imagePrompt,
		"image_url":        imageURL,
		"image_bucket_key": key,
		"status":           types.AgentStatusReady,
		"updated_at":       time.Now(),
	}); pErr != nil {
		return fmt.Errorf("failed to store image result: %w", pErr)
	}

	if oldKey != "" && oldKey != key {
		if dErr := gs.bucketService.DeleteFile(ctx, oldKey); dErr != nil {
			gs.log.Warn("failed to delete old agent image (ignored)", "key", oldKey, "error", dErr)
		}
	}

	gs.hub.Broadcast(sse.Message{
		Channel: sse.ProjectChannel(agent.ProjectID),
		Event:   sse.EventAgentImageUpdated,
		Data:    map[string]any{"agent_id": agent.ID, "image_url": imageURL},
	})
	gs.broadcastStatus(agent.ProjectID, agent.ID, types.AgentStatusReady, "")
	return nil
}

func (gs *generationService) runRefinement(ctx context.Context, agent *types.Agent, instruction string) error {
	pc, product, err := gs.buildPromptContext(ctx, agent)
	if err != nil {
		return err
	}

	var history []types.ChatMessage
	if len(agent.ChatHistory) > 0 {
		if uErr := json.Unmarshal(agent.ChatHistory, &history); uErr != nil {
			gs.log.Warn("failed to decode chat history, resetting", "agentID", agent.ID, "error", uErr)
			history = nil
		}
	}

	p, err := prompt.BuildRefinement(agent.ContentType, *pc, agent.Draft, history, instruction)
	if err != nil {
		return err
	}

	started := time.Now()
	refined, err := gs.aiClient.GenerateText(ctx, p.System, p.User, p.MaxTokens, p.Temperature)
	gs.logAICall(ctx, agent, types.AICallKindText, started, err)
	if err != nil {
		return err
	}

	now := time.Now()
	history = append(history,
		types.ChatMessage{Role: "user", Message: instruction, Timestamp: now},
		types.ChatMessage{Role: "assistant", Message: refined, Timestamp: now},
	)
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode chat history: %w", err)
	}

	fields := map[string]any{
		"draft":        refined,
		"chat_history": datatypes.JSON(historyJSON),
		"status":       types.AgentStatusReady,
		"updated_at":   time.Now(),
	}

	// For image agents, the refined text is a new image prompt; render it.
	if agent.ContentType.IsImage() {
		sources := gs.downloadProductImages(ctx, product)
		var raw []byte
		var imgErr error
		if len(sources) > 0 {
			started = time.Now()
			raw, imgErr = gs.aiClient.EditImage(ctx, refined, sources)
			gs.logAICall(ctx, agent, types.AICallKindImageEdit, started, imgErr)
		}
		if raw == nil {
			started = time.Now()
			raw, imgErr = gs.aiClient.GenerateImage(ctx, refined)
			gs.logAICall(ctx, agent, types.AICallKindImage, started, imgErr)
			if imgErr != nil {
				return imgErr
			}
		}
		key := fmt.Sprintf("agent_image/%s/%d.png", agent.ID.String(), time.Now().UnixNano())
		if upErr := gs.bucketService.UploadFile(ctx, key, bytes.NewReader(raw)); upErr != nil {
			return fmt.Errorf("failed to upload refined image: %w", upErr)
		}
		fields["image_url"] = gs.bucketService.GetPublicURL(key)
		fields["image_bucket_key"] = key
	}

	if pErr := gs.agentRepo.PatchByID(ctx, nil, agent.ID, fields); pErr != nil {
		return fmt.Errorf("failed to store refinement: %w", pErr)
	}

	gs.hub.Broadcast(sse.Message{
		Channel: sse.ProjectChannel(agent.ProjectID),
		Event:   sse.EventAgentDraftUpdated,
		Data:    map[string]any{"agent_id": agent.ID, "draft": refined},
	})
	gs.broadcastStatus(agent.ProjectID, agent.ID, types.AgentStatusReady, "")
	return nil
}

// buildPromptContext assembles the layered prompt inputs: the product's
// node metadata and legacy fields, the project brand kit, the owner's
// profile fallbacks, and ready drafts from upstream sibling agents.
func (gs *generationService) buildPromptContext(ctx context.Context, agent *types.Agent) (*prompt.Context, *types.Product, error) {
	products, err := gs.productRepo.GetByIDs(ctx, nil, []uuid.UUID{agent.ProductID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}
	if len(products) == 0 {
		return nil, nil, fmt.Errorf("%w: product", ErrNotFound)
	}
	product := products[0]

	pc := prompt.Context{
		Product: prompt.ProductFields{
			Name:           product.Name,
			Title:          product.Title,
			ASIN:           product.ASIN,
			KeyFeatures:    product.KeyFeatures,
			TargetKeywords: product.TargetKeywords,
			TargetAudience: product.TargetAudience,
			Category:       product.Category,
		},
		Upstream: map[string]string{},
	}

	decodeList := func(raw datatypes.JSON) []string {
		if len(raw) == 0 {
			return nil
		}
		var out []string
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil
		}
		return out
	}
	pc.Legacy = prompt.LegacyFields{
		Features:       decodeList(product.Features),
		Specifications: decodeList(product.Specifications),
		Keywords:       decodeList(product.Keywords),
	}

	users, err := gs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{agent.UserID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) > 0 {
		pc.Profile = prompt.ProfileFields{
			BrandName:      users[0].DefaultBrandName,
			BrandVoice:     users[0].DefaultBrandVoice,
			TargetAudience: users[0].DefaultTargetAudience,
		}
	}

	kits, err := gs.brandKitRepo.GetByProjectIDs(ctx, nil, []uuid.UUID{agent.ProjectID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load brand kit: %w", err)
	}
	if len(kits) > 0 {
		kit := kits[0]
		pc.Brand = &prompt.BrandFields{
			Name:    kit.BrandName,
			Voice:   kit.BrandVoice,
			Palette: describePalette(kit.Palette),
		}
	}

	siblings, err := gs.agentRepo.GetByProductIDs(ctx, nil, []uuid.UUID{agent.ProductID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sibling agents: %w", err)
	}
	// Only drafts from entities actually wired into this agent on the
	// canvas feed the prompt; a ready sibling without an edge stays out.
	connected := map[string]bool{}
	if len(agent.Connections) > 0 {
		var conns []string
		if uErr := json.Unmarshal(agent.Connections, &conns); uErr == nil {
			for _, c := range conns {
				connected[c] = true
			}
		}
	}
	for _, s := range siblings {
		if s.ID == agent.ID || !connected[s.ID.String()] || s.Status != types.AgentStatusReady {
			continue
		}
		if strings.TrimSpace(s.Draft) != "" && !s.ContentType.IsImage() {
			pc.Upstream[string(s.ContentType)] = s.Draft
		}
	}

	return &pc, product, nil
}

func (gs *generationService) downloadProductImages(ctx context.Context, product *types.Product) [][]byte {
	var images []types.ProductImage
	if len(product.Images) == 0 {
		return nil
	}
	if err := json.Unmarshal(product.Images, &images); err != nil {
		return nil
	}

	const maxSourceImages = 3
	var out [][]byte
	for _, img := range images {
		if img.BucketKey == "" {
			continue
		}
		raw, err := gs.bucketService.DownloadFile(ctx, img.BucketKey)
		if err != nil {
			gs.log.Warn("failed to download product image (skipped)", "key", img.BucketKey, "error", err)
			continue
		}
		out = append(out, raw)
		if len(out) == maxSourceImages {
			break
		}
	}
	return out
}

func (gs *generationService) logAICall(ctx context.Context, agent *types.Agent, kind types.AICallKind, started time.Time, callErr error) {
	status := "ok"
	errMsg := ""
	if callErr != nil {
		status = "error"
		errMsg = callErr.Error()
	}
	agentID := agent.ID
	entry := &types.AICallLog{
		ID:          uuid.New(),
		UserID:      agent.UserID,
		ProjectID:   agent.ProjectID,
		AgentID:     &agentID,
		ContentType: agent.ContentType,
		Kind:        kind,
		DurationMS:  time.Since(started).Milliseconds(),
		Status:      status,
		Error:       errMsg,
	}
	if _, err := gs.aiCallLogRepo.Create(ctx, nil, []*types.AICallLog{entry}); err != nil {
		gs.log.Warn("failed to write AI call log", "error", err)
	}
}

func (gs *generationService) broadcastStatus(projectID, agentID uuid.UUID, status types.AgentStatus, errMsg string) {
	data := map[string]any{"agent_id": agentID, "status": status}
	if errMsg != "" {
		data["error_message"] = errMsg
	}
	gs.hub.Broadcast(sse.Message{
		Channel: sse.ProjectChannel(projectID),
		Event:   sse.EventAgentStatusChanged,
		Data:    data,
	})
}

// classifyProviderError maps known provider failure categories onto the
// short messages shown in the node UI. Anything unrecognized passes
// through verbatim so the real reason is not lost.
func classifyProviderError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "content_policy") ||
		strings.Contains(msg, "content policy") ||
		strings.Contains(msg, "safety system"):
		return "The request was declined by the provider's content policy. Adjust the product details and try again."
	case strings.Contains(msg, "insufficient_quota") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "billing"):
		return "The AI provider quota is exhausted. Check the account's usage limits."
	case strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "http 429"):
		return "The AI provider is rate limiting requests. Wait a moment and try again."
	case strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout"):
		return "The AI provider took too long to respond. Try again."
	default:
		return err.Error()
	}
}

func describePalette(raw datatypes.JSON) string {
	if len(raw) == 0 {
		return ""
	}
	var palette types.Palette
	if err := json.Unmarshal(raw, &palette); err != nil {
		return ""
	}
	if len(palette.Colors) > 0 {
		return strings.Join(palette.Colors, ", ")
	}
	return palette.Preset
}

func productImageURLs(product *types.Product) []string {
	if len(product.Images) == 0 {
		return nil
	}
	var images []types.ProductImage
	if err := json.Unmarshal(product.Images, &images); err != nil {
		return nil
	}
	var urls []string
	for _, img := range images {
		if strings.TrimSpace(img.URL) != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}
