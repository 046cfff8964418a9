package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/sse"
	"github.com/listforge/listforge-backend/internal/types"
)

// ---- in-memory fakes ----

type fakeUserRepo struct {
	users map[uuid.UUID]*types.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	for _, u := range users {
		f.users[u.ID] = u
	}
	return users, nil
}
func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
func (f *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	return false, nil
}
func (f *fakeUserRepo) PatchByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*types.Product
}

func (f *fakeProductRepo) Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error) {
	for _, p := range products {
		f.products[p.ID] = p
	}
	return products, nil
}
func (f *fakeProductRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Product, error) {
	var out []*types.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakeProductRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Product, error) {
	var out []*types.Product
	for _, p := range f.products {
		for _, id := range ids {
			if p.ProjectID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}
func (f *fakeProductRepo) PatchByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return nil
}
func (f *fakeProductRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(f.products, id)
	}
	return nil
}

type fakeAgentRepo struct {
	mu     sync.Mutex
	agents map[uuid.UUID]*types.Agent
}

func (f *fakeAgentRepo) Create(ctx context.Context, tx *gorm.DB, agents []*types.Agent) ([]*types.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range agents {
		f.agents[a.ID] = a
	}
	return agents, nil
}
func (f *fakeAgentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Agent
	for _, id := range ids {
		if a, ok := f.agents[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}
func (f *fakeAgentRepo) GetByProductIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Agent
	for _, a := range f.agents {
		for _, id := range ids {
			if a.ProductID == id {
				cp := *a
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}
func (f *fakeAgentRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Agent
	for _, a := range f.agents {
		for _, id := range ids {
			if a.ProjectID == id {
				cp := *a
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}
func (f *fakeAgentRepo) PatchByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[id]
	if !ok {
		return fmt.Errorf("agent %s not found", id)
	}
	for k, v := range fields {
		switch k {
		case "status":
			a.Status = v.(types.AgentStatus)
		case "error_message":
			a.ErrorMessage = v.(string)
		case "draft":
			a.Draft = v.(string)
		case "image_url":
			a.ImageURL = v.(string)
		case "image_bucket_key":
			a.ImageBucketKey = v.(string)
		case "chat_history":
			a.ChatHistory = v.(datatypes.JSON)
		case "connections":
			a.Connections = v.(datatypes.JSON)
		case "position_x":
			a.PositionX = v.(float64)
		case "position_y":
			a.PositionY = v.(float64)
		case "updated_at":
			a.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}
func (f *fakeAgentRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.agents, id)
	}
	return nil
}

type fakeBrandKitRepo struct {
	kits map[uuid.UUID]*types.BrandKit
}

func (f *fakeBrandKitRepo) Create(ctx context.Context, tx *gorm.DB, kits []*types.BrandKit) ([]*types.BrandKit, error) {
	for _, k := range kits {
		f.kits[k.ID] = k
	}
	return kits, nil
}
func (f *fakeBrandKitRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.BrandKit, error) {
	var out []*types.BrandKit
	for _, id := range ids {
		if k, ok := f.kits[id]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}
func (f *fakeBrandKitRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.BrandKit, error) {
	var out []*types.BrandKit
	for _, k := range f.kits {
		for _, id := range ids {
			if k.ProjectID == id {
				out = append(out, k)
			}
		}
	}
	return out, nil
}
func (f *fakeBrandKitRepo) PatchByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return nil
}
func (f *fakeBrandKitRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return nil
}

type fakeAICallLogRepo struct {
	mu      sync.Mutex
	entries []*types.AICallLog
}

func (f *fakeAICallLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.AICallLog) ([]*types.AICallLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, logs...)
	return logs, nil
}
func (f *fakeAICallLogRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.AICallLog, error) {
	return f.entries, nil
}

type fakeAIClient struct {
	textErr   error
	textOut   string
	imageErr  error
	imageOut  []byte
	editErr   error
	textCalls []string
}

func (f *fakeAIClient) GenerateText(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	f.textCalls = append(f.textCalls, user)
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.textOut, nil
}
func (f *fakeAIClient) GenerateTextWithImages(ctx context.Context, system, user string, imageURLs []string, maxTokens int, temperature float64) (string, error) {
	return f.GenerateText(ctx, system, user, maxTokens, temperature)
}
func (f *fakeAIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return f.imageOut, nil
}
func (f *fakeAIClient) EditImage(ctx context.Context, prompt string, sourceImages [][]byte) ([]byte, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	return f.imageOut, nil
}

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeBucket) UploadFile(ctx context.Context, key string, file io.Reader) error {
	raw, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}
func (f *fakeBucket) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return raw, nil
}
func (f *fakeBucket) DeleteFile(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}
func (f *fakeBucket) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

// ---- fixtures ----

type genFixture struct {
	svc       *generationService
	userID    uuid.UUID
	projectID uuid.UUID
	productID uuid.UUID
	agents    *fakeAgentRepo
	ai        *fakeAIClient
	bucket    *fakeBucket
	calls     *fakeAICallLogRepo
	ctx       context.Context
}

func newGenFixture(t *testing.T) *genFixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	userID := uuid.New()
	projectID := uuid.New()
	productID := uuid.New()

	users := &fakeUserRepo{users: map[uuid.UUID]*types.User{
		userID: {ID: userID, DefaultTargetAudience: "profile audience"},
	}}
	products := &fakeProductRepo{products: map[uuid.UUID]*types.Product{
		productID: {
			ID: productID, UserID: userID, ProjectID: projectID,
			Title: "Acme Mug", Name: "Acme Mug", KeyFeatures: "Insulated, 12oz",
		},
	}}
	agents := &fakeAgentRepo{agents: map[uuid.UUID]*types.Agent{}}
	for _, ct := range types.AllContentTypes {
		a := &types.Agent{
			ID: uuid.New(), UserID: userID, ProductID: productID, ProjectID: projectID,
			ContentType: ct, Status: types.AgentStatusIdle,
		}
		agents.agents[a.ID] = a
	}
	kits := &fakeBrandKitRepo{kits: map[uuid.UUID]*types.BrandKit{}}
	calls := &fakeAICallLogRepo{}
	ai := &fakeAIClient{textOut: "generated copy", imageOut: []byte("png-bytes")}
	bucket := &fakeBucket{objects: map[string][]byte{}}

	svc := &generationService{
		log:           log,
		userRepo:      users,
		productRepo:   products,
		agentRepo:     agents,
		brandKitRepo:  kits,
		aiCallLogRepo: calls,
		aiClient:      ai,
		bucketService: bucket,
		hub:           sse.NewHub(log),
	}

	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
	return &genFixture{
		svc: svc, userID: userID, projectID: projectID, productID: productID,
		agents: agents, ai: ai, bucket: bucket, calls: calls, ctx: ctx,
	}
}

func (fx *genFixture) agentFor(t *testing.T, ct types.ContentType) *types.Agent {
	t.Helper()
	for _, a := range fx.agents.agents {
		if a.ContentType == ct {
			return a
		}
	}
	t.Fatalf("no agent for %s", ct)
	return nil
}

// claimAgent uses a gorm transaction; for the fakes a nil db would panic,
// so the tests drive runGeneration and the status writes directly where
// claiming is not the behavior under test.
func (fx *genFixture) claimDirect(t *testing.T, agent *types.Agent) *types.Agent {
	t.Helper()
	if agent.Status == types.AgentStatusGenerating {
		t.Fatal("agent already generating")
	}
	if err := fx.agents.PatchByID(fx.ctx, nil, agent.ID, map[string]any{
		"status":        types.AgentStatusGenerating,
		"error_message": "",
		"updated_at":    time.Now(),
	}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	got, _ := fx.agents.GetByIDs(fx.ctx, nil, []uuid.UUID{agent.ID})
	return got[0]
}

// ---- tests ----

func TestGenerateTextAgentLandsReadyWithDraft(t *testing.T) {
	fx := newGenFixture(t)
	agent := fx.claimDirect(t, fx.agentFor(t, types.ContentTypeTitle))

	if err := fx.svc.runGeneration(fx.ctx, agent); err != nil {
		t.Fatalf("runGeneration: %v", err)
	}

	got, _ := fx.agents.GetByIDs(fx.ctx, nil, []uuid.UUID{agent.ID})
	if got[0].Status != types.AgentStatusReady {
		t.Fatalf("status = %s, want ready", got[0].Status)
	}
	if got[0].Draft != "generated copy" {
		t.Fatalf("draft = %q", got[0].Draft)
	}
	if len(fx.calls.entries) == 0 || fx.calls.entries[0].Kind != types.AICallKindText {
		t.Fatalf("expected a text AI call log, got %+v", fx.calls.entries)
	}
}

func TestGeneratePromptUsesNodeMetadata(t *testing.T) {
	fx := newGenFixture(t)
	agent := fx.claimDirect(t, fx.agentFor(t, types.ContentTypeTitle))

	if err := fx.svc.runGeneration(fx.ctx, agent); err != nil {
		t.Fatalf("runGeneration: %v", err)
	}
	if len(fx.ai.textCalls) != 1 {
		t.Fatalf("expected one provider call, got %d", len(fx.ai.textCalls))
	}
	if !strings.Contains(fx.ai.textCalls[0], "Insulated, 12oz") {
		t.Fatalf("prompt missing node metadata:\n%s", fx.ai.textCalls[0])
	}
	if !strings.Contains(fx.ai.textCalls[0], "profile audience") {
		t.Fatalf("prompt missing profile fallback:\n%s", fx.ai.textCalls[0])
	}
}

func TestGenerateImageAgentStoresImageAndPrompt(t *testing.T) {
	fx := newGenFixture(t)
	fx.ai.textOut = "hero shot of a mug on white"
	agent := fx.claimDirect(t, fx.agentFor(t, types.ContentTypeHeroImage))

	if err := fx.svc.runGeneration(fx.ctx, agent); err != nil {
		t.Fatalf("runGeneration: %v", err)
	}

	got, _ := fx.agents.GetByIDs(fx.ctx, nil, []uuid.UUID{agent.ID})
	if got[0].Status != types.AgentStatusReady {
		t.Fatalf("status = %s, want ready", got[0].Status)
	}
	if got[0].Draft != "hero shot of a mug on white" {
		t.Fatalf("draft = %q", got[0].Draft)
	}
	if got[0].ImageURL == "" || got[0].ImageBucketKey == "" {
		t.Fatalf("image not stored: url=%q key=%q", got[0].ImageURL, got[0].ImageBucketKey)
	}
	if !strings.HasPrefix(got[0].ImageBucketKey, "agent_image/"+agent.ID.String()+"/") {
		t.Fatalf("unexpected bucket key %q", got[0].ImageBucketKey)
	}
	if _, ok := fx.bucket.objects[got[0].ImageBucketKey]; !ok {
		t.Fatal("image bytes missing from bucket")
	}
}

func TestGenerateImageFallsBackWhenEditFails(t *testing.T) {
	fx := newGenFixture(t)

	// Give the product a stored photo so the edit path is attempted.
	key := "product_image/src.png"
	fx.bucket.objects[key] = []byte("source")
	imagesJSON, _ := json.Marshal([]types.ProductImage{{URL: "https://cdn.test/" + key, BucketKey: key}})
	for _, p := range fx.svc.productRepo.(*fakeProductRepo).products {
		p.Images = datatypes.JSON(imagesJSON)
	}
	fx.ai.editErr = errors.New("openai http 500: edit unavailable")
	fx.ai.imageOut = []byte("generated-instead")

	agent := fx.claimDirect(t, fx.agentFor(t, types.ContentTypeLifestyleImage))
	if err := fx.svc.runGeneration(fx.ctx, agent); err != nil {
		t.Fatalf("runGeneration: %v", err)
	}

	got, _ := fx.agents.GetByIDs(fx.ctx, nil, []uuid.UUID{agent.ID})
	if got[0].Status != types.AgentStatusReady {
		t.Fatalf("status = %s, want ready after fallback", got[0].Status)
	}
	raw := fx.bucket.objects[got[0].ImageBucketKey]
	if !bytes.Equal(raw, []byte("generated-instead")) {
		t.Fatalf("stored image is not the fallback output: %q", raw)
	}

	// Both the failed edit and the successful generation are logged.
	var kinds []types.AICallKind
	for _, e := range fx.calls.entries {
		kinds = append(kinds, e.Kind)
	}
	var sawEdit, sawImage bool
	for _, k := range kinds {
		if k == types.AICallKindImageEdit {
			sawEdit = true
		}
		if k == types.AICallKindImage {
			sawImage = true
		}
	}
	if !sawEdit || !sawImage {
		t.Fatalf("expected edit and image call logs, got %v", kinds)
	}
}

func TestProviderErrorsClassified(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"openai http 400: content_policy_violation", "content policy"},
		{"openai http 429: Rate limit reached", "rate limiting"},
		{"openai http 429: insufficient_quota for this key", "quota"},
		{"context deadline exceeded", "took too long"},
	}
	for _, c := range cases {
		got := classifyProviderError(errors.New(c.raw))
		if !strings.Contains(strings.ToLower(got), strings.ToLower(c.want)) {
			t.Fatalf("classify(%q) = %q, want mention of %q", c.raw, got, c.want)
		}
	}
}

func TestUnknownProviderErrorPassesThroughVerbatim(t *testing.T) {
	raw := "openai http 400: model `gpt-nonexistent` does not exist"
	got := classifyProviderError(errors.New(raw))
	if got != raw {
		t.Fatalf("classify(%q) = %q, want the original text", raw, got)
	}
}

func TestGenerateFailureRecordsErrorStatus(t *testing.T) {
	fx := newGenFixture(t)
	fx.ai.textErr = errors.New("openai http 429: Rate limit reached")
	agent := fx.claimDirect(t, fx.agentFor(t, types.ContentTypeTitle))

	err := fx.svc.runGeneration(fx.ctx, agent)
	if err == nil {
		t.Fatal("expected provider error")
	}
	userMsg := classifyProviderError(err)
	if pErr := fx.agents.PatchByID(fx.ctx, nil, agent.ID, map[string]any{
		"status":        types.AgentStatusError,
		"error_message": userMsg,
		"updated_at":    time.Now(),
	}); pErr != nil {
		t.Fatalf("patch: %v", pErr)
	}

	got, _ := fx.agents.GetByIDs(fx.ctx, nil, []uuid.UUID{agent.ID})
	if got[0].Status != types.AgentStatusError {
		t.Fatalf("status = %s, want error", got[0].Status)
	}
	if !strings.Contains(got[0].ErrorMessage, "rate limiting") {
		t.Fatalf("error message not classified: %q", got[0].ErrorMessage)
	}
	if got[0].Draft != "" {
		t.Fatalf("failed generation must not write a draft, got %q", got[0].Draft)
	}
}

func TestConnectedUpstreamDraftsFeedImagePrompts(t *testing.T) {
	fx := newGenFixture(t)

	title := fx.agentFor(t, types.ContentTypeTitle)
	fx.agents.agents[title.ID].Draft = "Acme Mug 12oz Insulated Travel Mug"
	fx.agents.agents[title.ID].Status = types.AgentStatusReady

	hero := fx.agentFor(t, types.ContentTypeHeroImage)
	conns, _ := json.Marshal([]string{fx.productID.String(), title.ID.String()})
	fx.agents.agents[hero.ID].Connections = datatypes.JSON(conns)

	agent := fx.claimDirect(t, hero)
	if err := fx.svc.runGeneration(fx.ctx, agent); err != nil {
		t.Fatalf("runGeneration: %v", err)
	}
	if len(fx.ai.textCalls) != 1 {
		t.Fatalf("expected one prompt call, got %d", len(fx.ai.textCalls))
	}
	if !strings.Contains(fx.ai.textCalls[0], "Acme Mug 12oz Insulated Travel Mug") {
		t.Fatalf("hero prompt missing approved title:\n%s", fx.ai.textCalls[0])
	}
}

func TestUnconnectedSiblingDraftStaysOutOfPrompt(t *testing.T) {
	fx := newGenFixture(t)

	// The title is ready, but no edge connects it to the hero agent.
	title := fx.agentFor(t, types.ContentTypeTitle)
	fx.agents.agents[title.ID].Draft = "UNCONNECTED-TITLE-DRAFT"
	fx.agents.agents[title.ID].Status = types.AgentStatusReady

	agent := fx.claimDirect(t, fx.agentFor(t, types.ContentTypeHeroImage))
	if err := fx.svc.runGeneration(fx.ctx, agent); err != nil {
		t.Fatalf("runGeneration: %v", err)
	}
	if len(fx.ai.textCalls) != 1 {
		t.Fatalf("expected one prompt call, got %d", len(fx.ai.textCalls))
	}
	if strings.Contains(fx.ai.textCalls[0], "UNCONNECTED-TITLE-DRAFT") {
		t.Fatalf("hero prompt leaked an unconnected sibling draft:\n%s", fx.ai.textCalls[0])
	}
}

func TestRefinementAppendsChatHistory(t *testing.T) {
	fx := newGenFixture(t)
	fx.ai.textOut = "shorter title"

	agent := fx.agentFor(t, types.ContentTypeTitle)
	fx.agents.agents[agent.ID].Draft = "a very long title"
	fx.agents.agents[agent.ID].Status = types.AgentStatusReady

	claimed := fx.claimDirect(t, fx.agents.agents[agent.ID])
	if err := fx.svc.runRefinement(fx.ctx, claimed, "make it shorter"); err != nil {
		t.Fatalf("runRefinement: %v", err)
	}

	got, _ := fx.agents.GetByIDs(fx.ctx, nil, []uuid.UUID{agent.ID})
	if got[0].Draft != "shorter title" {
		t.Fatalf("draft = %q", got[0].Draft)
	}
	var history []types.ChatMessage
	if err := json.Unmarshal(got[0].ChatHistory, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected user+assistant turns, got %d", len(history))
	}
	if history[0].Role != "user" || history[0].Message != "make it shorter" {
		t.Fatalf("unexpected first turn: %+v", history[0])
	}
	if history[1].Role != "assistant" || history[1].Message != "shorter title" {
		t.Fatalf("unexpected second turn: %+v", history[1])
	}
}
