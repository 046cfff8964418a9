package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/repos"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/sse"
	"github.com/listforge/listforge-backend/internal/types"
)

// Claiming runs inside a real gorm transaction, so these tests back the
// service with in-memory sqlite and the real repos instead of the fakes.
type claimFixture struct {
	svc    *generationService
	db     *gorm.DB
	userID uuid.UUID
	agents map[types.ContentType]*types.Agent
	ai     *fakeAIClient
	ctx    context.Context
}

func newClaimFixture(t *testing.T) *claimFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.Project{},
		&types.Product{},
		&types.Agent{},
		&types.BrandKit{},
		&types.AICallLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	user := &types.User{
		ID:       uuid.New(),
		Email:    uuid.New().String() + "@example.com",
		Password: "hashed",
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	projectID := uuid.New()
	product := &types.Product{
		ID:        uuid.New(),
		UserID:    user.ID,
		ProjectID: projectID,
		Title:     "Acme Mug",
		Name:      "Acme Mug",
	}
	if err := gdb.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	agents := map[types.ContentType]*types.Agent{}
	for _, ct := range types.AllContentTypes {
		a := &types.Agent{
			ID:          uuid.New(),
			UserID:      user.ID,
			ProductID:   product.ID,
			ProjectID:   projectID,
			ContentType: ct,
			Status:      types.AgentStatusIdle,
		}
		if err := gdb.Create(a).Error; err != nil {
			t.Fatalf("seed agent: %v", err)
		}
		agents[ct] = a
	}

	ai := &fakeAIClient{textOut: "generated copy", imageOut: []byte("png-bytes")}
	svc := &generationService{
		db:            gdb,
		log:           log,
		userRepo:      repos.NewUserRepo(gdb, log),
		productRepo:   repos.NewProductRepo(gdb, log),
		agentRepo:     repos.NewAgentRepo(gdb, log),
		brandKitRepo:  repos.NewBrandKitRepo(gdb, log),
		aiCallLogRepo: repos.NewAICallLogRepo(gdb, log),
		aiClient:      ai,
		bucketService: &fakeBucket{objects: map[string][]byte{}},
		hub:           sse.NewHub(log),
	}
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: user.ID})
	return &claimFixture{svc: svc, db: gdb, userID: user.ID, agents: agents, ai: ai, ctx: ctx}
}

func TestGenerateClaimsIdleAgentAndLandsReady(t *testing.T) {
	fx := newClaimFixture(t)

	got, err := fx.svc.Generate(fx.ctx, fx.agents[types.ContentTypeTitle].ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Status != types.AgentStatusReady {
		t.Fatalf("status = %s, want ready", got.Status)
	}
	if got.Draft != "generated copy" {
		t.Fatalf("draft = %q", got.Draft)
	}
}

func TestGenerateConflictsWhenAgentAlreadyGenerating(t *testing.T) {
	fx := newClaimFixture(t)
	agent := fx.agents[types.ContentTypeTitle]

	if err := fx.db.Model(&types.Agent{}).Where("id = ?", agent.ID).
		Update("status", types.AgentStatusGenerating).Error; err != nil {
		t.Fatalf("mark generating: %v", err)
	}

	_, err := fx.svc.Generate(fx.ctx, agent.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if len(fx.ai.textCalls) != 0 {
		t.Fatalf("conflicting generate must not reach the provider, got %d calls", len(fx.ai.textCalls))
	}

	var stored types.Agent
	if err := fx.db.First(&stored, "id = ?", agent.ID).Error; err != nil {
		t.Fatalf("reload agent: %v", err)
	}
	if stored.Status != types.AgentStatusGenerating {
		t.Fatalf("status = %s, the holder's claim must survive", stored.Status)
	}
}

func TestGenerateRejectsForeignAgent(t *testing.T) {
	fx := newClaimFixture(t)
	stranger := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: uuid.New()})

	_, err := fx.svc.Generate(stranger, fx.agents[types.ContentTypeTitle].ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestGenerateAllRunsFixedContentTypeOrder(t *testing.T) {
	fx := newClaimFixture(t)
	productID := fx.agents[types.ContentTypeTitle].ProductID

	out, err := fx.svc.GenerateAll(fx.ctx, productID)
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if len(out) != len(types.AllContentTypes) {
		t.Fatalf("expected %d results, got %d", len(types.AllContentTypes), len(out))
	}
	for i, ct := range types.AllContentTypes {
		if out[i].ContentType != ct {
			t.Fatalf("result %d is %s, want %s", i, out[i].ContentType, ct)
		}
		if out[i].Status != types.AgentStatusReady {
			t.Fatalf("%s status = %s, want ready", ct, out[i].Status)
		}
	}
}
