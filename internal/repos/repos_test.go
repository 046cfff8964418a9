package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/types"
)

func newTestDB(t *testing.T) (*gorm.DB, *logger.Logger) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Project{},
		&types.Product{},
		&types.Agent{},
		&types.BrandKit{},
		&types.BrandKitPreset{},
		&types.Share{},
		&types.CanvasState{},
		&types.AICallLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return gdb, log
}

func seedUser(t *testing.T, gdb *gorm.DB, log *logger.Logger) *types.User {
	t.Helper()
	user := &types.User{
		ID:        uuid.New(),
		Email:     uuid.New().String() + "@example.com",
		Password:  "hashed",
		FirstName: "Test",
		LastName:  "User",
	}
	if _, err := NewUserRepo(gdb, log).Create(context.Background(), nil, []*types.User{user}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestUserRepoEmailExists(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewUserRepo(gdb, log)
	ctx := context.Background()
	user := seedUser(t, gdb, log)

	exists, err := repo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Fatal("expected existing email to be found")
	}
	exists, err = repo.EmailExists(ctx, nil, "nobody@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if exists {
		t.Fatal("unknown email reported as existing")
	}
}

func TestUserRepoPatchByID(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewUserRepo(gdb, log)
	ctx := context.Background()
	user := seedUser(t, gdb, log)

	err := repo.PatchByID(ctx, nil, user.ID, map[string]any{
		"default_brand_name":      "Acme Co",
		"default_target_audience": "home baristas",
	})
	if err != nil {
		t.Fatalf("PatchByID: %v", err)
	}

	got, err := repo.GetByIDs(ctx, nil, []uuid.UUID{user.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs: %v (%d rows)", err, len(got))
	}
	if got[0].DefaultBrandName != "Acme Co" || got[0].DefaultTargetAudience != "home baristas" {
		t.Fatalf("patch not applied: %+v", got[0])
	}
	if got[0].FirstName != "Test" {
		t.Fatalf("patch clobbered unrelated field: %q", got[0].FirstName)
	}
}

func TestAgentRepoGetByProductIDs(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewAgentRepo(gdb, log)
	ctx := context.Background()

	userID := uuid.New()
	projectID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()

	var agents []*types.Agent
	for _, ct := range types.AllContentTypes {
		agents = append(agents, &types.Agent{
			ID: uuid.New(), UserID: userID, ProductID: productA, ProjectID: projectID,
			ContentType: ct, Status: types.AgentStatusIdle,
		})
	}
	agents = append(agents, &types.Agent{
		ID: uuid.New(), UserID: userID, ProductID: productB, ProjectID: projectID,
		ContentType: types.ContentTypeTitle, Status: types.AgentStatusIdle,
	})
	if _, err := repo.Create(ctx, nil, agents); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByProductIDs(ctx, nil, []uuid.UUID{productA})
	if err != nil {
		t.Fatalf("GetByProductIDs: %v", err)
	}
	if len(got) != len(types.AllContentTypes) {
		t.Fatalf("expected %d agents for product A, got %d", len(types.AllContentTypes), len(got))
	}
	for _, a := range got {
		if a.ProductID != productA {
			t.Fatalf("agent %s belongs to wrong product", a.ID)
		}
	}
}

func TestAgentRepoPatchStatusRoundTrip(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewAgentRepo(gdb, log)
	ctx := context.Background()

	agent := &types.Agent{
		ID: uuid.New(), UserID: uuid.New(), ProductID: uuid.New(), ProjectID: uuid.New(),
		ContentType: types.ContentTypeTitle, Status: types.AgentStatusIdle,
	}
	if _, err := repo.Create(ctx, nil, []*types.Agent{agent}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := repo.PatchByID(ctx, nil, agent.ID, map[string]any{
		"status":     types.AgentStatusReady,
		"draft":      "Acme Mug 12oz Insulated",
		"updated_at": time.Now(),
	})
	if err != nil {
		t.Fatalf("PatchByID: %v", err)
	}

	got, err := repo.GetByIDs(ctx, nil, []uuid.UUID{agent.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs: %v (%d rows)", err, len(got))
	}
	if got[0].Status != types.AgentStatusReady || got[0].Draft != "Acme Mug 12oz Insulated" {
		t.Fatalf("round trip mismatch: %+v", got[0])
	}
}

func TestShareRepoTokenLookupAndViewCount(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewShareRepo(gdb, log)
	ctx := context.Background()

	share := &types.Share{
		ID: uuid.New(), UserID: uuid.New(), ProjectID: uuid.New(),
		Token: uuid.New().String(),
	}
	if _, err := repo.Create(ctx, nil, []*types.Share{share}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByTokens(ctx, nil, []string{share.Token})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByTokens: %v (%d rows)", err, len(got))
	}

	if err := repo.IncrementViewCount(ctx, nil, share.ID, 3); err != nil {
		t.Fatalf("IncrementViewCount: %v", err)
	}
	if err := repo.IncrementViewCount(ctx, nil, share.ID, 2); err != nil {
		t.Fatalf("IncrementViewCount: %v", err)
	}

	got, err = repo.GetByIDs(ctx, nil, []uuid.UUID{share.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs: %v", err)
	}
	if got[0].ViewCount != 5 {
		t.Fatalf("view count = %d, want 5", got[0].ViewCount)
	}
}

func TestCanvasStateUpsertReplacesExistingRow(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewCanvasStateRepo(gdb, log)
	ctx := context.Background()

	projectID := uuid.New()
	userID := uuid.New()

	first := &types.CanvasState{
		ID: uuid.New(), UserID: userID, ProjectID: projectID,
		Nodes: []byte(`[{"id":"a"}]`),
	}
	if _, err := repo.Upsert(ctx, nil, first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	second := &types.CanvasState{
		ID: uuid.New(), UserID: userID, ProjectID: projectID,
		Nodes: []byte(`[{"id":"b"}]`),
	}
	if _, err := repo.Upsert(ctx, nil, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := repo.GetByProjectIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		t.Fatalf("GetByProjectIDs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one state per project, got %d", len(got))
	}
	if string(got[0].Nodes) != `[{"id":"b"}]` {
		t.Fatalf("upsert did not replace nodes: %s", got[0].Nodes)
	}
}

func TestBrandKitPresetClearDefaultForUser(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewBrandKitPresetRepo(gdb, log)
	ctx := context.Background()

	userID := uuid.New()
	a := &types.BrandKitPreset{ID: uuid.New(), UserID: userID, Name: "Warm", IsDefault: true}
	b := &types.BrandKitPreset{ID: uuid.New(), UserID: userID, Name: "Cool"}
	other := &types.BrandKitPreset{ID: uuid.New(), UserID: uuid.New(), Name: "Other", IsDefault: true}
	if _, err := repo.Create(ctx, nil, []*types.BrandKitPreset{a, b, other}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.ClearDefaultForUser(ctx, nil, userID); err != nil {
		t.Fatalf("ClearDefaultForUser: %v", err)
	}

	mine, err := repo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("GetByUserIDs: %v", err)
	}
	for _, p := range mine {
		if p.IsDefault {
			t.Fatalf("preset %s still default", p.Name)
		}
	}

	theirs, err := repo.GetByIDs(ctx, nil, []uuid.UUID{other.ID})
	if err != nil || len(theirs) != 1 {
		t.Fatalf("GetByIDs: %v", err)
	}
	if !theirs[0].IsDefault {
		t.Fatal("other user's default was cleared")
	}
}

func TestUserTokenRepoAccessTokenLookupAndDelete(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewUserTokenRepo(gdb, log)
	ctx := context.Background()

	token := &types.UserToken{
		ID: uuid.New(), UserID: uuid.New(),
		AccessToken:  "access-abc",
		RefreshToken: uuid.New().String(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	if _, err := repo.Create(ctx, nil, []*types.UserToken{token}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByAccessTokens(ctx, nil, []string{"access-abc"})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByAccessTokens: %v (%d rows)", err, len(got))
	}

	if err := repo.FullDeleteByIDs(ctx, nil, []uuid.UUID{token.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	got, err = repo.GetByAccessTokens(ctx, nil, []string{"access-abc"})
	if err != nil {
		t.Fatalf("GetByAccessTokens after delete: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("token not deleted: %d rows", len(got))
	}
}

func TestProjectRepoScopedToUser(t *testing.T) {
	gdb, log := newTestDB(t)
	repo := NewProjectRepo(gdb, log)
	ctx := context.Background()

	userID := uuid.New()
	mine := &types.Project{ID: uuid.New(), UserID: userID, Title: "Mine"}
	theirs := &types.Project{ID: uuid.New(), UserID: uuid.New(), Title: "Theirs"}
	if _, err := repo.Create(ctx, nil, []*types.Project{mine, theirs}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("GetByUserIDs: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Mine" {
		t.Fatalf("expected only the caller's project, got %+v", got)
	}
}
