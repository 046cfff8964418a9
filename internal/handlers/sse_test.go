package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/requestdata"
	"github.com/listforge/listforge-backend/internal/services"
	"github.com/listforge/listforge-backend/internal/sse"
	"github.com/listforge/listforge-backend/internal/types"
)

// fakeProjectService grants access to exactly one project.
type fakeProjectService struct {
	ownedID uuid.UUID
}

func (f *fakeProjectService) CreateProject(ctx context.Context, title string) (*types.Project, error) {
	return nil, services.ErrInvalid
}
func (f *fakeProjectService) ListProjects(ctx context.Context) ([]*types.Project, error) {
	return nil, nil
}
func (f *fakeProjectService) GetProject(ctx context.Context, projectID uuid.UUID) (*types.Project, error) {
	if projectID != f.ownedID {
		return nil, services.ErrForbidden
	}
	return &types.Project{ID: projectID}, nil
}
func (f *fakeProjectService) UpdateProject(ctx context.Context, projectID uuid.UUID, patch services.ProjectPatch) (*types.Project, error) {
	return nil, services.ErrInvalid
}
func (f *fakeProjectService) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	return services.ErrInvalid
}

func newStreamRequest(t *testing.T, userID uuid.UUID, projectID uuid.UUID, cancelled bool) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/sse/stream?project="+projectID.String(), nil)
	ctx := requestdata.WithRequestData(req.Context(), &requestdata.RequestData{UserID: userID})
	if cancelled {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		cancel()
	}
	return req.WithContext(ctx)
}

func newSSEFixture(t *testing.T) (*SSEHandler, uuid.UUID) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	ownedID := uuid.New()
	handler := NewSSEHandler(sse.NewHub(log), &fakeProjectService{ownedID: ownedID})
	return handler, ownedID
}

func TestStreamRejectsForeignProjectChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newSSEFixture(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newStreamRequest(t, uuid.New(), uuid.New(), false)

	handler.Stream(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "forbidden") {
		t.Fatalf("expected forbidden envelope, got %s", w.Body.String())
	}
}

func TestStreamServesOwnedProjectChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, ownedID := newSSEFixture(t)

	// The cancelled request context makes the stream return immediately
	// after subscribing, so the test does not block on the event loop.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newStreamRequest(t, uuid.New(), ownedID, true)

	handler.Stream(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q, want text/event-stream", ct)
	}
}
