package media

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/genmedia-backend/internal/enrich"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

type stubMediaRepo struct {
	items   map[uuid.UUID]*models.MediaItem
	lastReq pagination.Request
	page    *pagination.Page[models.MediaItem]
}

func (s *stubMediaRepo) FindByID(_ context.Context, id uuid.UUID) (*models.MediaItem, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media item not found")
}

func (s *stubMediaRepo) Search(_ context.Context, req pagination.Request, _ pagination.Bounds) (*pagination.Page[models.MediaItem], error) {
	s.lastReq = req
	if s.page == nil {
		return &pagination.Page[models.MediaItem]{Data: []models.MediaItem{}}, nil
	}
	return s.page, nil
}

type stubWorkspaces map[uuid.UUID]*models.Workspace

func (s stubWorkspaces) FindByID(_ context.Context, id uuid.UUID) (*models.Workspace, error) {
	if ws, ok := s[id]; ok {
		return ws, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workspace not found")
}

type stubPresenter struct{}

func (stubPresenter) Present(_ context.Context, item models.MediaItem) enrich.MediaItemResponse {
	return enrich.MediaItemResponse{ID: item.ID, Status: item.Status}
}

func (p stubPresenter) PresentAll(ctx context.Context, items []models.MediaItem) []enrich.MediaItemResponse {
	out := make([]enrich.MediaItemResponse, len(items))
	for i, item := range items {
		out[i] = p.Present(ctx, item)
	}
	return out
}

func newUser(roles ...string) *models.User {
	return &models.User{Record: models.Record{ID: uuid.New()}, Roles: pq.StringArray(roles)}
}

func filterValue(req pagination.Request, column string) (any, bool) {
	for _, f := range req.Filters {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

func TestGallerySearchForcesCompletedForNonAdmins(t *testing.T) {
	t.Parallel()

	member := newUser("user")
	wsID := uuid.New()
	repo := &stubMediaRepo{}
	workspaces := stubWorkspaces{wsID: {
		Record:  models.Record{ID: wsID},
		Scope:   enums.WorkspaceScopePrivate,
		Members: []models.WorkspaceMember{{UserID: member.ID, Role: enums.WorkspaceRoleViewer}},
	}}
	svc, err := NewService(repo, workspaces, stubPresenter{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	failed := enums.JobStatusFailed
	if _, err := svc.Search(context.Background(), member, SearchInput{WorkspaceID: wsID, Status: &failed}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	got, ok := filterValue(repo.lastReq, "status")
	if !ok || got != enums.JobStatusCompleted {
		t.Fatalf("expected completed status filter, got %v", got)
	}
	if got, _ := filterValue(repo.lastReq, "workspace_id"); got != wsID {
		t.Fatalf("expected workspace filter, got %v", got)
	}
}

func TestGallerySearchAdminKeepsStatus(t *testing.T) {
	t.Parallel()

	repo := &stubMediaRepo{}
	svc, err := NewService(repo, stubWorkspaces{}, stubPresenter{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	failed := enums.JobStatusFailed
	email := "  Someone@Example.com "
	_, err = svc.Search(context.Background(), newUser("admin"), SearchInput{WorkspaceID: uuid.New(), Status: &failed, UserEmail: &email})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got, _ := filterValue(repo.lastReq, "status"); got != enums.JobStatusFailed {
		t.Fatalf("expected failed status filter, got %v", got)
	}
	if got, _ := filterValue(repo.lastReq, "user_email"); got != "someone@example.com" {
		t.Fatalf("expected normalized email, got %v", got)
	}
}

func TestGallerySearchRejectsOutsiders(t *testing.T) {
	t.Parallel()

	wsID := uuid.New()
	workspaces := stubWorkspaces{wsID: {Record: models.Record{ID: wsID}, Scope: enums.WorkspaceScopePrivate}}
	svc, _ := NewService(&stubMediaRepo{}, workspaces, stubPresenter{})

	_, err := svc.Search(context.Background(), newUser("user"), SearchInput{WorkspaceID: wsID})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	_, err = svc.Search(context.Background(), newUser("user"), SearchInput{WorkspaceID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for unknown workspace, got %v", err)
	}
}

func TestGallerySearchValidation(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubMediaRepo{}, stubWorkspaces{}, stubPresenter{})
	admin := newUser("admin")

	cases := []struct {
		name  string
		input SearchInput
	}{
		{name: "missing workspace", input: SearchInput{}},
		{name: "limit zero", input: SearchInput{WorkspaceID: uuid.New(), Limit: intPtr(0)}},
		{name: "limit above max", input: SearchInput{WorkspaceID: uuid.New(), Limit: intPtr(101)}},
		{name: "bad mime", input: SearchInput{WorkspaceID: uuid.New(), MimeType: mimePtr("image/gif")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), admin, tc.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestGalleryGet(t *testing.T) {
	t.Parallel()

	owner := newUser("user")
	wsID := uuid.New()
	item := &models.MediaItem{Record: models.Record{ID: uuid.New()}, UserID: owner.ID, WorkspaceID: wsID, Status: enums.JobStatusCompleted}
	repo := &stubMediaRepo{items: map[uuid.UUID]*models.MediaItem{item.ID: item}}
	workspaces := stubWorkspaces{wsID: {Record: models.Record{ID: wsID}, Scope: enums.WorkspaceScopePrivate}}
	svc, _ := NewService(repo, workspaces, stubPresenter{})

	resp, err := svc.Get(context.Background(), owner, item.ID)
	if err != nil {
		t.Fatalf("Get as creator: %v", err)
	}
	if resp.ID != item.ID {
		t.Fatalf("unexpected id %s", resp.ID)
	}

	if _, err := svc.Get(context.Background(), newUser("user"), item.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), owner, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil, stubWorkspaces{}, stubPresenter{}); err == nil {
		t.Fatal("expected error for nil repo")
	}
	if _, err := NewService(&stubMediaRepo{}, nil, stubPresenter{}); err == nil {
		t.Fatal("expected error for nil workspaces")
	}
	if _, err := NewService(&stubMediaRepo{}, stubWorkspaces{}, nil); err == nil {
		t.Fatal("expected error for nil presenter")
	}
}

func intPtr(v int) *int { return &v }

func mimePtr(v string) *enums.MimeType {
	m := enums.MimeType(v)
	return &m
}
