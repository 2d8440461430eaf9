package brandguidelines

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/genmedia-backend/internal/enrich"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
)

const pdfMimeType = "application/pdf"

type guidelineRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.BrandGuideline, error)
	FindByWorkspace(ctx context.Context, workspaceID *uuid.UUID) (*models.BrandGuideline, error)
	Replace(ctx context.Context, previous *uuid.UUID, next *models.BrandGuideline) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type workspaceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

type objectStore interface {
	Put(ctx context.Context, data []byte, path, contentType string) (string, error)
	Delete(ctx context.Context, uri string) error
}

type extractor interface {
	Extract(ctx context.Context, uris []string) (Extraction, error)
}

type presenter interface {
	BrandGuideline(ctx context.Context, g models.BrandGuideline) enrich.BrandGuidelineResponse
}

// CreateInput is one guideline PDF upload.
type CreateInput struct {
	Name        string
	WorkspaceID *uuid.UUID
	Filename    string
	Data        []byte
}

type Service interface {
	// Create stores, splits and extracts a guideline PDF, replacing any
	// guideline the workspace (or the global slot) already has.
	Create(ctx context.Context, actor *models.User, input CreateInput) (*enrich.BrandGuidelineResponse, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*enrich.BrandGuidelineResponse, error)
	GetByWorkspace(ctx context.Context, actor *models.User, workspaceID uuid.UUID) (*enrich.BrandGuidelineResponse, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
}

type ServiceParams struct {
	Repo       guidelineRepository
	Workspaces workspaceReader
	Store      objectStore
	Extractor  extractor
	Presenter  presenter
	Logger     *logger.Logger
	MaxBytes   int64
	ChunkBytes int64
}

type service struct {
	repo       guidelineRepository
	workspaces workspaceReader
	store      objectStore
	extractor  extractor
	presenter  presenter
	logg       *logger.Logger
	maxBytes   int64
	chunkBytes int64
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("brand guideline repository required")
	}
	if params.Workspaces == nil {
		return nil, fmt.Errorf("workspace repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Extractor == nil {
		return nil, fmt.Errorf("extractor required")
	}
	if params.Presenter == nil {
		return nil, fmt.Errorf("presenter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.MaxBytes <= 0 || params.ChunkBytes <= 0 {
		return nil, fmt.Errorf("guideline size limits must be positive")
	}
	return &service{
		repo:       params.Repo,
		workspaces: params.Workspaces,
		store:      params.Store,
		extractor:  params.Extractor,
		presenter:  params.Presenter,
		logg:       params.Logger,
		maxBytes:   params.MaxBytes,
		chunkBytes: params.ChunkBytes,
		now:        time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor *models.User, input CreateInput) (*enrich.BrandGuidelineResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required").
			WithDetails(map[string]string{"name": "required"})
	}
	if len(input.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot upload an empty file")
	}
	if int64(len(input.Data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeTooLarge, fmt.Sprintf("guideline PDF exceeds %d bytes", s.maxBytes))
	}
	if mt := http.DetectContentType(input.Data); !strings.HasPrefix(mt, pdfMimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file must be a PDF").
			WithDetails(map[string]string{"file": mt})
	}
	if err := s.authorizeManage(ctx, actor, input.WorkspaceID); err != nil {
		return nil, err
	}

	logCtx := ctx
	if input.WorkspaceID != nil {
		logCtx = s.logg.WithWorkspaceID(ctx, input.WorkspaceID.String())
	}

	parts, err := splitPDF(input.Data, s.chunkBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable PDF")
	}
	uris, err := s.uploadParts(ctx, input.WorkspaceID, input.Filename, parts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store guideline PDF")
	}
	s.logg.Info(s.logg.WithField(logCtx, "parts", len(uris)), "guideline PDF stored, extracting")

	extracted, err := s.extractor.Extract(ctx, uris)
	if err != nil {
		s.removeObjects(logCtx, uris)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "AI processing failed to extract data from the PDF")
	}

	previous, err := s.repo.FindByWorkspace(ctx, input.WorkspaceID)
	if err != nil {
		s.removeObjects(logCtx, uris)
		return nil, err
	}
	var previousID *uuid.UUID
	if previous != nil {
		previousID = &previous.ID
	}

	guideline := &models.BrandGuideline{
		Name:               name,
		WorkspaceID:        input.WorkspaceID,
		SourcePDFGCSURIs:   uris,
		ColorPalette:       nonNil(extracted.ColorPalette),
		GuidelineText:      extracted.GuidelineText,
		ToneOfVoiceSummary: extracted.ToneOfVoiceSummary,
		VisualStyleSummary: extracted.VisualStyleSummary,
	}
	if err := s.repo.Replace(ctx, previousID, guideline); err != nil {
		s.removeObjects(logCtx, uris)
		return nil, err
	}
	if previous != nil {
		s.logg.Info(s.logg.WithField(logCtx, "replaced_guideline_id", previous.ID.String()), "previous brand guideline replaced")
		s.removeObjects(logCtx, previous.SourcePDFGCSURIs)
	}

	resp := s.presenter.BrandGuideline(ctx, *guideline)
	return &resp, nil
}

func (s *service) uploadParts(ctx context.Context, workspaceID *uuid.UUID, filename string, parts [][]byte) ([]string, error) {
	folder := "global"
	if workspaceID != nil {
		folder = workspaceID.String()
	}
	base := path.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == "/" {
		base = "guideline.pdf"
	}
	prefix := fmt.Sprintf("%s-%s", s.now().UTC().Format("20060102150405"), uuid.NewString())

	uris := make([]string, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		name := prefix + "-" + base
		if len(parts) > 1 {
			name = fmt.Sprintf("%s-part-%d-%s", prefix, i+1, base)
		}
		g.Go(func() error {
			uri, err := s.store.Put(gctx, part, pkgstorage.JoinPath("brand-guidelines", folder, name), pdfMimeType)
			if err != nil {
				return err
			}
			uris[i] = uri
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var stored []string
		for _, u := range uris {
			if u != "" {
				stored = append(stored, u)
			}
		}
		s.removeObjects(ctx, stored)
		return nil, err
	}
	return uris, nil
}

// removeObjects deletes uris best-effort and logs every failure at once.
func (s *service) removeObjects(ctx context.Context, uris []string) {
	var errs error
	for _, uri := range uris {
		errs = multierr.Append(errs, s.store.Delete(context.WithoutCancel(ctx), uri))
	}
	if errs != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"failed": len(multierr.Errors(errs)),
			"error":  errs.Error(),
		}), "brand guideline objects not deleted")
	}
}

func (s *service) authorizeManage(ctx context.Context, actor *models.User, workspaceID *uuid.UUID) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if workspaceID == nil {
		if !actor.HasRole(enums.UserRoleAdmin) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only a system admin can manage global brand guidelines")
		}
		return nil
	}
	ws, err := s.workspaces.FindByID(ctx, *workspaceID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && actor.HasRole(enums.UserRoleAdmin) {
			return nil
		}
		return err
	}
	if !ws.CanManage(actor) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the workspace owner or an admin can manage its brand guideline")
	}
	return nil
}

func (s *service) authorizeRead(ctx context.Context, actor *models.User, workspaceID *uuid.UUID) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if workspaceID == nil {
		return nil
	}
	ws, err := s.workspaces.FindByID(ctx, *workspaceID)
	if err != nil {
		return err
	}
	if !ws.CanRead(actor) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this workspace")
	}
	return nil
}

func (s *service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*enrich.BrandGuidelineResponse, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, actor, g.WorkspaceID); err != nil {
		return nil, err
	}
	resp := s.presenter.BrandGuideline(ctx, *g)
	return &resp, nil
}

func (s *service) GetByWorkspace(ctx context.Context, actor *models.User, workspaceID uuid.UUID) (*enrich.BrandGuidelineResponse, error) {
	if err := s.authorizeRead(ctx, actor, &workspaceID); err != nil {
		return nil, err
	}
	g, err := s.repo.FindByWorkspace(ctx, &workspaceID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workspace has no brand guideline")
	}
	resp := s.presenter.BrandGuideline(ctx, *g)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeManage(ctx, actor, g.WorkspaceID); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "brand guideline not found")
	}
	s.removeObjects(s.logg.WithField(ctx, "guideline_id", id.String()), g.SourcePDFGCSURIs)
	return nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
