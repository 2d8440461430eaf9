package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/metrics"
)

const dispatchFailedMessage = "failed to dispatch generation job"

type mediaItemStore interface {
	Create(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error)
	Fail(ctx context.Context, id uuid.UUID, version int, failed models.MediaItemFailure) (bool, error)
}

type workspaceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

type sourceAssetReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.SourceAsset, error)
}

type jobDispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Service accepts generation requests and hands them to the worker.
type Service interface {
	CreateJob(ctx context.Context, actor *models.User, kind Kind, req GenerateRequest) (*models.MediaItem, error)
}

type service struct {
	items      mediaItemStore
	workspaces workspaceReader
	assets     sourceAssetReader
	dispatcher jobDispatcher
	metrics    *metrics.GenerationMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService constructs the job intake service.
func NewService(items mediaItemStore, workspaces workspaceReader, assets sourceAssetReader, dispatcher jobDispatcher, m *metrics.GenerationMetrics, logg *logger.Logger) (Service, error) {
	if items == nil {
		return nil, fmt.Errorf("media item store required")
	}
	if workspaces == nil {
		return nil, fmt.Errorf("workspace repository required")
	}
	if assets == nil {
		return nil, fmt.Errorf("source asset repository required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("job dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		items:      items,
		workspaces: workspaces,
		assets:     assets,
		dispatcher: dispatcher,
		metrics:    m,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// CreateJob writes the PROCESSING placeholder and publishes the job. It
// returns the placeholder without waiting for the generation.
func (s *service) CreateJob(ctx context.Context, actor *models.User, kind Kind, req GenerateRequest) (*models.MediaItem, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req.normalize(kind)
	if err := req.validate(kind); err != nil {
		return nil, err
	}
	if err := s.authorizeWorkspace(ctx, actor, req.WorkspaceID); err != nil {
		return nil, err
	}

	refs, assetLinks, err := s.resolveSourceAssets(ctx, actor, req.SourceAssets)
	if err != nil {
		return nil, err
	}
	parentRefs, parentLinks, parentID, err := s.resolveSourceMediaItems(ctx, actor, req.WorkspaceID, req.SourceMediaItems)
	if err != nil {
		return nil, err
	}
	refs = append(refs, parentRefs...)

	placeholder := &models.MediaItem{
		Record:                models.Record{ID: uuid.New()},
		UserID:                actor.ID,
		UserEmail:             actor.Email,
		WorkspaceID:           req.WorkspaceID,
		MimeType:              outputMimeType(kind),
		Model:                 req.Model,
		Prompt:                req.Prompt,
		OriginalPrompt:        req.Prompt,
		NegativePrompt:        req.NegativePrompt,
		NumMedia:              req.NumberOfMedia,
		AspectRatio:           req.AspectRatio,
		Style:                 req.Style,
		Lighting:              req.Lighting,
		ColorAndTone:          req.ColorAndTone,
		Composition:           req.Composition,
		AddWatermark:          req.AddWatermark,
		GenerateAudio:         req.GenerateAudio,
		DurationSeconds:       req.DurationSeconds,
		Seed:                  req.Seed,
		Status:                enums.JobStatusProcessing,
		Version:               1,
		GCSURIs:               []string{},
		ThumbnailURIs:         []string{},
		SourceAssets:          assetLinks,
		SourceMediaItems:      parentLinks,
		ParentMediaItemID:     parentID,
		CreatedFromTemplateID: req.TemplateID,
	}

	logCtx := s.logg.WithMediaItemID(ctx, placeholder.ID.String())
	logCtx = s.logg.WithWorkspaceID(logCtx, req.WorkspaceID.String())

	created, err := s.items.Create(ctx, placeholder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create generation placeholder")
	}

	job := Job{
		MediaItemID: created.ID,
		Kind:        kind,
		Attempt:     1,
		References:  refs,
		EnqueuedAt:  s.now().UTC(),

		EditMode:     req.EditMode,
		MaskMode:     req.MaskMode,
		MaskDilation: req.MaskDilation,
	}
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		s.logg.Error(logCtx, "dispatch generation job", err)
		if _, failErr := s.items.Fail(ctx, created.ID, created.Version, models.MediaItemFailure{ErrorMessage: dispatchFailedMessage}); failErr != nil {
			s.logg.Error(logCtx, "mark undispatched job failed", failErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, dispatchFailedMessage)
	}

	s.metrics.IncSubmitted(kind.String(), req.Model.String())
	s.logg.Info(logCtx, "generation job dispatched")
	return created, nil
}

func (s *service) authorizeWorkspace(ctx context.Context, actor *models.User, workspaceID uuid.UUID) error {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "workspace not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load workspace")
	}
	if actor.HasRole(enums.UserRoleAdmin) || ws.IsMember(actor) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this workspace")
}

func (s *service) resolveSourceAssets(ctx context.Context, actor *models.User, inputs []SourceAssetInput) ([]JobReference, []models.SourceAssetLink, error) {
	refs := make([]JobReference, 0, len(inputs))
	links := make([]models.SourceAssetLink, 0, len(inputs))
	for _, in := range inputs {
		asset, err := s.assets.FindByID(ctx, in.AssetID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("source asset %s not found", in.AssetID))
			}
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load source asset")
		}
		if !canUseAsset(actor, asset) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("source asset %s is not accessible", in.AssetID))
		}
		refs = append(refs, JobReference{URI: asset.GCSURI, MimeType: asset.MimeType, Role: in.Role})
		links = append(links, models.SourceAssetLink{AssetID: asset.ID, Role: in.Role})
	}
	return refs, links, nil
}

func (s *service) resolveSourceMediaItems(ctx context.Context, actor *models.User, workspaceID uuid.UUID, inputs []SourceMediaItemInput) ([]JobReference, []models.SourceMediaItemLink, *uuid.UUID, error) {
	refs := make([]JobReference, 0, len(inputs))
	links := make([]models.SourceMediaItemLink, 0, len(inputs))
	var parentID *uuid.UUID
	for _, in := range inputs {
		parent, err := s.items.FindByID(ctx, in.MediaItemID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("media item %s not found", in.MediaItemID))
			}
			return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load source media item")
		}
		if parent.WorkspaceID != workspaceID && parent.UserID != actor.ID && !actor.HasRole(enums.UserRoleAdmin) {
			return nil, nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("media item %s is not accessible", in.MediaItemID))
		}
		if parent.Status != enums.JobStatusCompleted {
			return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("media item %s has not completed", in.MediaItemID))
		}
		if in.MediaIndex >= len(parent.GCSURIs) {
			return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "media_index out of range").WithDetails(map[string]any{
				"media_item_id": in.MediaItemID,
				"media_index":   in.MediaIndex,
				"available":     len(parent.GCSURIs),
			})
		}
		refs = append(refs, JobReference{
			URI:      parent.GCSURIs[in.MediaIndex],
			MimeType: parent.MimeType.String(),
			Role:     in.Role,
		})
		links = append(links, models.SourceMediaItemLink{MediaItemID: parent.ID, MediaIndex: in.MediaIndex, Role: in.Role})
		if parentID == nil {
			id := parent.ID
			parentID = &id
		}
	}
	return refs, links, parentID, nil
}

func canUseAsset(actor *models.User, asset *models.SourceAsset) bool {
	if asset.Scope == enums.AssetScopeSystem || asset.UserID == actor.ID {
		return true
	}
	return actor.HasRole(enums.UserRoleAdmin)
}

func outputMimeType(kind Kind) enums.MimeType {
	if kind == KindVideo {
		return enums.MimeTypeMP4
	}
	return enums.MimeTypePNG
}
