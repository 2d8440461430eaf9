// Package upscale raises the resolution of stored images on request.
package upscale

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/internal/sourceassets"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
)

type upscaler interface {
	Upscale(ctx context.Context, req genai.UpscaleRequest) (genai.Artifact, error)
}

type objectStore interface {
	Put(ctx context.Context, data []byte, path, contentType string) (string, error)
}

type urlSigner interface {
	Sign(ctx context.Context, uri string) *string
}

type assetReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.SourceAsset, error)
}

type mediaReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error)
}

type workspaceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

// Request names one stored image by asset or by generation output.
type Request struct {
	AssetID       *uuid.UUID          `json:"asset_id,omitempty" validate:"required_without=MediaItemID,excluded_with=MediaItemID"`
	MediaItemID   *uuid.UUID          `json:"media_item_id,omitempty" validate:"required_without=AssetID"`
	MediaIndex    int                 `json:"media_index,omitempty" validate:"min=0"`
	UpscaleFactor enums.UpscaleFactor `json:"upscale_factor,omitempty" validate:"omitempty,enum"`
}

// Result is the upscaled copy.
type Result struct {
	GCSURI       string  `json:"gcs_uri"`
	MimeType     string  `json:"mime_type"`
	PresignedURL *string `json:"presigned_url"`
}

type ServiceParams struct {
	Model      upscaler
	Store      objectStore
	Signer     urlSigner
	Assets     assetReader
	Media      mediaReader
	Workspaces workspaceReader
	Logger     *logger.Logger
}

// Service upscales one image synchronously.
type Service struct {
	ServiceParams
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Model == nil:
		return nil, fmt.Errorf("upscale model required")
	case params.Store == nil:
		return nil, fmt.Errorf("object store required")
	case params.Signer == nil:
		return nil, fmt.Errorf("url signer required")
	case params.Assets == nil:
		return nil, fmt.Errorf("source asset repository required")
	case params.Media == nil:
		return nil, fmt.Errorf("media item repository required")
	case params.Workspaces == nil:
		return nil, fmt.Errorf("workspace repository required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Service{ServiceParams: params}, nil
}

func (s *Service) Upscale(ctx context.Context, actor *models.User, req Request) (*Result, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	factor := req.UpscaleFactor
	if factor == "" {
		factor = enums.UpscaleX2
	}
	if !factor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upscale_factor must be x2 or x4")
	}

	uri, mime, err := s.resolve(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if !enums.MimeType(mime).IsImage() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only images can be upscaled").WithDetails(map[string]string{"mime_type": mime})
	}
	loc, err := pkgstorage.ParseURI(uri)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "source image location")
	}
	objectID := uuid.NewString()
	prefix := pkgstorage.JoinPath("upscaled", actor.ID.String(), objectID)

	logCtx := s.Logger.WithFields(ctx, map[string]any{"gcs_uri": uri, "upscale_factor": factor.String()})
	out, err := s.Model.Upscale(ctx, genai.UpscaleRequest{
		ImageURI:  uri,
		Factor:    factor,
		OutputURI: pkgstorage.Location{Scheme: loc.Scheme, Bucket: loc.Bucket, Object: prefix}.String() + "/",
		MimeType:  mime,
	})
	if err != nil {
		s.Logger.Error(logCtx, "upscale image", err)
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upscale image")
	}
	if out.URI == "" {
		ext := enums.MimeType(mime).Extension()
		if out.URI, err = s.Store.Put(ctx, out.Data, pkgstorage.JoinPath(prefix, "0"+ext), mime); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upscaled image")
		}
	}
	s.Logger.Info(s.Logger.WithField(logCtx, "upscaled_uri", out.URI), "image upscaled")
	return &Result{GCSURI: out.URI, MimeType: defaultMime(out.MimeType, mime), PresignedURL: s.Signer.Sign(ctx, out.URI)}, nil
}

func (s *Service) resolve(ctx context.Context, actor *models.User, req Request) (string, string, error) {
	switch {
	case req.AssetID != nil && req.MediaItemID != nil:
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "give either asset_id or media_item_id")
	case req.AssetID != nil:
		asset, err := s.Assets.FindByID(ctx, *req.AssetID)
		if err != nil {
			return "", "", err
		}
		if !sourceassets.CanUse(actor, asset) {
			return "", "", pkgerrors.New(pkgerrors.CodeForbidden, "source asset belongs to another user")
		}
		return asset.GCSURI, asset.MimeType, nil
	case req.MediaItemID != nil:
		item, err := s.Media.FindByID(ctx, *req.MediaItemID)
		if err != nil {
			return "", "", err
		}
		if err := s.authorizeItem(ctx, actor, item); err != nil {
			return "", "", err
		}
		if item.Status != enums.JobStatusCompleted {
			return "", "", pkgerrors.New(pkgerrors.CodeValidation, "media item has not completed")
		}
		if req.MediaIndex < 0 || req.MediaIndex >= len(item.GCSURIs) {
			return "", "", pkgerrors.New(pkgerrors.CodeValidation, "media_index out of range").WithDetails(map[string]any{
				"media_index": req.MediaIndex,
				"available":   len(item.GCSURIs),
			})
		}
		return item.GCSURIs[req.MediaIndex], item.MimeType.String(), nil
	}
	return "", "", pkgerrors.New(pkgerrors.CodeValidation, "asset_id or media_item_id is required")
}

func (s *Service) authorizeItem(ctx context.Context, actor *models.User, item *models.MediaItem) error {
	if item.UserID == actor.ID || actor.HasRole(enums.UserRoleAdmin) {
		return nil
	}
	ws, err := s.Workspaces.FindByID(ctx, item.WorkspaceID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "workspace access denied")
		}
		return err
	}
	if !ws.CanRead(actor) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "workspace access denied")
	}
	return nil
}

func defaultMime(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
