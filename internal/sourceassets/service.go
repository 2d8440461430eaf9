package sourceassets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/internal/enrich"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
)

// SearchBounds are the page-size limits of asset search.
var SearchBounds = pagination.Bounds{Default: 20, Max: 100}

type assetRepository interface {
	Create(ctx context.Context, asset *models.SourceAsset) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.SourceAsset, error)
	FindByHash(ctx context.Context, userID uuid.UUID, hash string) (*models.SourceAsset, error)
	Search(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[models.SourceAsset], error)
	ListByScopeAndTypes(ctx context.Context, scope enums.AssetScope, types []enums.AssetType) ([]models.SourceAsset, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type objectStore interface {
	Put(ctx context.Context, data []byte, path, contentType string) (string, error)
	Delete(ctx context.Context, uri string) error
}

type thumbnailer interface {
	Generate(ctx context.Context, data []byte, mimeType string) ([]byte, error)
}

type Upscaler interface {
	Upscale(ctx context.Context, req genai.UpscaleRequest) (genai.Artifact, error)
}

type presenter interface {
	SourceAsset(ctx context.Context, asset models.SourceAsset) enrich.SourceAssetResponse
	SourceAssets(ctx context.Context, assets []models.SourceAsset) []enrich.SourceAssetResponse
}

type workspaceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

type userLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// UploadInput is one multipart file upload.
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	Scope       *enums.AssetScope
	AssetType   *enums.AssetType
	WorkspaceID *uuid.UUID
}

// SearchInput filters asset search. Non-admins only ever see their own assets.
type SearchInput struct {
	MimeType         *string           `json:"mime_type,omitempty"`
	UserEmail        *string           `json:"user_email,omitempty"`
	Scope            *enums.AssetScope `json:"scope,omitempty"`
	AssetType        *enums.AssetType  `json:"asset_type,omitempty"`
	OriginalFilename *string           `json:"original_filename,omitempty"`
	Limit            *int              `json:"limit,omitempty"`
	StartAfter       string            `json:"start_after,omitempty"`
}

// VTOAssets groups the shared virtual try-on assets by category.
type VTOAssets struct {
	MaleModels   []enrich.SourceAssetResponse `json:"male_models"`
	FemaleModels []enrich.SourceAssetResponse `json:"female_models"`
	Tops         []enrich.SourceAssetResponse `json:"tops"`
	Bottoms      []enrich.SourceAssetResponse `json:"bottoms"`
	Dresses      []enrich.SourceAssetResponse `json:"dresses"`
	Shoes        []enrich.SourceAssetResponse `json:"shoes"`
}

// Service manages uploaded source assets.
type Service interface {
	Upload(ctx context.Context, actor *models.User, input UploadInput) (*enrich.SourceAssetResponse, error)
	Search(ctx context.Context, actor *models.User, input SearchInput) (*pagination.Page[enrich.SourceAssetResponse], error)
	VTO(ctx context.Context) (*VTOAssets, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*enrich.SourceAssetResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams wires the source asset service.
type ServiceParams struct {
	Repo       assetRepository
	Store      objectStore
	Thumbnails thumbnailer
	Presenter  presenter
	Workspaces workspaceReader
	Users      userLookup
	Logger     *logger.Logger
	MaxBytes   int64
	// Upscaler, when set, replaces uploaded images with a x2 copy.
	Upscaler Upscaler
}

type service struct {
	repo       assetRepository
	store      objectStore
	thumbnails thumbnailer
	presenter  presenter
	workspaces workspaceReader
	users      userLookup
	logg       *logger.Logger
	maxBytes   int64
	upscaler   Upscaler
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("source asset repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Thumbnails == nil {
		return nil, fmt.Errorf("thumbnailer required")
	}
	if params.Presenter == nil {
		return nil, fmt.Errorf("presenter required")
	}
	if params.Workspaces == nil {
		return nil, fmt.Errorf("workspace repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       params.Repo,
		store:      params.Store,
		thumbnails: params.Thumbnails,
		presenter:  params.Presenter,
		workspaces: params.Workspaces,
		users:      params.Users,
		logg:       params.Logger,
		maxBytes:   params.MaxBytes,
		upscaler:   params.Upscaler,
	}, nil
}

func (s *service) Upload(ctx context.Context, actor *models.User, input UploadInput) (*enrich.SourceAssetResponse, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if len(input.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot upload an empty file")
	}
	if s.maxBytes > 0 && int64(len(input.Data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeTooLarge, fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}

	scope, assetType, err := s.resolveClassification(actor, input)
	if err != nil {
		return nil, err
	}
	if input.WorkspaceID != nil {
		if err := s.authorizeWorkspace(ctx, actor, *input.WorkspaceID); err != nil {
			return nil, err
		}
	}

	sum := sha256.Sum256(input.Data)
	hash := hex.EncodeToString(sum[:])
	logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": actor.ID.String(), "file_hash": hash[:8]})

	existing, err := s.repo.FindByHash(ctx, actor.ID, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logg.Info(logCtx, "duplicate source asset upload")
		resp := s.presenter.SourceAsset(ctx, *existing)
		return &resp, nil
	}

	mimeType, err := detectMimeType(input.Data, input.ContentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable file type")
	}
	if !mimeAllowed(assetType, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s assets must be %s", assetType, allowedMimeDescription(assetType))).
			WithDetails(map[string]string{"mime_type": mimeType})
	}

	objectID := uuid.NewString()
	originalPath := pkgstorage.JoinPath("source_assets", actor.ID.String(), "originals", objectID+extensionFor(mimeType, input.Filename))
	uri, err := s.store.Put(ctx, input.Data, originalPath, mimeType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store source asset")
	}
	uri = s.upscaleOriginal(logCtx, actor.ID, objectID, uri, mimeType)

	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		filename = "untitled"
	}
	asset := &models.SourceAsset{
		UserID:           actor.ID,
		WorkspaceID:      input.WorkspaceID,
		GCSURI:           uri,
		OriginalFilename: filename,
		MimeType:         mimeType,
		AspectRatio:      aspectRatio(input.Data),
		FileHash:         hash,
		Scope:            scope,
		AssetType:        assetType,
		ThumbnailGCSURI:  s.storeThumbnail(logCtx, actor.ID, objectID, input.Data, mimeType),
	}

	created, err := s.repo.Create(ctx, asset)
	if err != nil {
		s.discard(logCtx, uri, asset.ThumbnailGCSURI)
		return nil, err
	}
	if !created {
		// A concurrent upload of the same bytes landed first.
		s.discard(logCtx, uri, asset.ThumbnailGCSURI)
		winner, err := s.repo.FindByHash(ctx, actor.ID, hash)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "source asset upload conflicted")
		}
		asset = winner
	} else {
		s.logg.Info(s.logg.WithField(logCtx, "asset_id", asset.ID.String()), "source asset uploaded")
	}

	resp := s.presenter.SourceAsset(ctx, *asset)
	return &resp, nil
}

func (s *service) resolveClassification(actor *models.User, input UploadInput) (enums.AssetScope, enums.AssetType, error) {
	scope := enums.AssetScopePrivate
	if input.Scope != nil {
		if !input.Scope.IsValid() {
			return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid scope").
				WithDetails(map[string]string{"scope": string(*input.Scope)})
		}
		if *input.Scope != enums.AssetScopePrivate && !actor.HasRole(enums.UserRoleAdmin) {
			return "", "", pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can set a non-private scope")
		}
		scope = *input.Scope
	}

	assetType := enums.AssetTypeGenericImage
	if input.AssetType != nil {
		if !input.AssetType.IsValid() {
			return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid asset type").
				WithDetails(map[string]string{"asset_type": string(*input.AssetType)})
		}
		assetType = *input.AssetType
	}
	return scope, assetType, nil
}

func (s *service) authorizeWorkspace(ctx context.Context, actor *models.User, id uuid.UUID) error {
	ws, err := s.workspaces.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !ws.IsMember(actor) && !actor.HasRole(enums.UserRoleAdmin) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this workspace")
	}
	return nil
}

// upscaleOriginal swaps the stored original for a x2 copy. Any failure keeps
// the original.
func (s *service) upscaleOriginal(ctx context.Context, userID uuid.UUID, objectID, uri, mimeType string) string {
	if s.upscaler == nil || !enums.MimeType(mimeType).IsImage() {
		return uri
	}
	loc, err := pkgstorage.ParseURI(uri)
	if err != nil {
		return uri
	}
	prefix := pkgstorage.JoinPath("source_assets", userID.String(), "upscaled", objectID)
	out, err := s.upscaler.Upscale(ctx, genai.UpscaleRequest{
		ImageURI:  uri,
		Factor:    enums.UpscaleX2,
		OutputURI: pkgstorage.Location{Scheme: loc.Scheme, Bucket: loc.Bucket, Object: prefix}.String() + "/",
		MimeType:  mimeType,
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "source asset upscale failed; keeping original")
		return uri
	}
	upscaled := out.URI
	if upscaled == "" && out.Data != nil {
		upscaled, err = s.store.Put(ctx, out.Data, pkgstorage.JoinPath(prefix, "0"+enums.MimeType(mimeType).Extension()), mimeType)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "upscaled source asset not stored; keeping original")
			return uri
		}
	}
	if upscaled == "" {
		return uri
	}
	if err := s.store.Delete(context.WithoutCancel(ctx), uri); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "gcs_uri", uri), "replaced source asset original not deleted")
	}
	return upscaled
}

func (s *service) storeThumbnail(ctx context.Context, userID uuid.UUID, objectID string, data []byte, mimeType string) *string {
	thumb, err := s.thumbnails.Generate(ctx, data, mimeType)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "source asset thumbnail skipped")
		return nil
	}
	path := pkgstorage.JoinPath("source_assets", userID.String(), "thumbnails", objectID+".png")
	uri, err := s.store.Put(ctx, thumb, path, "image/png")
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "source asset thumbnail upload failed")
		return nil
	}
	return &uri
}

func (s *service) discard(ctx context.Context, uri string, thumb *string) {
	uris := []string{uri}
	if thumb != nil {
		uris = append(uris, *thumb)
	}
	for _, u := range uris {
		if err := s.store.Delete(context.WithoutCancel(ctx), u); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "gcs_uri", u), "orphaned source asset object not deleted")
		}
	}
}

func (s *service) Search(ctx context.Context, actor *models.User, input SearchInput) (*pagination.Page[enrich.SourceAssetResponse], error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req := pagination.Request{StartAfter: input.StartAfter, Limit: input.Limit}

	if actor.HasRole(enums.UserRoleAdmin) {
		if input.UserEmail != nil && strings.TrimSpace(*input.UserEmail) != "" {
			owner, err := s.users.FindByEmail(ctx, *input.UserEmail)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					return &pagination.Page[enrich.SourceAssetResponse]{Data: []enrich.SourceAssetResponse{}}, nil
				}
				return nil, err
			}
			req.Filters = append(req.Filters, pagination.Eq("user_id", owner.ID))
		}
	} else {
		req.Filters = append(req.Filters, pagination.Eq("user_id", actor.ID))
	}

	if input.MimeType != nil && *input.MimeType != "" {
		req.Filters = append(req.Filters, pagination.Eq("mime_type", strings.ToLower(*input.MimeType)))
	}
	if input.Scope != nil {
		req.Filters = append(req.Filters, pagination.Eq("scope", *input.Scope))
	}
	if input.AssetType != nil {
		req.Filters = append(req.Filters, pagination.Eq("asset_type", *input.AssetType))
	}
	if input.OriginalFilename != nil && *input.OriginalFilename != "" {
		req.Filters = append(req.Filters, pagination.Eq("original_filename", *input.OriginalFilename))
	}

	page, err := s.repo.Search(ctx, req, SearchBounds)
	if err != nil {
		return nil, err
	}
	return &pagination.Page[enrich.SourceAssetResponse]{
		Data:           s.presenter.SourceAssets(ctx, page.Data),
		Count:          page.Count,
		NextPageCursor: page.NextPageCursor,
	}, nil
}

func (s *service) VTO(ctx context.Context) (*VTOAssets, error) {
	rows, err := s.repo.ListByScopeAndTypes(ctx, enums.AssetScopeSystem, enums.VTOAssetTypes())
	if err != nil {
		return nil, err
	}
	out := &VTOAssets{
		MaleModels:   []enrich.SourceAssetResponse{},
		FemaleModels: []enrich.SourceAssetResponse{},
		Tops:         []enrich.SourceAssetResponse{},
		Bottoms:      []enrich.SourceAssetResponse{},
		Dresses:      []enrich.SourceAssetResponse{},
		Shoes:        []enrich.SourceAssetResponse{},
	}
	buckets := map[enums.AssetType]*[]enrich.SourceAssetResponse{
		enums.AssetTypeVTOPersonMale:   &out.MaleModels,
		enums.AssetTypeVTOPersonFemale: &out.FemaleModels,
		enums.AssetTypeVTOTop:          &out.Tops,
		enums.AssetTypeVTOBottom:       &out.Bottoms,
		enums.AssetTypeVTODress:        &out.Dresses,
		enums.AssetTypeVTOShoe:         &out.Shoes,
	}
	for _, resp := range s.presenter.SourceAssets(ctx, rows) {
		if bucket, ok := buckets[resp.AssetType]; ok {
			*bucket = append(*bucket, resp)
		}
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*enrich.SourceAssetResponse, error) {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanUse(actor, asset) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "source asset belongs to another user")
	}
	resp := s.presenter.SourceAsset(ctx, *asset)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "source asset not found")
	}
	s.discard(s.logg.WithField(ctx, "asset_id", id.String()), asset.GCSURI, asset.ThumbnailGCSURI)
	return nil
}

// CanUse reports whether actor may read or reference asset.
func CanUse(actor *models.User, asset *models.SourceAsset) bool {
	if actor == nil || asset == nil {
		return false
	}
	return asset.UserID == actor.ID || asset.Scope == enums.AssetScopeSystem || actor.HasRole(enums.UserRoleAdmin)
}
