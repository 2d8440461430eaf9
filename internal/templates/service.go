package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/internal/enrich"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

// SearchBounds are the page-size limits of template search.
var SearchBounds = pagination.Bounds{Default: 20, Max: 100}

const maxTags = 20

type templateRepository interface {
	Create(ctx context.Context, tpl *models.Template) (*models.Template, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	Search(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[models.Template], error)
	Update(ctx context.Context, id uuid.UUID, update models.TemplateUpdate) (*models.Template, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type mediaLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error)
}

type metadataWriter interface {
	GenerateJSON(ctx context.Context, instruction, input string, out any, files ...genai.FilePart) error
}

type instructionSource interface {
	TemplateMetadata() string
}

type presenter interface {
	Template(ctx context.Context, tpl models.Template) enrich.TemplateResponse
	Templates(ctx context.Context, templates []models.Template) []enrich.TemplateResponse
}

// SearchInput filters the template gallery.
type SearchInput struct {
	Industry   *enums.Industry `json:"industry,omitempty"`
	Brand      *string         `json:"brand,omitempty"`
	MimeType   *enums.MimeType `json:"mime_type,omitempty"`
	Tag        *string         `json:"tag,omitempty"`
	Limit      *int            `json:"limit,omitempty"`
	StartAfter string          `json:"start_after,omitempty"`
}

// UpdateInput patches the descriptive fields of a template.
type UpdateInput struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Industry    *enums.Industry `json:"industry,omitempty"`
	Brand       *string         `json:"brand,omitempty"`
	Tags        *[]string       `json:"tags,omitempty"`
}

// metadata is what the text model proposes for a new template.
type metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type Service interface {
	Search(ctx context.Context, input SearchInput) (*pagination.Page[enrich.TemplateResponse], error)
	Get(ctx context.Context, id uuid.UUID) (*enrich.TemplateResponse, error)
	// FromMedia turns a completed media item into a template, naming it with
	// the text model when available.
	FromMedia(ctx context.Context, mediaItemID uuid.UUID) (*enrich.TemplateResponse, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*enrich.TemplateResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ServiceParams struct {
	Repo         templateRepository
	Media        mediaLookup
	Writer       metadataWriter
	Instructions instructionSource
	Presenter    presenter
	Logger       *logger.Logger
}

type service struct {
	repo         templateRepository
	media        mediaLookup
	writer       metadataWriter
	instructions instructionSource
	presenter    presenter
	logg         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("template repository required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("metadata writer required")
	}
	if params.Instructions == nil {
		return nil, fmt.Errorf("instruction source required")
	}
	if params.Presenter == nil {
		return nil, fmt.Errorf("presenter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repo,
		media:        params.Media,
		writer:       params.Writer,
		instructions: params.Instructions,
		presenter:    params.Presenter,
		logg:         params.Logger,
	}, nil
}

func (s *service) Search(ctx context.Context, input SearchInput) (*pagination.Page[enrich.TemplateResponse], error) {
	req := pagination.Request{StartAfter: input.StartAfter, Limit: input.Limit}
	if input.Industry != nil {
		if !input.Industry.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid industry").
				WithDetails(map[string]string{"industry": string(*input.Industry)})
		}
		req.Filters = append(req.Filters, pagination.Eq("industry", *input.Industry))
	}
	if input.Brand != nil && strings.TrimSpace(*input.Brand) != "" {
		req.Filters = append(req.Filters, pagination.Eq("brand", strings.TrimSpace(*input.Brand)))
	}
	if input.MimeType != nil {
		req.Filters = append(req.Filters, pagination.Eq("mime_type", *input.MimeType))
	}
	if input.Tag != nil && strings.TrimSpace(*input.Tag) != "" {
		req.Scopes = append(req.Scopes, HasTag(strings.ToLower(strings.TrimSpace(*input.Tag))))
	}

	page, err := s.repo.Search(ctx, req, SearchBounds)
	if err != nil {
		return nil, err
	}
	return &pagination.Page[enrich.TemplateResponse]{
		Data:           s.presenter.Templates(ctx, page.Data),
		Count:          page.Count,
		NextPageCursor: page.NextPageCursor,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*enrich.TemplateResponse, error) {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.presenter.Template(ctx, *tpl)
	return &resp, nil
}

func (s *service) FromMedia(ctx context.Context, mediaItemID uuid.UUID) (*enrich.TemplateResponse, error) {
	item, err := s.media.FindByID(ctx, mediaItemID)
	if err != nil {
		return nil, err
	}
	if item.Status != enums.JobStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed media items can become templates")
	}

	meta := s.describe(s.logg.WithMediaItemID(ctx, item.ID.String()), item)
	aspect := item.AspectRatio
	tpl := &models.Template{
		Name:           meta.Name,
		Description:    meta.Description,
		MimeType:       item.MimeType,
		Industry:       enums.IndustryOther,
		Tags:           normalizeTags(meta.Tags),
		GCSURIs:        append([]string{}, item.GCSURIs...),
		ThumbnailURIs:  append([]string{}, item.ThumbnailURIs...),
		Model:          item.Model,
		Prompt:         item.OriginalPrompt,
		NegativePrompt: item.NegativePrompt,
		AspectRatio:    &aspect,
		Style:          item.Style,
		Lighting:       item.Lighting,
		ColorAndTone:   item.ColorAndTone,
		Composition:    item.Composition,
	}
	if tpl.Prompt == "" {
		tpl.Prompt = item.Prompt
	}

	created, err := s.repo.Create(ctx, tpl)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "template_id", created.ID.String()), "template created from media item")
	resp := s.presenter.Template(ctx, *created)
	return &resp, nil
}

// describe falls back to derived names when the text model fails or
// returns nothing usable.
func (s *service) describe(ctx context.Context, item *models.MediaItem) metadata {
	fallback := metadata{
		Name:        fmt.Sprintf("Template based on %s", item.ID),
		Description: fmt.Sprintf("A creative template derived from prompt: %s", item.OriginalPrompt),
	}

	var meta metadata
	if err := s.writer.GenerateJSON(ctx, s.instructions.TemplateMetadata(), item.OriginalPrompt, &meta); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "template metadata generation failed")
		return fallback
	}
	if strings.TrimSpace(meta.Name) == "" {
		meta.Name = fallback.Name
	}
	if strings.TrimSpace(meta.Description) == "" {
		meta.Description = fallback.Description
	}
	meta.Name = strings.TrimSpace(meta.Name)
	meta.Description = strings.TrimSpace(meta.Description)
	return meta
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*enrich.TemplateResponse, error) {
	update := models.TemplateUpdate{
		Description: input.Description,
		Industry:    input.Industry,
		Brand:       input.Brand,
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		update.Name = &name
	}
	if input.Industry != nil && !input.Industry.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid industry").
			WithDetails(map[string]string{"industry": string(*input.Industry)})
	}
	if input.Tags != nil {
		if len(*input.Tags) > maxTags {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d tags", maxTags))
		}
		tags := normalizeTags(*input.Tags)
		update.Tags = &tags
	}

	tpl, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	resp := s.presenter.Template(ctx, *tpl)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
	}
	return nil
}

func normalizeTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
