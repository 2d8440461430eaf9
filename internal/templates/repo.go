package templates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/genmedia-backend/internal/repo"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

// Repository persists templates.
type Repository struct {
	store *repo.Store[models.Template]
}

// NewRepository constructs a template repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{store: repo.NewStore[models.Template](db, "template")}
}

func (r *Repository) Create(ctx context.Context, tpl *models.Template) (*models.Template, error) {
	if tpl.Tags == nil {
		tpl.Tags = []string{}
	}
	if tpl.GCSURIs == nil {
		tpl.GCSURIs = []string{}
	}
	if tpl.ThumbnailURIs == nil {
		tpl.ThumbnailURIs = []string{}
	}
	if err := r.store.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	return r.store.Get(ctx, id)
}

func (r *Repository) Search(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[models.Template], error) {
	return r.store.Query(ctx, req, bounds)
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, update models.TemplateUpdate) (*models.Template, error) {
	return r.store.Update(ctx, id, update)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.store.Delete(ctx, id)
}

// HasTag scopes a query to templates carrying tag.
func HasTag(tag string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("? = ANY(tags)", tag)
	}
}
