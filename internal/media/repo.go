package media

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/genmedia-backend/internal/repo"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

// Repository persists media items and guards their terminal transition.
type Repository struct {
	store *repo.Store[models.MediaItem]
}

// NewRepository constructs a media item repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{store: repo.NewStore[models.MediaItem](db, "media item")}
}

// Create persists a placeholder or imported media item.
func (r *Repository) Create(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error) {
	if item.Status == "" {
		item.Status = enums.JobStatusProcessing
	}
	if item.Version == 0 {
		item.Version = 1
	}
	if item.GCSURIs == nil {
		item.GCSURIs = []string{}
	}
	if item.ThumbnailURIs == nil {
		item.ThumbnailURIs = []string{}
	}
	if err := r.store.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID retrieves a media item or returns NOT_FOUND.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error) {
	return r.store.Get(ctx, id)
}

// Search returns one newest-first page of media items.
func (r *Repository) Search(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[models.MediaItem], error) {
	return r.store.Query(ctx, req, bounds)
}

// Complete records success. It reports false when the item already left
// PROCESSING or its version moved on.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, version int, done models.MediaItemCompletion) (bool, error) {
	return r.transition(ctx, id, version, done)
}

// Fail records failure under the same guard as Complete.
func (r *Repository) Fail(ctx context.Context, id uuid.UUID, version int, failed models.MediaItemFailure) (bool, error) {
	return r.transition(ctx, id, version, failed)
}

func (r *Repository) transition(ctx context.Context, id uuid.UUID, version int, partial repo.Partial) (bool, error) {
	cols := partial.Columns()
	cols["version"] = gorm.Expr("version + 1")
	cols["updated_at"] = time.Now().UTC()

	res := r.store.DB(ctx).
		Model(&models.MediaItem{}).
		Where("id = ? AND status = ? AND version = ?", id, enums.JobStatusProcessing, version).
		Updates(cols)
	if res.Error != nil {
		return false, fmt.Errorf("transition media item %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// FindStuck lists items still PROCESSING that were created before cutoff.
func (r *Repository) FindStuck(ctx context.Context, cutoff time.Time, limit int) ([]models.MediaItem, error) {
	var rows []models.MediaItem
	err := r.store.DB(ctx).
		Where("status = ? AND created_at < ?", enums.JobStatusProcessing, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find stuck media items: %w", err)
	}
	return rows, nil
}
