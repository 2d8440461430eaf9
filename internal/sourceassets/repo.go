package sourceassets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/genmedia-backend/internal/repo"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

// Repository persists uploaded source assets.
type Repository struct {
	store *repo.Store[models.SourceAsset]
}

// NewRepository constructs a source asset repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{store: repo.NewStore[models.SourceAsset](db, "source asset")}
}

// Create inserts asset. It reports false when another upload with the same
// owner and hash won the race; the caller then reloads by hash.
func (r *Repository) Create(ctx context.Context, asset *models.SourceAsset) (bool, error) {
	res := r.store.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "file_hash"}},
			DoNothing: true,
		}).
		Create(asset)
	if res.Error != nil {
		return false, fmt.Errorf("create source asset: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// FindByID retrieves an asset or returns NOT_FOUND.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SourceAsset, error) {
	return r.store.Get(ctx, id)
}

// FindByHash returns the user's asset with the given content hash, or nil.
func (r *Repository) FindByHash(ctx context.Context, userID uuid.UUID, hash string) (*models.SourceAsset, error) {
	var asset models.SourceAsset
	err := r.store.DB(ctx).
		Where("user_id = ? AND file_hash = ?", userID, hash).
		Take(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find source asset by hash: %w", err)
	}
	return &asset, nil
}

// Search returns one newest-first page of assets.
func (r *Repository) Search(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[models.SourceAsset], error) {
	return r.store.Query(ctx, req, bounds)
}

// ListByScopeAndTypes returns every asset of scope whose type is in types.
func (r *Repository) ListByScopeAndTypes(ctx context.Context, scope enums.AssetScope, types []enums.AssetType) ([]models.SourceAsset, error) {
	var rows []models.SourceAsset
	err := r.store.DB(ctx).
		Where("scope = ? AND asset_type IN ?", scope, types).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s source assets: %w", scope, err)
	}
	return rows, nil
}

// Delete removes the asset row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.store.Delete(ctx, id)
}
