package brandguidelines

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/genmedia-backend/internal/repo"
	"github.com/angelmondragon/genmedia-backend/pkg/db"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
)

// Repository persists brand guidelines.
type Repository struct {
	store *repo.Store[models.BrandGuideline]
}

// NewRepository constructs a brand guideline repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{store: repo.NewStore[models.BrandGuideline](db, "brand guideline")}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BrandGuideline, error) {
	return r.store.Get(ctx, id)
}

// FindByWorkspace returns the guideline of workspaceID, or the global one
// when workspaceID is nil. It returns nil when none exists.
func (r *Repository) FindByWorkspace(ctx context.Context, workspaceID *uuid.UUID) (*models.BrandGuideline, error) {
	q := r.store.DB(ctx)
	if workspaceID == nil {
		q = q.Where("workspace_id IS NULL")
	} else {
		q = q.Where("workspace_id = ?", *workspaceID)
	}
	var g models.BrandGuideline
	if err := q.Order("created_at DESC").Take(&g).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find brand guideline: %w", err)
	}
	return &g, nil
}

const workspaceGuidelineIndex = "ux_brand_guidelines_workspace"

// Replace deletes previous (when set) and inserts next in one transaction.
func (r *Repository) Replace(ctx context.Context, previous *uuid.UUID, next *models.BrandGuideline) error {
	return r.store.InTx(ctx, func(store *repo.Store[models.BrandGuideline]) error {
		if previous != nil {
			if _, err := store.Delete(ctx, *previous); err != nil {
				return err
			}
		}
		err := store.Create(ctx, next)
		if db.IsUniqueViolation(err, workspaceGuidelineIndex) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "workspace brand guideline changed concurrently")
		}
		return err
	})
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.store.Delete(ctx, id)
}
