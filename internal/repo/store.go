package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

// Partial is a typed partial update that names only the columns it sets.
type Partial interface {
	Columns() map[string]any
}

// Store is the record-level CRUD surface shared by every entity repository.
type Store[T pagination.Identifiable] struct {
	Base
	label string
}

// NewStore builds a store; label names the entity in not-found errors.
func NewStore[T pagination.Identifiable](db *gorm.DB, label string) *Store[T] {
	return &Store[T]{Base: NewBase(db), label: label}
}

// InTx runs fn against a copy of the store bound to a single transaction.
func (s *Store[T]) InTx(ctx context.Context, fn func(tx *Store[T]) error) error {
	return s.Tx(ctx, func(tx Base) error {
		return fn(&Store[T]{Base: tx, label: s.label})
	})
}

// Get returns the record or a NOT_FOUND error.
func (s *Store[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var out T
	if err := s.DB(ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", s.label))
		}
		return nil, fmt.Errorf("get %s: %w", s.label, err)
	}
	return &out, nil
}

// Create inserts a new record, assigning its id when empty.
func (s *Store[T]) Create(ctx context.Context, rec *T) error {
	if err := s.DB(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create %s: %w", s.label, err)
	}
	return nil
}

// Save upserts the full record and refreshes updated_at.
func (s *Store[T]) Save(ctx context.Context, rec *T) error {
	if err := s.DB(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("save %s: %w", s.label, err)
	}
	return nil
}

// Update applies partial and returns the refreshed record.
func (s *Store[T]) Update(ctx context.Context, id uuid.UUID, partial Partial) (*T, error) {
	cols := partial.Columns()
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}
	res := s.DB(ctx).Model(new(T)).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, fmt.Errorf("update %s: %w", s.label, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", s.label))
	}
	return s.Get(ctx, id)
}

// Delete removes the record and reports whether it existed.
func (s *Store[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.DB(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, fmt.Errorf("delete %s: %w", s.label, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Query returns one filtered, newest-first page.
func (s *Store[T]) Query(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[T], error) {
	page, err := pagination.Query[T](ctx, s.db, req, bounds)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, fmt.Errorf("query %s: %w", s.label, err)
	}
	return page, nil
}
