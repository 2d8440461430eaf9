package pagination

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Filter is an exact-match predicate on one column. Column names come from
// code, never from request input.
type Filter struct {
	Column string
	Value  any
}

// Eq builds a Filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Request is a filter plus cursor page request.
type Request struct {
	Filters []Filter
	// Scopes add predicates that are not plain equality, such as array membership.
	Scopes     []func(*gorm.DB) *gorm.DB
	StartAfter string
	Limit      *int
}

// Identifiable is satisfied by every model embedding models.Record.
type Identifiable interface {
	GetID() uuid.UUID
}

type cursorRow struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// Query returns one newest-first page of T. The count covers the whole filtered
// set. A cursor that does not resolve to a row restarts from the first page.
// Rows sharing a timestamp are ordered by id descending so every row appears
// exactly once.
func Query[T Identifiable](ctx context.Context, db *gorm.DB, req Request, bounds Bounds) (*Page[T], error) {
	limit, err := ResolveLimit(req.Limit, bounds)
	if err != nil {
		return nil, err
	}

	scoped := func() *gorm.DB {
		q := db.WithContext(ctx).Model(new(T))
		for _, f := range req.Filters {
			q = q.Where(fmt.Sprintf("%s = ?", f.Column), f.Value)
		}
		if len(req.Scopes) > 0 {
			q = q.Scopes(req.Scopes...)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	cursor, err := resolveCursor[T](ctx, db, req.StartAfter)
	if err != nil {
		return nil, err
	}

	q := scoped()
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	rows := make([]T, 0, limit+1)
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	page := &Page[T]{Count: total}
	if len(rows) > limit {
		rows = rows[:limit]
		next := rows[len(rows)-1].GetID().String()
		page.NextPageCursor = &next
	}
	page.Data = rows
	return page, nil
}

func resolveCursor[T any](ctx context.Context, db *gorm.DB, startAfter string) (*cursorRow, error) {
	raw := strings.TrimSpace(startAfter)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, nil
	}

	var found []cursorRow
	if err := db.WithContext(ctx).Model(new(T)).Select("id", "created_at").Where("id = ?", id).Limit(1).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("resolve cursor: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}
