package pagination

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 100
)

// Bounds declares the default and maximum page size of one endpoint.
type Bounds struct {
	Default int
	Max     int
}

// DefaultBounds applies when an endpoint does not declare its own.
var DefaultBounds = Bounds{Default: DefaultLimit, Max: MaxLimit}

// ResolveLimit applies the endpoint default to a missing limit and rejects
// anything outside 1..Max.
func ResolveLimit(limit *int, bounds Bounds) (int, error) {
	if bounds.Max <= 0 {
		bounds = DefaultBounds
	}
	if bounds.Default <= 0 || bounds.Default > bounds.Max {
		bounds.Default = bounds.Max
	}
	if limit == nil {
		return bounds.Default, nil
	}
	if *limit < 1 || *limit > bounds.Max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit").WithDetails(map[string]any{
			"limit": fmt.Sprintf("must be between 1 and %d", bounds.Max),
		})
	}
	return *limit, nil
}

// Page is the wire shape of every paginated listing.
type Page[T any] struct {
	Data           []T     `json:"data"`
	Count          int64   `json:"count"`
	NextPageCursor *string `json:"next_page_cursor"`
}

// Map converts page items while keeping the count and cursor.
func Map[T, U any](page *Page[T], fn func(T) U) *Page[U] {
	if page == nil {
		return &Page[U]{Data: []U{}}
	}
	out := make([]U, len(page.Data))
	for i, item := range page.Data {
		out[i] = fn(item)
	}
	return &Page[U]{Data: out, Count: page.Count, NextPageCursor: page.NextPageCursor}
}
