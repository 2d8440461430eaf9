// Package repo holds the gorm plumbing the entity repositories share.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base wraps the connection, or an open transaction, a repository runs on.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB scopes the connection to ctx so cancellation reaches the driver.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Tx runs fn in a transaction. Returning an error, or panicking, rolls back.
func (b Base) Tx(ctx context.Context, fn func(tx Base) error) error {
	return b.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewBase(tx))
	})
}
