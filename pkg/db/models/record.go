package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record carries the identity and timestamps shared by every persisted entity.
// CreatedAt drives newest-first pagination; UpdatedAt is refreshed on every write.
type Record struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the identifier when the caller has not already done so.
func (r *Record) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// GetID exposes the identifier to generic stores.
func (r Record) GetID() uuid.UUID {
	return r.ID
}
