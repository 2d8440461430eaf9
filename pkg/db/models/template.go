package models

import (
	"github.com/lib/pq"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// Template is a curated, reusable generation recipe.
type Template struct {
	Record

	Name           string                `gorm:"column:name;not null"`
	Description    string                `gorm:"column:description;not null;default:''"`
	MimeType       enums.MimeType        `gorm:"column:mime_type;not null"`
	Industry       enums.Industry        `gorm:"column:industry;not null"`
	Brand          *string               `gorm:"column:brand"`
	Tags           pq.StringArray        `gorm:"column:tags;type:text[];not null"`
	GCSURIs        pq.StringArray        `gorm:"column:gcs_uris;type:text[];not null"`
	ThumbnailURIs  pq.StringArray        `gorm:"column:thumbnail_uris;type:text[];not null"`
	Model          enums.GenerationModel `gorm:"column:model;not null"`
	Prompt         string                `gorm:"column:prompt;not null"`
	NegativePrompt string                `gorm:"column:negative_prompt;not null;default:''"`
	AspectRatio    *enums.AspectRatio    `gorm:"column:aspect_ratio"`
	Style          *enums.Style          `gorm:"column:style"`
	Lighting       *enums.Lighting       `gorm:"column:lighting"`
	ColorAndTone   *enums.ColorAndTone   `gorm:"column:color_and_tone"`
	Composition    *enums.Composition    `gorm:"column:composition"`
}

func (Template) TableName() string { return "templates" }

// TemplateUpdate is a partial update; nil fields are left untouched.
type TemplateUpdate struct {
	Name        *string
	Description *string
	Industry    *enums.Industry
	Brand       *string
	Tags        *[]string
}

func (u TemplateUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Industry != nil {
		cols["industry"] = *u.Industry
	}
	if u.Brand != nil {
		cols["brand"] = *u.Brand
	}
	if u.Tags != nil {
		cols["tags"] = pq.StringArray(*u.Tags)
	}
	return cols
}
