package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// SourceAssetLink references an uploaded asset used as a generation input.
type SourceAssetLink struct {
	AssetID uuid.UUID       `json:"asset_id"`
	Role    enums.AssetRole `json:"role"`
}

// SourceMediaItemLink references one output of an earlier generation.
type SourceMediaItemLink struct {
	MediaItemID uuid.UUID       `json:"media_item_id"`
	MediaIndex  int             `json:"media_index"`
	Role        enums.AssetRole `json:"role"`
}

// MediaItem is a generation job and, once completed, its gallery entry.
type MediaItem struct {
	Record

	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserEmail   string    `gorm:"column:user_email;not null"`
	WorkspaceID uuid.UUID `gorm:"column:workspace_id;type:uuid;not null;index"`

	MimeType        enums.MimeType        `gorm:"column:mime_type;not null"`
	Model           enums.GenerationModel `gorm:"column:model;not null"`
	Prompt          string                `gorm:"column:prompt;not null"`
	OriginalPrompt  string                `gorm:"column:original_prompt;not null"`
	RewrittenPrompt *string               `gorm:"column:rewritten_prompt"`
	NegativePrompt  string                `gorm:"column:negative_prompt;not null;default:''"`
	NumMedia        int                   `gorm:"column:num_media;not null"`
	AspectRatio     enums.AspectRatio     `gorm:"column:aspect_ratio;not null"`
	Style           *enums.Style          `gorm:"column:style"`
	Lighting        *enums.Lighting       `gorm:"column:lighting"`
	ColorAndTone    *enums.ColorAndTone   `gorm:"column:color_and_tone"`
	Composition     *enums.Composition    `gorm:"column:composition"`
	AddWatermark    bool                  `gorm:"column:add_watermark;not null;default:false"`
	GenerateAudio   bool                  `gorm:"column:generate_audio;not null;default:false"`
	DurationSeconds *int                  `gorm:"column:duration_seconds"`
	Seed            *int64                `gorm:"column:seed"`

	Status         enums.JobStatus `gorm:"column:status;not null;index"`
	Version        int             `gorm:"column:version;not null;default:1"`
	GCSURIs        pq.StringArray  `gorm:"column:gcs_uris;type:text[];not null"`
	ThumbnailURIs  pq.StringArray  `gorm:"column:thumbnail_uris;type:text[];not null"`
	GenerationTime *float64        `gorm:"column:generation_time"`
	ErrorMessage   *string         `gorm:"column:error_message"`

	SourceAssets          []SourceAssetLink     `gorm:"column:source_assets;type:jsonb;serializer:json"`
	SourceMediaItems      []SourceMediaItemLink `gorm:"column:source_media_items;type:jsonb;serializer:json"`
	ParentMediaItemID     *uuid.UUID            `gorm:"column:parent_media_item_id;type:uuid"`
	CreatedFromTemplateID *uuid.UUID            `gorm:"column:created_from_template_id;type:uuid"`
}

func (MediaItem) TableName() string { return "media_items" }

// MediaItemCompletion is the single terminal write for a successful job.
type MediaItemCompletion struct {
	GCSURIs         []string
	ThumbnailURIs   []string
	RewrittenPrompt string
	GenerationTime  float64
}

// Columns maps the completion onto the columns it sets.
func (c MediaItemCompletion) Columns() map[string]any {
	cols := map[string]any{
		"status":          enums.JobStatusCompleted,
		"gcs_uris":        pq.StringArray(nonNil(c.GCSURIs)),
		"thumbnail_uris":  pq.StringArray(nonNil(c.ThumbnailURIs)),
		"generation_time": c.GenerationTime,
		"num_media":       len(c.GCSURIs),
	}
	if c.RewrittenPrompt != "" {
		cols["prompt"] = c.RewrittenPrompt
		cols["rewritten_prompt"] = c.RewrittenPrompt
	}
	return cols
}

// MediaItemFailure is the single terminal write for a failed job.
type MediaItemFailure struct {
	ErrorMessage   string
	GenerationTime float64
}

func (f MediaItemFailure) Columns() map[string]any {
	return map[string]any{
		"status":          enums.JobStatusFailed,
		"error_message":   f.ErrorMessage,
		"generation_time": f.GenerationTime,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
