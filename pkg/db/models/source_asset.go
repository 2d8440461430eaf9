package models

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// SourceAsset is an uploaded input file, deduplicated per user by content hash.
type SourceAsset struct {
	Record

	UserID           uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_source_assets_user_hash,priority:1"`
	WorkspaceID      *uuid.UUID       `gorm:"column:workspace_id;type:uuid"`
	GCSURI           string           `gorm:"column:gcs_uri;not null"`
	OriginalFilename string           `gorm:"column:original_filename;not null"`
	MimeType         string           `gorm:"column:mime_type;not null"`
	AspectRatio      *string          `gorm:"column:aspect_ratio"`
	FileHash         string           `gorm:"column:file_hash;not null;uniqueIndex:ux_source_assets_user_hash,priority:2"`
	Scope            enums.AssetScope `gorm:"column:scope;not null"`
	AssetType        enums.AssetType  `gorm:"column:asset_type;not null"`
	ThumbnailGCSURI  *string          `gorm:"column:thumbnail_gcs_uri"`
}

func (SourceAsset) TableName() string { return "source_assets" }
