package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// BrandGuideline holds the structured fields extracted from a brand PDF.
// A nil WorkspaceID marks the single global guideline.
type BrandGuideline struct {
	Record

	Name               string         `gorm:"column:name;not null"`
	WorkspaceID        *uuid.UUID     `gorm:"column:workspace_id;type:uuid;uniqueIndex"`
	SourcePDFGCSURIs   pq.StringArray `gorm:"column:source_pdf_gcs_uris;type:text[];not null"`
	ColorPalette       pq.StringArray `gorm:"column:color_palette;type:text[];not null"`
	LogoAssetID        *uuid.UUID     `gorm:"column:logo_asset_id;type:uuid"`
	GuidelineText      string         `gorm:"column:guideline_text;not null;default:''"`
	ToneOfVoiceSummary string         `gorm:"column:tone_of_voice_summary;not null;default:''"`
	VisualStyleSummary string         `gorm:"column:visual_style_summary;not null;default:''"`
}

func (BrandGuideline) TableName() string { return "brand_guidelines" }
