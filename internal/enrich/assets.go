package enrich

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

type SourceAssetResponse struct {
	ID                    uuid.UUID        `json:"id"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	UserID                uuid.UUID        `json:"user_id"`
	WorkspaceID           *uuid.UUID       `json:"workspace_id"`
	GCSURI                string           `json:"gcs_uri"`
	OriginalFilename      string           `json:"original_filename"`
	MimeType              string           `json:"mime_type"`
	AspectRatio           *string          `json:"aspect_ratio"`
	FileHash              string           `json:"file_hash"`
	Scope                 enums.AssetScope `json:"scope"`
	AssetType             enums.AssetType  `json:"asset_type"`
	ThumbnailGCSURI       *string          `json:"thumbnail_gcs_uri"`
	PresignedURL          *string          `json:"presigned_url"`
	PresignedThumbnailURL *string          `json:"presigned_thumbnail_url"`
}

func (s *Signer) SourceAsset(ctx context.Context, asset models.SourceAsset) SourceAssetResponse {
	resp := SourceAssetResponse{
		ID:               asset.ID,
		CreatedAt:        asset.CreatedAt,
		UpdatedAt:        asset.UpdatedAt,
		UserID:           asset.UserID,
		WorkspaceID:      asset.WorkspaceID,
		GCSURI:           asset.GCSURI,
		OriginalFilename: asset.OriginalFilename,
		MimeType:         asset.MimeType,
		AspectRatio:      asset.AspectRatio,
		FileHash:         asset.FileHash,
		Scope:            asset.Scope,
		AssetType:        asset.AssetType,
		ThumbnailGCSURI:  asset.ThumbnailGCSURI,
	}
	uris := []string{asset.GCSURI, ""}
	if asset.ThumbnailGCSURI != nil {
		uris[1] = *asset.ThumbnailGCSURI
	}
	signed := s.SignAll(ctx, uris)
	resp.PresignedURL, resp.PresignedThumbnailURL = signed[0], signed[1]
	return resp
}

func (s *Signer) SourceAssets(ctx context.Context, assets []models.SourceAsset) []SourceAssetResponse {
	out := make([]SourceAssetResponse, len(assets))
	for i, asset := range assets {
		out[i] = s.SourceAsset(ctx, asset)
	}
	return out
}

type TemplateResponse struct {
	ID                     uuid.UUID             `json:"id"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
	Name                   string                `json:"name"`
	Description            string                `json:"description"`
	MimeType               enums.MimeType        `json:"mime_type"`
	Industry               enums.Industry        `json:"industry"`
	Brand                  *string               `json:"brand"`
	Tags                   []string              `json:"tags"`
	GCSURIs                []string              `json:"gcs_uris"`
	ThumbnailURIs          []string              `json:"thumbnail_uris"`
	Model                  enums.GenerationModel `json:"model"`
	Prompt                 string                `json:"prompt"`
	NegativePrompt         string                `json:"negative_prompt"`
	AspectRatio            *enums.AspectRatio    `json:"aspect_ratio"`
	Style                  *enums.Style          `json:"style"`
	Lighting               *enums.Lighting       `json:"lighting"`
	ColorAndTone           *enums.ColorAndTone   `json:"color_and_tone"`
	Composition            *enums.Composition    `json:"composition"`
	PresignedURLs          []*string             `json:"presigned_urls"`
	PresignedThumbnailURLs []*string             `json:"presigned_thumbnail_urls"`
}

func (s *Signer) Template(ctx context.Context, tpl models.Template) TemplateResponse {
	gcs, thumbs := stringsOrEmpty(tpl.GCSURIs), stringsOrEmpty(tpl.ThumbnailURIs)
	signed := s.SignAll(ctx, append(append([]string{}, gcs...), thumbs...))
	return TemplateResponse{
		ID:                     tpl.ID,
		CreatedAt:              tpl.CreatedAt,
		UpdatedAt:              tpl.UpdatedAt,
		Name:                   tpl.Name,
		Description:            tpl.Description,
		MimeType:               tpl.MimeType,
		Industry:               tpl.Industry,
		Brand:                  tpl.Brand,
		Tags:                   stringsOrEmpty(tpl.Tags),
		GCSURIs:                gcs,
		ThumbnailURIs:          thumbs,
		Model:                  tpl.Model,
		Prompt:                 tpl.Prompt,
		NegativePrompt:         tpl.NegativePrompt,
		AspectRatio:            tpl.AspectRatio,
		Style:                  tpl.Style,
		Lighting:               tpl.Lighting,
		ColorAndTone:           tpl.ColorAndTone,
		Composition:            tpl.Composition,
		PresignedURLs:          signed[:len(gcs)],
		PresignedThumbnailURLs: signed[len(gcs):],
	}
}

func (s *Signer) Templates(ctx context.Context, templates []models.Template) []TemplateResponse {
	out := make([]TemplateResponse, len(templates))
	for i, tpl := range templates {
		out[i] = s.Template(ctx, tpl)
	}
	return out
}

type BrandGuidelineResponse struct {
	ID                  uuid.UUID  `json:"id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Name                string     `json:"name"`
	WorkspaceID         *uuid.UUID `json:"workspace_id"`
	SourcePDFGCSURIs    []string   `json:"source_pdf_gcs_uris"`
	ColorPalette        []string   `json:"color_palette"`
	LogoAssetID         *uuid.UUID `json:"logo_asset_id"`
	GuidelineText       string     `json:"guideline_text"`
	ToneOfVoiceSummary  string     `json:"tone_of_voice_summary"`
	VisualStyleSummary  string     `json:"visual_style_summary"`
	PresignedSourceURLs []*string  `json:"presigned_source_pdf_urls"`
}

func (s *Signer) BrandGuideline(ctx context.Context, g models.BrandGuideline) BrandGuidelineResponse {
	sources := stringsOrEmpty(g.SourcePDFGCSURIs)
	return BrandGuidelineResponse{
		ID:                  g.ID,
		CreatedAt:           g.CreatedAt,
		UpdatedAt:           g.UpdatedAt,
		Name:                g.Name,
		WorkspaceID:         g.WorkspaceID,
		SourcePDFGCSURIs:    sources,
		ColorPalette:        stringsOrEmpty(g.ColorPalette),
		LogoAssetID:         g.LogoAssetID,
		GuidelineText:       g.GuidelineText,
		ToneOfVoiceSummary:  g.ToneOfVoiceSummary,
		VisualStyleSummary:  g.VisualStyleSummary,
		PresignedSourceURLs: s.SignAll(ctx, sources),
	}
}
