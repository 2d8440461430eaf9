package enrich

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

type sourceAssetLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.SourceAsset, error)
}

type mediaItemLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error)
}

// SourceAssetLinkResponse is a source asset link resolved to its stored object.
type SourceAssetLinkResponse struct {
	AssetID      uuid.UUID       `json:"asset_id"`
	Role         enums.AssetRole `json:"role"`
	GCSURI       string          `json:"gcs_uri"`
	PresignedURL *string         `json:"presigned_url"`
}

// SourceMediaItemLinkResponse is a link to one output of an earlier generation.
type SourceMediaItemLinkResponse struct {
	MediaItemID  uuid.UUID       `json:"media_item_id"`
	MediaIndex   int             `json:"media_index"`
	Role         enums.AssetRole `json:"role"`
	GCSURI       string          `json:"gcs_uri"`
	PresignedURL *string         `json:"presigned_url"`
}

// MediaItemResponse is the client view of a gallery item.
type MediaItemResponse struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uuid.UUID `json:"user_id"`
	UserEmail   string    `json:"user_email"`
	WorkspaceID uuid.UUID `json:"workspace_id"`

	MimeType        enums.MimeType        `json:"mime_type"`
	Model           enums.GenerationModel `json:"model"`
	Prompt          string                `json:"prompt"`
	OriginalPrompt  string                `json:"original_prompt"`
	RewrittenPrompt *string               `json:"rewritten_prompt"`
	NegativePrompt  string                `json:"negative_prompt"`
	NumMedia        int                   `json:"num_media"`
	AspectRatio     enums.AspectRatio     `json:"aspect_ratio"`
	Style           *enums.Style          `json:"style"`
	Lighting        *enums.Lighting       `json:"lighting"`
	ColorAndTone    *enums.ColorAndTone   `json:"color_and_tone"`
	Composition     *enums.Composition    `json:"composition"`
	AddWatermark    bool                  `json:"add_watermark"`
	GenerateAudio   bool                  `json:"generate_audio"`
	DurationSeconds *int                  `json:"duration_seconds"`
	Seed            *int64                `json:"seed"`

	Status         enums.JobStatus `json:"status"`
	GCSURIs        []string        `json:"gcs_uris"`
	ThumbnailURIs  []string        `json:"thumbnail_uris"`
	GenerationTime *float64        `json:"generation_time"`
	ErrorMessage   *string         `json:"error_message"`

	PresignedURLs          []*string `json:"presigned_urls"`
	PresignedThumbnailURLs []*string `json:"presigned_thumbnail_urls"`

	SourceAssets          []SourceAssetLinkResponse     `json:"source_assets"`
	SourceMediaItems      []SourceMediaItemLinkResponse `json:"source_media_items"`
	ParentMediaItemID     *uuid.UUID                    `json:"parent_media_item_id"`
	CreatedFromTemplateID *uuid.UUID                    `json:"created_from_template_id"`
}

// MediaPresenter builds enriched media item responses.
type MediaPresenter struct {
	signer *Signer
	assets sourceAssetLookup
	items  mediaItemLookup
}

func NewMediaPresenter(signer *Signer, assets sourceAssetLookup, items mediaItemLookup) *MediaPresenter {
	return &MediaPresenter{signer: signer, assets: assets, items: items}
}

// Present signs the main and thumbnail URLs and resolves input links.
// Links whose target is gone are omitted.
func (p *MediaPresenter) Present(ctx context.Context, item models.MediaItem) MediaItemResponse {
	resp := baseMediaResponse(item)

	var (
		g      errgroup.Group
		assets = make([]*SourceAssetLinkResponse, len(item.SourceAssets))
		parent = make([]*SourceMediaItemLinkResponse, len(item.SourceMediaItems))
	)
	g.Go(func() error {
		resp.PresignedURLs = p.signer.SignAll(ctx, item.GCSURIs)
		return nil
	})
	g.Go(func() error {
		resp.PresignedThumbnailURLs = p.signer.SignAll(ctx, item.ThumbnailURIs)
		return nil
	})
	for i, link := range item.SourceAssets {
		g.Go(func() error {
			assets[i] = p.resolveAsset(ctx, link)
			return nil
		})
	}
	for i, link := range item.SourceMediaItems {
		g.Go(func() error {
			parent[i] = p.resolveMediaItem(ctx, link)
			return nil
		})
	}
	_ = g.Wait()

	for _, a := range assets {
		if a != nil {
			resp.SourceAssets = append(resp.SourceAssets, *a)
		}
	}
	for _, m := range parent {
		if m != nil {
			resp.SourceMediaItems = append(resp.SourceMediaItems, *m)
		}
	}
	return resp
}

// PresentAll keeps the input order.
func (p *MediaPresenter) PresentAll(ctx context.Context, items []models.MediaItem) []MediaItemResponse {
	out := make([]MediaItemResponse, len(items))
	var g errgroup.Group
	g.SetLimit(p.signer.concurrency)
	for i, item := range items {
		g.Go(func() error {
			out[i] = p.Present(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *MediaPresenter) resolveAsset(ctx context.Context, link models.SourceAssetLink) *SourceAssetLinkResponse {
	if p.assets == nil {
		return nil
	}
	asset, err := p.assets.FindByID(ctx, link.AssetID)
	if err != nil || asset == nil {
		return nil
	}
	return &SourceAssetLinkResponse{
		AssetID:      link.AssetID,
		Role:         link.Role,
		GCSURI:       asset.GCSURI,
		PresignedURL: p.signer.Sign(ctx, asset.GCSURI),
	}
}

func (p *MediaPresenter) resolveMediaItem(ctx context.Context, link models.SourceMediaItemLink) *SourceMediaItemLinkResponse {
	if p.items == nil {
		return nil
	}
	item, err := p.items.FindByID(ctx, link.MediaItemID)
	if err != nil || item == nil {
		return nil
	}
	if link.MediaIndex < 0 || link.MediaIndex >= len(item.GCSURIs) {
		return nil
	}
	uri := item.GCSURIs[link.MediaIndex]
	return &SourceMediaItemLinkResponse{
		MediaItemID:  link.MediaItemID,
		MediaIndex:   link.MediaIndex,
		Role:         link.Role,
		GCSURI:       uri,
		PresignedURL: p.signer.Sign(ctx, uri),
	}
}

func baseMediaResponse(item models.MediaItem) MediaItemResponse {
	return MediaItemResponse{
		ID:                    item.ID,
		CreatedAt:             item.CreatedAt,
		UpdatedAt:             item.UpdatedAt,
		UserID:                item.UserID,
		UserEmail:             item.UserEmail,
		WorkspaceID:           item.WorkspaceID,
		MimeType:              item.MimeType,
		Model:                 item.Model,
		Prompt:                item.Prompt,
		OriginalPrompt:        item.OriginalPrompt,
		RewrittenPrompt:       item.RewrittenPrompt,
		NegativePrompt:        item.NegativePrompt,
		NumMedia:              item.NumMedia,
		AspectRatio:           item.AspectRatio,
		Style:                 item.Style,
		Lighting:              item.Lighting,
		ColorAndTone:          item.ColorAndTone,
		Composition:           item.Composition,
		AddWatermark:          item.AddWatermark,
		GenerateAudio:         item.GenerateAudio,
		DurationSeconds:       item.DurationSeconds,
		Seed:                  item.Seed,
		Status:                item.Status,
		GCSURIs:               stringsOrEmpty(item.GCSURIs),
		ThumbnailURIs:         stringsOrEmpty(item.ThumbnailURIs),
		GenerationTime:        item.GenerationTime,
		ErrorMessage:          item.ErrorMessage,
		SourceAssets:          []SourceAssetLinkResponse{},
		SourceMediaItems:      []SourceMediaItemLinkResponse{},
		ParentMediaItemID:     item.ParentMediaItemID,
		CreatedFromTemplateID: item.CreatedFromTemplateID,
	}
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
