package generation

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// ImageInput points at an uploaded asset or at one output of a finished
// generation. Exactly one of AssetID and MediaItemID is set.
type ImageInput struct {
	AssetID     *uuid.UUID `json:"asset_id,omitempty" validate:"required_without=MediaItemID,excluded_with=MediaItemID"`
	MediaItemID *uuid.UUID `json:"media_item_id,omitempty" validate:"required_without=AssetID"`
	MediaIndex  int        `json:"media_index,omitempty" validate:"min=0"`
}

func (in ImageInput) attach(req *GenerateRequest, role enums.AssetRole) {
	if in.AssetID != nil {
		req.SourceAssets = append(req.SourceAssets, SourceAssetInput{AssetID: *in.AssetID, Role: role})
		return
	}
	if in.MediaItemID != nil {
		req.SourceMediaItems = append(req.SourceMediaItems, SourceMediaItemInput{MediaItemID: *in.MediaItemID, MediaIndex: in.MediaIndex, Role: role})
	}
}

// JobPayload is a request body that becomes one generation job.
type JobPayload interface {
	GenerateRequest() GenerateRequest
}

// TryOnRequest dresses a person image in up to four garments.
type TryOnRequest struct {
	WorkspaceID   uuid.UUID   `json:"workspace_id" validate:"required"`
	PersonImage   ImageInput  `json:"person_image"`
	TopImage      *ImageInput `json:"top_image,omitempty"`
	BottomImage   *ImageInput `json:"bottom_image,omitempty"`
	DressImage    *ImageInput `json:"dress_image,omitempty"`
	ShoeImage     *ImageInput `json:"shoe_image,omitempty"`
	NumberOfMedia int         `json:"number_of_media,omitempty" validate:"omitempty,min=1,max=4"`
	Seed          *int64      `json:"seed,omitempty"`
}

func (p TryOnRequest) GenerateRequest() GenerateRequest {
	req := GenerateRequest{WorkspaceID: p.WorkspaceID, NumberOfMedia: p.NumberOfMedia, Seed: p.Seed}
	p.PersonImage.attach(&req, enums.AssetRoleVTOPerson)
	garments := []struct {
		in   *ImageInput
		role enums.AssetRole
	}{
		{p.TopImage, enums.AssetRoleVTOTop},
		{p.BottomImage, enums.AssetRoleVTOBottom},
		{p.DressImage, enums.AssetRoleVTODress},
		{p.ShoeImage, enums.AssetRoleVTOShoe},
	}
	for _, g := range garments {
		if g.in != nil {
			g.in.attach(&req, g.role)
		}
	}
	return req
}

// EditRequest changes one image, optionally inside a caller-supplied mask.
type EditRequest struct {
	WorkspaceID    uuid.UUID      `json:"workspace_id" validate:"required"`
	Prompt         string         `json:"prompt,omitempty" validate:"max=10000"`
	NegativePrompt string         `json:"negative_prompt,omitempty" validate:"max=2000"`
	Image          ImageInput     `json:"image"`
	Mask           *ImageInput    `json:"mask,omitempty"`
	EditMode       enums.EditMode `json:"edit_mode,omitempty" validate:"omitempty,enum"`
	MaskMode       enums.MaskMode `json:"mask_mode,omitempty" validate:"omitempty,enum"`
	MaskDilation   *float64       `json:"mask_dilation,omitempty" validate:"omitempty,min=0,max=1"`
	NumberOfMedia  int            `json:"number_of_media,omitempty" validate:"omitempty,min=1,max=4"`
	Seed           *int64         `json:"seed,omitempty"`
}

func (p EditRequest) GenerateRequest() GenerateRequest {
	req := GenerateRequest{
		WorkspaceID:    p.WorkspaceID,
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
		NumberOfMedia:  p.NumberOfMedia,
		Seed:           p.Seed,
		EditMode:       p.EditMode,
		MaskMode:       p.MaskMode,
		MaskDilation:   p.MaskDilation,
	}
	p.Image.attach(&req, enums.AssetRoleInput)
	if p.Mask != nil {
		p.Mask.attach(&req, enums.AssetRoleMask)
	}
	return req
}

// RecontextRequest places one to three product shots into a new scene.
type RecontextRequest struct {
	WorkspaceID   uuid.UUID    `json:"workspace_id" validate:"required"`
	Prompt        string       `json:"prompt,omitempty" validate:"max=10000"`
	ProductImages []ImageInput `json:"product_images" validate:"min=1,max=3,dive"`
	NumberOfMedia int          `json:"number_of_media,omitempty" validate:"omitempty,min=1,max=4"`
	Seed          *int64       `json:"seed,omitempty"`
}

func (p RecontextRequest) GenerateRequest() GenerateRequest {
	req := GenerateRequest{
		WorkspaceID:   p.WorkspaceID,
		Prompt:        strings.TrimSpace(p.Prompt),
		NumberOfMedia: p.NumberOfMedia,
		Seed:          p.Seed,
	}
	for _, in := range p.ProductImages {
		in.attach(&req, enums.AssetRoleProduct)
	}
	return req
}
