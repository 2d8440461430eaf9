package generation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
)

// Kind selects the pipeline a job runs through.
type Kind string

const (
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindEdit      Kind = "edit"
	KindTryOn     Kind = "vto"
	KindRecontext Kind = "recontext"
)

func (k Kind) String() string { return string(k) }

func (k Kind) IsValid() bool {
	switch k {
	case KindImage, KindVideo, KindEdit, KindTryOn, KindRecontext:
		return true
	}
	return false
}

// taskModels pins the model of kinds that have exactly one.
var taskModels = map[Kind]enums.GenerationModel{
	KindEdit:      enums.GenerationModelImagenEdit,
	KindTryOn:     enums.GenerationModelTryOn,
	KindRecontext: enums.GenerationModelRecontext,
}

const (
	maxPromptLength   = 10000
	maxNegativeLength = 2000
	maxMediaPerJob    = 4
	maxSourceInputs   = 4
	defaultVideoSecs  = 8
	maxVideoSecs      = 8
	maxProductImages  = 3
)

type SourceAssetInput struct {
	AssetID uuid.UUID       `json:"asset_id" validate:"required"`
	Role    enums.AssetRole `json:"role" validate:"required,enum"`
}

type SourceMediaItemInput struct {
	MediaItemID uuid.UUID       `json:"media_item_id" validate:"required"`
	MediaIndex  int             `json:"media_index" validate:"min=0"`
	Role        enums.AssetRole `json:"role" validate:"required,enum"`
}

// GenerateRequest is the caller-supplied description of one generation job.
type GenerateRequest struct {
	WorkspaceID      uuid.UUID              `json:"workspace_id" validate:"required"`
	Prompt           string                 `json:"prompt" validate:"required,max=10000"`
	Model            enums.GenerationModel  `json:"generation_model,omitempty" validate:"omitempty,enum"`
	AspectRatio      enums.AspectRatio      `json:"aspect_ratio,omitempty" validate:"omitempty,enum"`
	NumberOfMedia    int                    `json:"number_of_media,omitempty" validate:"omitempty,min=1,max=4"`
	Style            *enums.Style           `json:"style,omitempty" validate:"omitempty,enum"`
	Lighting         *enums.Lighting        `json:"lighting,omitempty" validate:"omitempty,enum"`
	ColorAndTone     *enums.ColorAndTone    `json:"color_and_tone,omitempty" validate:"omitempty,enum"`
	Composition      *enums.Composition     `json:"composition,omitempty" validate:"omitempty,enum"`
	NegativePrompt   string                 `json:"negative_prompt,omitempty" validate:"max=2000"`
	AddWatermark     bool                   `json:"add_watermark,omitempty"`
	GenerateAudio    bool                   `json:"generate_audio,omitempty"`
	DurationSeconds  *int                   `json:"duration_seconds,omitempty" validate:"omitempty,min=1,max=8"`
	Seed             *int64                 `json:"seed,omitempty"`
	SourceAssets     []SourceAssetInput     `json:"source_assets,omitempty" validate:"max=4,dive"`
	SourceMediaItems []SourceMediaItemInput `json:"source_media_items,omitempty" validate:"max=4,dive"`
	TemplateID       *uuid.UUID             `json:"template_id,omitempty"`

	// Edit jobs only; set through EditRequest.
	EditMode     enums.EditMode `json:"-"`
	MaskMode     enums.MaskMode `json:"-"`
	MaskDilation *float64       `json:"-"`
}

// normalize fills defaults for fields the caller left empty.
func (r *GenerateRequest) normalize(kind Kind) {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.NegativePrompt = strings.TrimSpace(r.NegativePrompt)
	if r.NumberOfMedia == 0 {
		r.NumberOfMedia = 1
	}
	switch kind {
	case KindVideo:
		if r.Model == "" {
			r.Model = enums.GenerationModelVeo3Fast
		}
		if r.AspectRatio == "" {
			r.AspectRatio = enums.AspectRatio16x9
		}
		if r.DurationSeconds == nil {
			secs := defaultVideoSecs
			r.DurationSeconds = &secs
		}
	case KindImage:
		if r.Model == "" {
			r.Model = enums.GenerationModelImagen4Ultra
		}
		if r.AspectRatio == "" {
			r.AspectRatio = enums.AspectRatio1x1
		}
	default:
		if r.Model == "" {
			r.Model = taskModels[kind]
		}
		if r.AspectRatio == "" {
			r.AspectRatio = enums.AspectRatio1x1
		}
	}
	if kind == KindEdit {
		if r.EditMode == "" {
			r.EditMode = enums.EditModeInpaintInsertion
		}
		if r.MaskMode == "" {
			r.MaskMode = enums.MaskModeBackground
			if r.countRole(enums.AssetRoleMask) > 0 {
				r.MaskMode = enums.MaskModeUserProvided
			}
		}
	}
}

func (r *GenerateRequest) promptRequired(kind Kind) bool {
	switch kind {
	case KindTryOn, KindRecontext:
		return false
	case KindEdit:
		return r.EditMode.NeedsPrompt()
	}
	return true
}

func (r *GenerateRequest) roles() []enums.AssetRole {
	out := make([]enums.AssetRole, 0, len(r.SourceAssets)+len(r.SourceMediaItems))
	for _, src := range r.SourceAssets {
		out = append(out, src.Role)
	}
	for _, src := range r.SourceMediaItems {
		out = append(out, src.Role)
	}
	return out
}

func (r *GenerateRequest) countRole(role enums.AssetRole) int {
	n := 0
	for _, got := range r.roles() {
		if got == role {
			n++
		}
	}
	return n
}

// validate checks the request before anything leaves the process.
func (r *GenerateRequest) validate(kind Kind) error {
	details := map[string]string{}

	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown generation kind %q", kind))
	}
	if r.WorkspaceID == uuid.Nil {
		details["workspace_id"] = "is required"
	}
	switch {
	case r.Prompt == "" && r.promptRequired(kind):
		details["prompt"] = "cannot be empty or whitespace only"
	case len(r.Prompt) > maxPromptLength:
		details["prompt"] = fmt.Sprintf("must be at most %d characters", maxPromptLength)
	}
	if len(r.NegativePrompt) > maxNegativeLength {
		details["negative_prompt"] = fmt.Sprintf("must be at most %d characters", maxNegativeLength)
	}
	if r.NumberOfMedia < 1 || r.NumberOfMedia > maxMediaPerJob {
		details["number_of_media"] = fmt.Sprintf("must be between 1 and %d", maxMediaPerJob)
	}

	switch kind {
	case KindImage:
		if !r.Model.IsImage() {
			details["generation_model"] = "must be an image model"
		}
		if !r.AspectRatio.IsValid() {
			details["aspect_ratio"] = "is invalid"
		}
		if r.GenerateAudio {
			details["generate_audio"] = "is only supported for video"
		}
		if r.DurationSeconds != nil {
			details["duration_seconds"] = "is only supported for video"
		}
	case KindVideo:
		if !r.Model.IsVideo() {
			details["generation_model"] = "must be a video model"
		}
		if !r.AspectRatio.SupportsVideo() {
			details["aspect_ratio"] = "video supports only 16:9 and 9:16"
		}
		if r.GenerateAudio && !r.Model.SupportsAudio() {
			details["generate_audio"] = "is not supported by the selected model"
		}
		if r.DurationSeconds != nil && (*r.DurationSeconds < 1 || *r.DurationSeconds > maxVideoSecs) {
			details["duration_seconds"] = fmt.Sprintf("must be between 1 and %d", maxVideoSecs)
		}
	default:
		if r.Model != taskModels[kind] {
			details["generation_model"] = fmt.Sprintf("must be %s", taskModels[kind])
		}
		if r.GenerateAudio {
			details["generate_audio"] = "is only supported for video"
		}
		if r.DurationSeconds != nil {
			details["duration_seconds"] = "is only supported for video"
		}
	}
	r.validateEditOptions(kind, details)

	if r.Style != nil && !r.Style.IsValid() {
		details["style"] = "is invalid"
	}
	if r.Lighting != nil && !r.Lighting.IsValid() {
		details["lighting"] = "is invalid"
	}
	if r.ColorAndTone != nil && !r.ColorAndTone.IsValid() {
		details["color_and_tone"] = "is invalid"
	}
	if r.Composition != nil && !r.Composition.IsValid() {
		details["composition"] = "is invalid"
	}

	if len(r.SourceAssets) > maxSourceInputs {
		details["source_assets"] = fmt.Sprintf("must contain at most %d entries", maxSourceInputs)
	}
	for i, src := range r.SourceAssets {
		if src.AssetID == uuid.Nil || !src.Role.IsValid() {
			details[fmt.Sprintf("source_assets[%d]", i)] = "needs an asset_id and a valid role"
		} else if kind == KindVideo && !src.Role.AllowedForVideo() {
			details[fmt.Sprintf("source_assets[%d].role", i)] = "is not allowed for video"
		}
	}
	if len(r.SourceMediaItems) > maxSourceInputs {
		details["source_media_items"] = fmt.Sprintf("must contain at most %d entries", maxSourceInputs)
	}
	for i, src := range r.SourceMediaItems {
		if src.MediaItemID == uuid.Nil || src.MediaIndex < 0 || !src.Role.IsValid() {
			details[fmt.Sprintf("source_media_items[%d]", i)] = "needs a media_item_id, a media_index and a valid role"
		} else if kind == KindVideo && !src.Role.AllowedForVideo() {
			details[fmt.Sprintf("source_media_items[%d].role", i)] = "must be start_frame, end_frame or video_extension_source"
		}
	}

	if len(details) == 0 {
		r.validateReferences(kind, details)
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid generation request").WithDetails(details)
	}
	return nil
}

func (r *GenerateRequest) validateEditOptions(kind Kind, details map[string]string) {
	if kind != KindEdit {
		if r.EditMode != "" || r.MaskMode != "" || r.MaskDilation != nil {
			details["edit_mode"] = "is only supported for edits"
		}
		return
	}
	if !r.EditMode.IsValid() {
		details["edit_mode"] = "is invalid"
	}
	if !r.MaskMode.IsValid() {
		details["mask_mode"] = "is invalid"
	}
	if r.MaskDilation != nil && (*r.MaskDilation < 0 || *r.MaskDilation > 1) {
		details["mask_dilation"] = "must be between 0 and 1"
	}
}

// validateReferences checks the combination of input roles each kind needs.
func (r *GenerateRequest) validateReferences(kind Kind, details map[string]string) {
	roles := r.roles()
	switch kind {
	case KindImage:
		if len(roles) == 0 {
			return
		}
		if !r.Model.AcceptsReferences() {
			details["source_assets"] = fmt.Sprintf("model %s does not take reference images; use %s", r.Model, enums.GenerationModelGeminiImage)
			return
		}
		for _, role := range roles {
			if role != enums.AssetRoleInput && role != enums.AssetRoleStyleReference {
				details["source_assets"] = "image references must be input or style_reference"
				return
			}
		}
	case KindEdit:
		if r.countRole(enums.AssetRoleInput) != 1 {
			details["source_assets"] = "edit needs exactly one input image"
		}
		if r.countRole(enums.AssetRoleMask) > 1 {
			details["source_assets"] = "edit takes at most one mask"
		}
		if len(roles) != r.countRole(enums.AssetRoleInput)+r.countRole(enums.AssetRoleMask) {
			details["source_assets"] = "edit takes only input and mask images"
		}
		if r.MaskMode == enums.MaskModeUserProvided && r.countRole(enums.AssetRoleMask) == 0 {
			details["mask_mode"] = "user_provided needs a mask image"
		}
	case KindTryOn:
		garments := 0
		for _, role := range roles {
			switch {
			case role == enums.AssetRoleVTOPerson:
			case role.IsGarment():
				garments++
				if r.countRole(role) > 1 {
					details["source_assets"] = fmt.Sprintf("try-on takes one %s image", role)
				}
			default:
				details["source_assets"] = fmt.Sprintf("try-on does not take %s images", role)
			}
		}
		if r.countRole(enums.AssetRoleVTOPerson) != 1 {
			details["person_image"] = "try-on needs exactly one person image"
		}
		if garments == 0 {
			details["garments"] = "try-on needs at least one garment"
		}
		if r.countRole(enums.AssetRoleVTODress) > 0 && (r.countRole(enums.AssetRoleVTOTop) > 0 || r.countRole(enums.AssetRoleVTOBottom) > 0) {
			details["dress_image"] = "a dress cannot be combined with a top or bottom"
		}
	case KindRecontext:
		products := r.countRole(enums.AssetRoleProduct)
		if products != len(roles) {
			details["source_assets"] = "recontext takes only product images"
		}
		if products < 1 || products > maxProductImages {
			details["product_images"] = fmt.Sprintf("must contain between 1 and %d images", maxProductImages)
		}
	}
}
