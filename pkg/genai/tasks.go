package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

const (
	maxProductImages = 3

	referenceTypeRaw  = "REFERENCE_TYPE_RAW"
	referenceTypeMask = "REFERENCE_TYPE_MASK"
)

// garmentOrder is the order garments are dressed onto the person.
var garmentOrder = []enums.AssetRole{
	enums.AssetRoleVTOTop,
	enums.AssetRoleVTOBottom,
	enums.AssetRoleVTODress,
	enums.AssetRoleVTOShoe,
}

// UpscaleRequest asks for a higher resolution copy of one stored image.
type UpscaleRequest struct {
	ImageURI  string
	Factor    enums.UpscaleFactor
	OutputURI string
	MimeType  string
}

// Upscale runs the configured upscale model once and returns the new image.
func (c *Client) Upscale(ctx context.Context, req UpscaleRequest) (Artifact, error) {
	if c.cfg.UpscaleModel == "" {
		return Artifact{}, errors.New("upscale model is not configured")
	}
	if req.ImageURI == "" {
		return Artifact{}, errors.New("image uri is required")
	}
	if !req.Factor.IsValid() {
		return Artifact{}, fmt.Errorf("unsupported upscale factor %q", req.Factor)
	}
	mime := defaultMime(req.MimeType, "image/png")
	body := predictRequest{
		Instances: []instance{{Image: &media{GCSURI: req.ImageURI}}},
		Parameters: parameters{
			SampleCount:   1,
			Mode:          "upscale",
			StorageURI:    req.OutputURI,
			UpscaleConfig: &upscaleConfig{UpscaleFactor: req.Factor.String()},
			OutputOptions: &outputOptions{MimeType: mime},
		},
	}
	resp, err := c.predict(ctx, c.cfg.UpscaleModel, "image_upscale", body)
	if err != nil {
		return Artifact{}, err
	}
	op := imageOperation(enums.GenerationModel(c.cfg.UpscaleModel), resp)
	if len(op.Artifacts) == 0 {
		return Artifact{}, errors.New(op.Error)
	}
	return op.Artifacts[0], nil
}

func editMode(req Request) enums.EditMode {
	if req.EditMode == "" {
		return enums.EditModeInpaintInsertion
	}
	return req.EditMode
}

func buildEditRequest(req Request, params parameters) (predictRequest, error) {
	var source, mask *Reference
	for i := range req.References {
		ref := &req.References[i]
		switch ref.Role {
		case enums.AssetRoleInput:
			if source != nil {
				return predictRequest{}, errors.New("edit takes exactly one input image")
			}
			source = ref
		case enums.AssetRoleMask:
			if mask != nil {
				return predictRequest{}, errors.New("edit takes at most one mask")
			}
			mask = ref
		default:
			return predictRequest{}, fmt.Errorf("edit does not take %s references", ref.Role)
		}
	}
	if source == nil {
		return predictRequest{}, errors.New("edit needs an input image")
	}

	maskMode := req.MaskMode
	if maskMode == "" {
		maskMode = enums.MaskModeBackground
		if mask != nil {
			maskMode = enums.MaskModeUserProvided
		}
	}
	if maskMode == enums.MaskModeUserProvided && mask == nil {
		return predictRequest{}, errors.New("user provided mask mode needs a mask image")
	}

	maskRef := referenceImage{
		ReferenceType:   referenceTypeMask,
		ReferenceID:     2,
		MaskImageConfig: &maskImageConfig{MaskMode: maskMode.Remote(), Dilation: req.MaskDilation},
	}
	if mask != nil {
		maskRef.ReferenceImage = &media{GCSURI: mask.URI, MimeType: mask.MimeType}
	}
	inst := instance{
		Prompt: req.Prompt,
		ReferenceImages: []referenceImage{
			{ReferenceType: referenceTypeRaw, ReferenceID: 1, ReferenceImage: &media{GCSURI: source.URI, MimeType: source.MimeType}},
			maskRef,
		},
	}
	params.EditMode = editMode(req).Remote()
	return predictRequest{Instances: []instance{inst}, Parameters: params}, nil
}

func buildRecontextRequest(req Request, params parameters) (predictRequest, error) {
	inst := instance{Prompt: req.Prompt}
	for _, ref := range req.References {
		if ref.Role != enums.AssetRoleProduct {
			return predictRequest{}, fmt.Errorf("recontext does not take %s references", ref.Role)
		}
		inst.ProductImages = append(inst.ProductImages, imageHolder{Image: media{GCSURI: ref.URI, MimeType: ref.MimeType}})
	}
	if len(inst.ProductImages) == 0 || len(inst.ProductImages) > maxProductImages {
		return predictRequest{}, fmt.Errorf("recontext takes between 1 and %d product images", maxProductImages)
	}
	return predictRequest{Instances: []instance{inst}, Parameters: params}, nil
}

// tryOn dresses the person one garment at a time. Intermediate results come
// back inline and become the person of the next step; only the last step
// samples NumMedia images into OutputURI.
func (c *Client) tryOn(ctx context.Context, req Request) (Operation, error) {
	var person *media
	garments := make(map[enums.AssetRole]Reference)
	for _, ref := range req.References {
		switch {
		case ref.Role == enums.AssetRoleVTOPerson:
			if person != nil {
				return Operation{}, errors.New("try-on takes exactly one person image")
			}
			person = &media{GCSURI: ref.URI, MimeType: ref.MimeType}
		case ref.Role.IsGarment():
			if _, dup := garments[ref.Role]; dup {
				return Operation{}, fmt.Errorf("try-on takes one %s image", ref.Role)
			}
			garments[ref.Role] = ref
		default:
			return Operation{}, fmt.Errorf("try-on does not take %s references", ref.Role)
		}
	}
	if person == nil || len(garments) == 0 {
		return Operation{}, errors.New("try-on needs a person and at least one garment")
	}

	var steps []Reference
	for _, role := range garmentOrder {
		if g, ok := garments[role]; ok {
			steps = append(steps, g)
		}
	}

	samples := req.NumMedia
	if samples < 1 {
		samples = 1
	}
	for i, garment := range steps {
		last := i == len(steps)-1
		params := parameters{SampleCount: 1, Seed: req.Seed, PersonGen: "allow_adult"}
		if last {
			params.SampleCount = samples
			params.StorageURI = req.OutputURI
		}
		body := predictRequest{
			Instances: []instance{{
				PersonImage:   &imageHolder{Image: *person},
				ProductImages: []imageHolder{{Image: media{GCSURI: garment.URI, MimeType: garment.MimeType}}},
			}},
			Parameters: params,
		}
		resp, err := c.predict(ctx, req.Model.String(), "try_on_predict", body)
		if err != nil {
			return Operation{}, err
		}
		op := imageOperation(req.Model, resp)
		if last || op.Error != "" {
			return op, nil
		}
		step := op.Artifacts[0]
		if step.Data != nil {
			person = &media{BytesBase64Encoded: base64.StdEncoding.EncodeToString(step.Data), MimeType: step.MimeType}
		} else {
			person = &media{GCSURI: step.URI, MimeType: step.MimeType}
		}
	}
	return Operation{}, errors.New("try-on produced no steps")
}

// geminiImages asks the image-capable Gemini model for NumMedia images, one
// call each. Images come back inline.
func (c *Client) geminiImages(ctx context.Context, req Request) (Operation, error) {
	parts := []part{{Text: req.Prompt}}
	for _, ref := range req.References {
		if ref.Role != enums.AssetRoleInput && ref.Role != enums.AssetRoleStyleReference {
			return Operation{}, fmt.Errorf("model %s does not take %s references", req.Model, ref.Role)
		}
		parts = append(parts, part{FileData: &fileData{MimeType: defaultMime(ref.MimeType, "image/png"), FileURI: ref.URI}})
	}
	body := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:        1,
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	if req.AspectRatio != "" {
		body.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: req.AspectRatio.String()}
	}

	results, err := fanOut(ctx, req.NumMedia, func(ctx context.Context) ([]Artifact, error) {
		return withRetry(ctx, c, "gemini_image", func() ([]Artifact, error) {
			var resp generateContentResponse
			if err := c.post(ctx, c.modelURL(req.Model.String(), "generateContent"), body, &resp); err != nil {
				return nil, err
			}
			return inlineImages(resp)
		})
	})
	if err != nil {
		return Operation{}, err
	}

	op := Operation{Model: req.Model, Done: true}
	for _, artifacts := range results {
		op.Artifacts = append(op.Artifacts, artifacts...)
	}
	if len(op.Artifacts) == 0 {
		op.Error = "model returned no images"
	}
	return op, nil
}

func inlineImages(resp generateContentResponse) ([]Artifact, error) {
	var out []Artifact
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MimeType, "image/") {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline image: %w", err)
			}
			out = append(out, Artifact{MimeType: p.InlineData.MimeType, Data: data})
		}
	}
	return out, nil
}
