package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// maxParallelCalls bounds the per-image calls of single-sample models.
const maxParallelCalls = 4

// Reference is an input image passed to the model by URI.
type Reference struct {
	URI      string
	MimeType string
	Role     enums.AssetRole
}

// Request describes one generation call.
type Request struct {
	Model           enums.GenerationModel
	Prompt          string
	NegativePrompt  string
	NumMedia        int
	AspectRatio     enums.AspectRatio
	AddWatermark    bool
	GenerateAudio   bool
	DurationSeconds *int
	Seed            *int64
	// OutputURI is the gs:// prefix the model writes artifacts under.
	OutputURI  string
	References []Reference

	// Edit model only.
	EditMode     enums.EditMode
	MaskMode     enums.MaskMode
	MaskDilation *float64
}

// Artifact is one generated file. Data is set instead of URI when the model
// answered inline; the caller stores it.
type Artifact struct {
	URI      string
	MimeType string
	Data     []byte
}

// Operation is a handle on a generation. Image models complete synchronously
// so their operation is already Done.
type Operation struct {
	Name      string
	Model     enums.GenerationModel
	Done      bool
	Artifacts []Artifact
	Error     string
}

type media struct {
	GCSURI             string `json:"gcsUri,omitempty"`
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

type imageHolder struct {
	Image media `json:"image"`
}

type maskImageConfig struct {
	MaskMode string   `json:"maskMode"`
	Dilation *float64 `json:"dilation,omitempty"`
}

type referenceImage struct {
	ReferenceType   string           `json:"referenceType"`
	ReferenceID     int              `json:"referenceId"`
	ReferenceImage  *media           `json:"referenceImage,omitempty"`
	MaskImageConfig *maskImageConfig `json:"maskImageConfig,omitempty"`
}

type instance struct {
	Prompt          string           `json:"prompt,omitempty"`
	Image           *media           `json:"image,omitempty"`
	LastFrame       *media           `json:"lastFrame,omitempty"`
	Video           *media           `json:"video,omitempty"`
	ReferenceImages []referenceImage `json:"referenceImages,omitempty"`
	PersonImage     *imageHolder     `json:"personImage,omitempty"`
	ProductImages   []imageHolder    `json:"productImages,omitempty"`
}

type upscaleConfig struct {
	UpscaleFactor string `json:"upscaleFactor"`
}

type outputOptions struct {
	MimeType string `json:"mimeType"`
}

type parameters struct {
	SampleCount     int            `json:"sampleCount"`
	AspectRatio     string         `json:"aspectRatio,omitempty"`
	NegativePrompt  string         `json:"negativePrompt,omitempty"`
	AddWatermark    *bool          `json:"addWatermark,omitempty"`
	GenerateAudio   *bool          `json:"generateAudio,omitempty"`
	DurationSeconds *int           `json:"durationSeconds,omitempty"`
	Seed            *int64         `json:"seed,omitempty"`
	StorageURI      string         `json:"storageUri,omitempty"`
	PersonGen       string         `json:"personGeneration,omitempty"`
	EditMode        string         `json:"editMode,omitempty"`
	Mode            string         `json:"mode,omitempty"`
	UpscaleConfig   *upscaleConfig `json:"upscaleConfig,omitempty"`
	OutputOptions   *outputOptions `json:"outputOptions,omitempty"`
}

type predictRequest struct {
	Instances  []instance `json:"instances"`
	Parameters parameters `json:"parameters"`
}

type prediction struct {
	GCSURI             string `json:"gcsUri"`
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
	RAIFilteredReason  string `json:"raiFilteredReason"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type operationResponse struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *operationError `json:"error"`
	Response *struct {
		Videos                  []media  `json:"videos"`
		RAIMediaFilteredCount   int      `json:"raiMediaFilteredCount"`
		RAIMediaFilteredReasons []string `json:"raiMediaFilteredReasons"`
	} `json:"response"`
}

// Submit starts a generation. Transient failures are retried per call.
// Models that answer one image per call get NumMedia concurrent calls whose
// results are concatenated in call order.
func (c *Client) Submit(ctx context.Context, req Request) (Operation, error) {
	if !req.Model.IsValid() {
		return Operation{}, fmt.Errorf("unsupported model %q", req.Model)
	}
	if promptRequired(req) && strings.TrimSpace(req.Prompt) == "" {
		return Operation{}, errors.New("prompt is required")
	}

	switch {
	case req.Model.IsVideo():
		return c.submitVideo(ctx, req)
	case req.Model == enums.GenerationModelGeminiImage:
		return c.geminiImages(ctx, req)
	case req.Model == enums.GenerationModelTryOn:
		return c.tryOn(ctx, req)
	}

	body, err := buildPredictRequest(req)
	if err != nil {
		return Operation{}, err
	}
	calls := 1
	if req.Model.SingleSample() {
		calls = body.Parameters.SampleCount
		body.Parameters.SampleCount = 1
	}
	resps, err := fanOut(ctx, calls, func(ctx context.Context) (predictResponse, error) {
		return c.predict(ctx, req.Model.String(), "image_predict", body)
	})
	if err != nil {
		return Operation{}, err
	}
	var merged predictResponse
	for _, r := range resps {
		merged.Predictions = append(merged.Predictions, r.Predictions...)
	}
	return imageOperation(req.Model, merged), nil
}

// Poll fetches the current state of a long-running operation once. Errors
// are returned as-is; polling is never retried.
func (c *Client) Poll(ctx context.Context, op Operation) (Operation, error) {
	if op.Done {
		return op, nil
	}
	if op.Name == "" {
		return Operation{}, errors.New("operation name is required")
	}
	var resp operationResponse
	body := map[string]string{"operationName": op.Name}
	if err := c.post(ctx, c.modelURL(op.Model.String(), "fetchPredictOperation"), body, &resp); err != nil {
		return Operation{}, err
	}
	if resp.Name == "" {
		resp.Name = op.Name
	}
	return videoOperation(op.Model, resp), nil
}

func (c *Client) submitVideo(ctx context.Context, req Request) (Operation, error) {
	body, err := buildPredictRequest(req)
	if err != nil {
		return Operation{}, err
	}
	return withRetry(ctx, c, "video_submit", func() (Operation, error) {
		var resp operationResponse
		if err := c.post(ctx, c.modelURL(req.Model.String(), "predictLongRunning"), body, &resp); err != nil {
			return Operation{}, err
		}
		if resp.Name == "" {
			return Operation{}, errors.New("vertex returned no operation name")
		}
		return videoOperation(req.Model, resp), nil
	})
}

func (c *Client) predict(ctx context.Context, model, operation string, body predictRequest) (predictResponse, error) {
	return withRetry(ctx, c, operation, func() (predictResponse, error) {
		var resp predictResponse
		err := c.post(ctx, c.modelURL(model, "predict"), body, &resp)
		return resp, err
	})
}

// fanOut runs call n times concurrently. Results keep call order; the first
// error cancels the rest.
func fanOut[T any](ctx context.Context, n int, call func(ctx context.Context) (T, error)) ([]T, error) {
	if n < 1 {
		n = 1
	}
	out := make([]T, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCalls)
	for i := range n {
		g.Go(func() error {
			res, err := call(gctx)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func promptRequired(req Request) bool {
	switch req.Model {
	case enums.GenerationModelTryOn, enums.GenerationModelRecontext:
		return false
	case enums.GenerationModelImagenEdit:
		return editMode(req).NeedsPrompt()
	}
	return true
}

func buildPredictRequest(req Request) (predictRequest, error) {
	params := parameters{
		SampleCount:    req.NumMedia,
		NegativePrompt: req.NegativePrompt,
		Seed:           req.Seed,
		StorageURI:     req.OutputURI,
		PersonGen:      "allow_adult",
	}
	if params.SampleCount < 1 {
		params.SampleCount = 1
	}

	switch {
	case req.Model.IsVideo():
		return buildVideoRequest(req, params)
	case req.Model == enums.GenerationModelImagenEdit:
		return buildEditRequest(req, params)
	case req.Model == enums.GenerationModelRecontext:
		return buildRecontextRequest(req, params)
	}

	if len(req.References) > 0 {
		return predictRequest{}, fmt.Errorf("model %s does not take reference images", req.Model)
	}
	watermark := req.AddWatermark
	params.AddWatermark = &watermark
	params.AspectRatio = req.AspectRatio.String()
	return predictRequest{Instances: []instance{{Prompt: req.Prompt}}, Parameters: params}, nil
}

func buildVideoRequest(req Request, params parameters) (predictRequest, error) {
	inst := instance{Prompt: req.Prompt}
	params.AspectRatio = req.AspectRatio.String()
	params.DurationSeconds = req.DurationSeconds
	if req.Model.SupportsAudio() {
		audio := req.GenerateAudio
		params.GenerateAudio = &audio
	}
	for _, ref := range req.References {
		m := &media{GCSURI: ref.URI, MimeType: ref.MimeType}
		switch ref.Role {
		case enums.AssetRoleStartFrame, enums.AssetRoleInput:
			inst.Image = m
		case enums.AssetRoleEndFrame:
			inst.LastFrame = m
		case enums.AssetRoleVideoExtensionSource:
			inst.Video = m
		default:
			return predictRequest{}, fmt.Errorf("video models do not take %s references", ref.Role)
		}
	}
	return predictRequest{Instances: []instance{inst}, Parameters: params}, nil
}

func imageOperation(model enums.GenerationModel, resp predictResponse) Operation {
	op := Operation{Model: model, Done: true}
	var filtered []string
	for _, p := range resp.Predictions {
		artifact := Artifact{URI: p.GCSURI, MimeType: defaultMime(p.MimeType, "image/png")}
		if artifact.URI == "" && p.BytesBase64Encoded != "" {
			data, err := base64.StdEncoding.DecodeString(p.BytesBase64Encoded)
			if err != nil {
				filtered = append(filtered, "undecodable image payload")
				continue
			}
			artifact.Data = data
		}
		if artifact.URI == "" && artifact.Data == nil {
			if p.RAIFilteredReason != "" {
				filtered = append(filtered, p.RAIFilteredReason)
			}
			continue
		}
		op.Artifacts = append(op.Artifacts, artifact)
	}
	if len(op.Artifacts) == 0 {
		op.Error = "model returned no images"
		if len(filtered) > 0 {
			op.Error = "all images were filtered: " + strings.Join(filtered, "; ")
		}
	}
	return op
}

func videoOperation(model enums.GenerationModel, resp operationResponse) Operation {
	op := Operation{Name: resp.Name, Model: model, Done: resp.Done}
	if !resp.Done {
		return op
	}
	if resp.Error != nil {
		op.Error = resp.Error.Message
		if op.Error == "" {
			op.Error = fmt.Sprintf("remote error code %d", resp.Error.Code)
		}
		return op
	}
	if resp.Response != nil {
		for _, v := range resp.Response.Videos {
			if v.GCSURI == "" {
				continue
			}
			op.Artifacts = append(op.Artifacts, Artifact{URI: v.GCSURI, MimeType: defaultMime(v.MimeType, "video/mp4")})
		}
	}
	if len(op.Artifacts) == 0 {
		op.Error = "model returned no videos"
		if resp.Response != nil && len(resp.Response.RAIMediaFilteredReasons) > 0 {
			op.Error = "all videos were filtered: " + strings.Join(resp.Response.RAIMediaFilteredReasons, "; ")
		}
	}
	return op
}

func defaultMime(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
