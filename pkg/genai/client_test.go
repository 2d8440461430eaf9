package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
)

func testConfig() config.GenAIConfig {
	return config.GenAIConfig{
		RewriteModel:   "gemini-2.5-flash",
		TextModel:      "gemini-2.5-pro",
		UpscaleModel:   "imagen-3.0-generate-002",
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
		PollInterval:   time.Millisecond,
		PollCeiling:    time.Second,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.Client(), srv.URL+"/models", testConfig(), nil, opts...)
}

func TestSubmitImageReturnsCompletedOperation(t *testing.T) {
	var captured predictRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/imagen-4.0-generate-001:predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, `{"predictions":[
			{"gcsUri":"gs://b/generated/1/a.png","mimeType":"image/png"},
			{"raiFilteredReason":"blocked"},
			{"gcsUri":"gs://b/generated/1/b.png"}]}`)
	})

	op, err := client.Submit(context.Background(), Request{
		Model:        enums.GenerationModel("imagen-4.0-generate-001"),
		Prompt:       "a red fox",
		NumMedia:     3,
		AspectRatio:  enums.AspectRatio("1:1"),
		AddWatermark: true,
		OutputURI:    "gs://b/generated/1",
	})
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Empty(t, op.Error)
	require.Len(t, op.Artifacts, 2)
	assert.Equal(t, "gs://b/generated/1/a.png", op.Artifacts[0].URI)
	assert.Equal(t, "image/png", op.Artifacts[1].MimeType)

	assert.Equal(t, 3, captured.Parameters.SampleCount)
	assert.Equal(t, "gs://b/generated/1", captured.Parameters.StorageURI)
	require.NotNil(t, captured.Parameters.AddWatermark)
	assert.True(t, *captured.Parameters.AddWatermark)
	assert.Nil(t, captured.Parameters.GenerateAudio)
}

func TestSubmitImageAllFiltered(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"predictions":[{"raiFilteredReason":"unsafe"}]}`)
	})
	op, err := client.Submit(context.Background(), Request{Model: "imagen-4.0-generate-001", Prompt: "x", NumMedia: 1})
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Contains(t, op.Error, "unsafe")
}

func TestSubmitRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	var retries atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"name":"projects/p/operations/op-1"}`)
	}, WithRetryHook(func(string) { retries.Add(1) }))

	op, err := client.Submit(context.Background(), Request{Model: "veo-3.0-generate-001", Prompt: "waves", NumMedia: 1})
	require.NoError(t, err)
	assert.False(t, op.Done)
	assert.Equal(t, "projects/p/operations/op-1", op.Name)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(2), retries.Load())
}

func TestSubmitGivesUpAfterAttemptBudget(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Submit(context.Background(), Request{Model: "veo-3.0-generate-001", Prompt: "waves", NumMedia: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransientRemote))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmitDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad aspect ratio"}}`)
	})

	_, err := client.Submit(context.Background(), Request{Model: "veo-3.0-generate-001", Prompt: "waves", NumMedia: 1})
	require.Error(t, err)
	assert.False(t, pkgerrors.IsCode(err, pkgerrors.CodeTransientRemote))
	assert.Contains(t, err.Error(), "bad aspect ratio")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitVideoMapsReferencesAndAudio(t *testing.T) {
	var captured predictRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":predictLongRunning"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, `{"name":"op"}`)
	})
	duration := 8
	_, err := client.Submit(context.Background(), Request{
		Model:           "veo-3.0-generate-001",
		Prompt:          "waves",
		NumMedia:        2,
		GenerateAudio:   true,
		DurationSeconds: &duration,
		References: []Reference{
			{URI: "gs://b/start.png", MimeType: "image/png", Role: enums.AssetRoleStartFrame},
			{URI: "gs://b/end.png", MimeType: "image/png", Role: enums.AssetRoleEndFrame},
		},
	})
	require.NoError(t, err)
	require.Len(t, captured.Instances, 1)
	require.NotNil(t, captured.Instances[0].Image)
	assert.Equal(t, "gs://b/start.png", captured.Instances[0].Image.GCSURI)
	require.NotNil(t, captured.Instances[0].LastFrame)
	require.NotNil(t, captured.Parameters.GenerateAudio)
	assert.True(t, *captured.Parameters.GenerateAudio)
	assert.Equal(t, 8, *captured.Parameters.DurationSeconds)
}

func TestPollIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Poll(context.Background(), Operation{Name: "op", Model: "veo-3.0-generate-001"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPollStates(t *testing.T) {
	responses := []string{
		`{"name":"op","done":false}`,
		`{"name":"op","done":true,"response":{"videos":[{"gcsUri":"gs://b/v/0.mp4","mimeType":"video/mp4"}]}}`,
		`{"name":"op","done":true,"error":{"code":3,"message":"prompt rejected"}}`,
	}
	var idx atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "op", body["operationName"])
		_, _ = io.WriteString(w, responses[idx.Add(1)-1])
	})

	pending := Operation{Name: "op", Model: "veo-3.0-generate-001"}
	op, err := client.Poll(context.Background(), pending)
	require.NoError(t, err)
	assert.False(t, op.Done)

	op, err = client.Poll(context.Background(), pending)
	require.NoError(t, err)
	assert.True(t, op.Done)
	require.Len(t, op.Artifacts, 1)
	assert.Equal(t, "gs://b/v/0.mp4", op.Artifacts[0].URI)

	op, err = client.Poll(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, "prompt rejected", op.Error)
}

func TestRewritePromptAndJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(r.URL.Path, "gemini-2.5-flash") {
			assert.Contains(t, req.Contents[0].Parts[0].Text, "a cat")
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"  A regal cat, golden hour.  "}]}}]}`)
			return
		}
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "gs://b/doc.pdf", req.Contents[0].Parts[1].FileData.FileURI)
		_, _ = io.WriteString(w, "{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"```json\\n{\\\"name\\\":\\\"Cat\\\"}\\n```\"}]}}]}")
	})

	out, err := client.RewritePrompt(context.Background(), "Rewrite:", "a cat")
	require.NoError(t, err)
	assert.Equal(t, "A regal cat, golden hour.", out)

	same, err := client.RewritePrompt(context.Background(), "", "a cat")
	require.NoError(t, err)
	assert.Equal(t, "a cat", same)

	var decoded struct {
		Name string `json:"name"`
	}
	require.NoError(t, client.GenerateJSON(context.Background(), "Extract", "", &decoded, FilePart{URI: "gs://b/doc.pdf", MimeType: "application/pdf"}))
	assert.Equal(t, "Cat", decoded.Name)
}

func TestSubmitUltraMakesOneCallPerImage(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var samples []int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/imagen-4.0-ultra-generate-001:predict", r.URL.Path)
		var body predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		samples = append(samples, body.Parameters.SampleCount)
		mu.Unlock()
		n := calls.Add(1)
		_, _ = io.WriteString(w, `{"predictions":[{"gcsUri":"gs://b/generated/1/`+string(rune('a'+n-1))+`.png"}]}`)
	})

	op, err := client.Submit(context.Background(), Request{
		Model:     enums.GenerationModelImagen4Ultra,
		Prompt:    "a red fox",
		NumMedia:  3,
		OutputURI: "gs://b/generated/1",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []int{1, 1, 1}, samples)
	require.Len(t, op.Artifacts, 3)
	var uris []string
	for _, a := range op.Artifacts {
		uris = append(uris, a.URI)
	}
	assert.ElementsMatch(t, []string{"gs://b/generated/1/a.png", "gs://b/generated/1/b.png", "gs://b/generated/1/c.png"}, uris)
}

func TestSubmitUltraRetriesEachCall(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"predictions":[{"gcsUri":"gs://b/x.png"}]}`)
	})

	op, err := client.Submit(context.Background(), Request{Model: enums.GenerationModelImagen4Ultra, Prompt: "fox", NumMedia: 2})
	require.NoError(t, err)
	assert.Len(t, op.Artifacts, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmitRejectsReferencesForTextOnlyImageModels(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.Submit(context.Background(), Request{
		Model:      enums.GenerationModelImagen4,
		Prompt:     "fox",
		NumMedia:   1,
		References: []Reference{{URI: "gs://b/in.png", Role: enums.AssetRoleInput}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not take reference images")
	assert.Zero(t, calls.Load())
}

func TestSubmitGeminiImageDecodesInlineImages(t *testing.T) {
	var calls atomic.Int32
	png := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/models/gemini-2.5-flash-image-preview:generateContent", r.URL.Path)
		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"TEXT", "IMAGE"}, req.GenerationConfig.ResponseModalities)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "gs://b/style.png", req.Contents[0].Parts[1].FileData.FileURI)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[
			{"text":"here you go"},
			{"inlineData":{"mimeType":"image/png","data":"`+png+`"}}]}}]}`)
	})

	op, err := client.Submit(context.Background(), Request{
		Model:       enums.GenerationModelGeminiImage,
		Prompt:      "a fox in this style",
		NumMedia:    2,
		AspectRatio: "16:9",
		References:  []Reference{{URI: "gs://b/style.png", MimeType: "image/png", Role: enums.AssetRoleStyleReference}},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, op.Artifacts, 2)
	assert.Empty(t, op.Artifacts[0].URI)
	assert.Equal(t, []byte("png-bytes"), op.Artifacts[0].Data)
	assert.Equal(t, "image/png", op.Artifacts[1].MimeType)
}

func TestSubmitEditSendsRawAndMaskReferences(t *testing.T) {
	var captured predictRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/imagen-3.0-capability-001:predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, `{"predictions":[{"gcsUri":"gs://b/e.png"}]}`)
	})
	dilation := 0.01

	_, err := client.Submit(context.Background(), Request{
		Model:        enums.GenerationModelImagenEdit,
		Prompt:       "add a hat",
		NumMedia:     2,
		OutputURI:    "gs://b/generated/9",
		MaskDilation: &dilation,
		References: []Reference{
			{URI: "gs://b/src.png", MimeType: "image/png", Role: enums.AssetRoleInput},
			{URI: "gs://b/mask.png", MimeType: "image/png", Role: enums.AssetRoleMask},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "EDIT_MODE_INPAINT_INSERTION", captured.Parameters.EditMode)
	assert.Equal(t, 2, captured.Parameters.SampleCount)
	refs := captured.Instances[0].ReferenceImages
	require.Len(t, refs, 2)
	assert.Equal(t, "REFERENCE_TYPE_RAW", refs[0].ReferenceType)
	assert.Equal(t, "gs://b/src.png", refs[0].ReferenceImage.GCSURI)
	assert.Equal(t, 2, refs[1].ReferenceID)
	assert.Equal(t, "gs://b/mask.png", refs[1].ReferenceImage.GCSURI)
	assert.Equal(t, "MASK_MODE_USER_PROVIDED", refs[1].MaskImageConfig.MaskMode)
	assert.Equal(t, 0.01, *refs[1].MaskImageConfig.Dilation)
}

func TestSubmitEditRemovalNeedsNoPrompt(t *testing.T) {
	var captured predictRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, `{"predictions":[{"gcsUri":"gs://b/e.png"}]}`)
	})

	_, err := client.Submit(context.Background(), Request{
		Model:      enums.GenerationModelImagenEdit,
		EditMode:   enums.EditModeInpaintRemoval,
		NumMedia:   1,
		References: []Reference{{URI: "gs://b/src.png", Role: enums.AssetRoleInput}},
	})
	require.NoError(t, err)
	assert.Equal(t, "EDIT_MODE_INPAINT_REMOVAL", captured.Parameters.EditMode)
	mask := captured.Instances[0].ReferenceImages[1]
	assert.Nil(t, mask.ReferenceImage)
	assert.Equal(t, "MASK_MODE_BACKGROUND", mask.MaskImageConfig.MaskMode)

	_, err = client.Submit(context.Background(), Request{
		Model:      enums.GenerationModelImagenEdit,
		MaskMode:   enums.MaskModeUserProvided,
		Prompt:     "hat",
		References: []Reference{{URI: "gs://b/src.png", Role: enums.AssetRoleInput}},
	})
	require.Error(t, err)
}

func TestSubmitRecontextSendsProductImages(t *testing.T) {
	var captured predictRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/imagen-product-recontext-preview-06-30:predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, `{"predictions":[{"gcsUri":"gs://b/r.png"}]}`)
	})

	op, err := client.Submit(context.Background(), Request{
		Model:    enums.GenerationModelRecontext,
		NumMedia: 1,
		References: []Reference{
			{URI: "gs://b/p1.png", Role: enums.AssetRoleProduct},
			{URI: "gs://b/p2.png", Role: enums.AssetRoleProduct},
		},
	})
	require.NoError(t, err)
	require.Len(t, op.Artifacts, 1)
	assert.Empty(t, captured.Instances[0].Prompt)
	require.Len(t, captured.Instances[0].ProductImages, 2)
	assert.Equal(t, "gs://b/p2.png", captured.Instances[0].ProductImages[1].Image.GCSURI)

	products := make([]Reference, 4)
	for i := range products {
		products[i] = Reference{URI: "gs://b/p.png", Role: enums.AssetRoleProduct}
	}
	_, err = client.Submit(context.Background(), Request{Model: enums.GenerationModelRecontext, References: products})
	require.Error(t, err)
}

func TestSubmitTryOnChainsGarments(t *testing.T) {
	var bodies []predictRequest
	step := base64.StdEncoding.EncodeToString([]byte("dressed-top"))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/virtual-try-on-preview-08-04:predict", r.URL.Path)
		var body predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		if len(bodies) == 1 {
			_, _ = io.WriteString(w, `{"predictions":[{"bytesBase64Encoded":"`+step+`","mimeType":"image/png"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"predictions":[{"gcsUri":"gs://b/v/0.png"},{"gcsUri":"gs://b/v/1.png"}]}`)
	})

	op, err := client.Submit(context.Background(), Request{
		Model:     enums.GenerationModelTryOn,
		NumMedia:  2,
		OutputURI: "gs://b/v",
		References: []Reference{
			{URI: "gs://b/pants.png", Role: enums.AssetRoleVTOBottom},
			{URI: "gs://b/person.png", Role: enums.AssetRoleVTOPerson},
			{URI: "gs://b/shirt.png", Role: enums.AssetRoleVTOTop},
		},
	})
	require.NoError(t, err)
	require.Len(t, bodies, 2)

	first := bodies[0]
	assert.Equal(t, 1, first.Parameters.SampleCount)
	assert.Empty(t, first.Parameters.StorageURI)
	assert.Equal(t, "gs://b/person.png", first.Instances[0].PersonImage.Image.GCSURI)
	assert.Equal(t, "gs://b/shirt.png", first.Instances[0].ProductImages[0].Image.GCSURI)

	second := bodies[1]
	assert.Equal(t, 2, second.Parameters.SampleCount)
	assert.Equal(t, "gs://b/v", second.Parameters.StorageURI)
	assert.Equal(t, step, second.Instances[0].PersonImage.Image.BytesBase64Encoded)
	assert.Equal(t, "gs://b/pants.png", second.Instances[0].ProductImages[0].Image.GCSURI)

	require.Len(t, op.Artifacts, 2)
	assert.Equal(t, "gs://b/v/1.png", op.Artifacts[1].URI)
}

func TestUpscale(t *testing.T) {
	var captured predictRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/imagen-3.0-generate-002:predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, `{"predictions":[{"gcsUri":"gs://b/up/0.png","mimeType":"image/png"}]}`)
	})

	out, err := client.Upscale(context.Background(), UpscaleRequest{
		ImageURI:  "gs://b/in.png",
		Factor:    enums.UpscaleX4,
		OutputURI: "gs://b/up",
	})
	require.NoError(t, err)
	assert.Equal(t, "gs://b/up/0.png", out.URI)
	assert.Equal(t, "upscale", captured.Parameters.Mode)
	assert.Equal(t, "x4", captured.Parameters.UpscaleConfig.UpscaleFactor)
	assert.Equal(t, "image/png", captured.Parameters.OutputOptions.MimeType)
	assert.Equal(t, "gs://b/in.png", captured.Instances[0].Image.GCSURI)

	_, err = client.Upscale(context.Background(), UpscaleRequest{ImageURI: "gs://b/in.png", Factor: "x3"})
	require.Error(t, err)
}
