package brandguidelines

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

type fakeModel struct {
	mu       sync.Mutex
	byURI    map[string]string
	failURIs map[string]bool
	merged   string
	mergeErr error
	merges   int
}

func (f *fakeModel) GenerateJSON(_ context.Context, instruction, input string, out any, files ...genai.FilePart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(files) == 0 {
		f.merges++
		if f.mergeErr != nil {
			return f.mergeErr
		}
		return json.Unmarshal([]byte(f.merged), out)
	}
	uri := files[0].URI
	if f.failURIs[uri] {
		return errors.New("model unavailable")
	}
	return json.Unmarshal([]byte(f.byURI[uri]), out)
}

type catalogue struct{}

func (catalogue) GuidelineExtraction() string { return "extract" }
func (catalogue) GuidelineMerge() string      { return "merge" }

func newExtractor(t *testing.T, m *fakeModel) *Extractor {
	t.Helper()
	x, err := NewExtractor(m, catalogue{}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return x
}

func TestExtractSinglePartSkipsMerge(t *testing.T) {
	t.Parallel()

	m := &fakeModel{byURI: map[string]string{
		"gs://b/one.pdf": `{"color_palette":["#FF0000"],"tone_of_voice_summary":"Warm"}`,
	}}
	got, err := newExtractor(t, m).Extract(context.Background(), []string{"gs://b/one.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#FF0000"}, got.ColorPalette)
	assert.Equal(t, "Warm", got.ToneOfVoiceSummary)
	assert.Zero(t, m.merges)
}

func TestExtractMergesPartsWithModel(t *testing.T) {
	t.Parallel()

	m := &fakeModel{
		byURI: map[string]string{
			"gs://b/1.pdf": `{"color_palette":["#111111"]}`,
			"gs://b/2.pdf": `{"color_palette":["#222222"]}`,
		},
		merged: `{"color_palette":["#111111","#222222"],"visual_style_summary":"Bold"}`,
	}
	got, err := newExtractor(t, m).Extract(context.Background(), []string{"gs://b/1.pdf", "gs://b/2.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#111111", "#222222"}, got.ColorPalette)
	assert.Equal(t, "Bold", got.VisualStyleSummary)
	assert.Equal(t, 1, m.merges)
}

func TestExtractFallsBackToLocalMerge(t *testing.T) {
	t.Parallel()

	m := &fakeModel{
		byURI: map[string]string{
			"gs://b/1.pdf": `{"color_palette":["#abcdef","#111111"],"guideline_text":"Use whitespace."}`,
			"gs://b/2.pdf": `{"color_palette":["#ABCDEF"],"guideline_text":"Never stretch the logo."}`,
		},
		mergeErr: errors.New("quota"),
	}
	got, err := newExtractor(t, m).Extract(context.Background(), []string{"gs://b/1.pdf", "gs://b/2.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#abcdef", "#111111"}, got.ColorPalette)
	assert.Equal(t, "Use whitespace.\n\nNever stretch the logo.", got.GuidelineText)
}

func TestExtractSkipsFailedPartsAndErrorsWhenNoneSucceed(t *testing.T) {
	t.Parallel()

	m := &fakeModel{
		byURI:    map[string]string{"gs://b/2.pdf": `{"tone_of_voice_summary":"Playful"}`},
		failURIs: map[string]bool{"gs://b/1.pdf": true},
	}
	x := newExtractor(t, m)

	got, err := x.Extract(context.Background(), []string{"gs://b/1.pdf", "gs://b/2.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Playful", got.ToneOfVoiceSummary)

	_, err = x.Extract(context.Background(), []string{"gs://b/1.pdf"})
	require.Error(t, err)
}
