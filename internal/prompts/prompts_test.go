package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalogue(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Contains(t, c.RewriteInstruction(false), "text-to-image")
	assert.Contains(t, c.RewriteInstruction(true), "text-to-video")
	assert.Contains(t, c.TemplateMetadata(), `"tags"`)
	assert.Contains(t, c.GuidelineExtraction(), "color_palette")
	assert.NotEmpty(t, c.GuidelineMerge())
	assert.Contains(t, c.RandomInstruction(false), "text-to-image")
	assert.Contains(t, c.RandomInstruction(true), "text-to-video")
	assert.False(t, strings.HasPrefix(c.RewriteInstruction(false), "\n"))
}

func TestParseRejectsIncompleteCatalogue(t *testing.T) {
	_, err := Parse([]byte(`
[rewrite.image]
instruction = "x"
`))
	require.ErrorContains(t, err, "prompt catalogue missing")

	_, err = Parse([]byte("not = [toml"))
	require.Error(t, err)
}
