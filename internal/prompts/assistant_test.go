package prompts

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

type fakeText struct {
	instruction string
	input       string
	out         string
	err         error
}

func (f *fakeText) RewritePrompt(_ context.Context, instruction, prompt string) (string, error) {
	f.instruction, f.input = instruction, prompt
	return f.out, f.err
}

func (f *fakeText) GenerateText(_ context.Context, instruction, input string, _ ...genai.FilePart) (string, error) {
	f.instruction, f.input = instruction, input
	return f.out, f.err
}

func newAssistant(t *testing.T, model *fakeText) *Assistant {
	t.Helper()
	c, err := Load()
	require.NoError(t, err)
	a, err := NewAssistant(model, c, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return a
}

func TestAssistantRewriteFoldsAttributes(t *testing.T) {
	model := &fakeText{out: "  A cinematic red fox at dawn.  "}
	a := newAssistant(t, model)
	style := enums.StyleCinematic

	out, err := a.Rewrite(context.Background(), RewriteInput{Target: TargetVideo, Prompt: " a red fox ", Style: &style})
	require.NoError(t, err)
	assert.Equal(t, "A cinematic red fox at dawn.", out)
	assert.Contains(t, model.instruction, "text-to-video")
	assert.Equal(t, "a red fox\n- Style: Cinematic", model.input)
}

func TestAssistantRewriteValidates(t *testing.T) {
	a := newAssistant(t, &fakeText{})

	_, err := a.Rewrite(context.Background(), RewriteInput{Target: "audio", Prompt: "a red fox"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = a.Rewrite(context.Background(), RewriteInput{Target: TargetImage, Prompt: "fox "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAssistantRandom(t *testing.T) {
	model := &fakeText{out: "A lighthouse made of glass.\n"}
	a := newAssistant(t, model)

	out, err := a.Random(context.Background(), TargetImage)
	require.NoError(t, err)
	assert.Equal(t, "A lighthouse made of glass.", out)
	assert.Contains(t, model.instruction, "text-to-image")
	assert.Empty(t, model.input)

	model.out = "   "
	_, err = a.Random(context.Background(), TargetImage)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestAssistantKeepsRemoteErrorCodes(t *testing.T) {
	model := &fakeText{err: pkgerrors.New(pkgerrors.CodeTransientRemote, "generate_text failed after retries")}
	a := newAssistant(t, model)

	_, err := a.Random(context.Background(), TargetVideo)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransientRemote))

	model.err = errors.New("dial tcp: refused")
	_, err = a.Rewrite(context.Background(), RewriteInput{Target: TargetImage, Prompt: "a red fox"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
