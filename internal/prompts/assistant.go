package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

const minPromptLength = 5

// Target is the media a prompt is written for.
type Target string

const (
	TargetImage Target = "image"
	TargetVideo Target = "video"
)

func (t Target) String() string { return string(t) }

func (t Target) IsValid() bool { return t == TargetImage || t == TargetVideo }

type textModel interface {
	RewritePrompt(ctx context.Context, instruction, prompt string) (string, error)
	GenerateText(ctx context.Context, instruction, input string, files ...genai.FilePart) (string, error)
}

type instructions interface {
	RewriteInstruction(video bool) string
	RandomInstruction(video bool) string
}

// RewriteInput is a draft prompt plus the attributes the generate form offers.
type RewriteInput struct {
	Target       Target              `json:"target_type" validate:"required,enum"`
	Prompt       string              `json:"prompt" validate:"required,min=5,max=10000"`
	Style        *enums.Style        `json:"style,omitempty" validate:"omitempty,enum"`
	Lighting     *enums.Lighting     `json:"lighting,omitempty" validate:"omitempty,enum"`
	ColorAndTone *enums.ColorAndTone `json:"color_and_tone,omitempty" validate:"omitempty,enum"`
	Composition  *enums.Composition  `json:"composition,omitempty" validate:"omitempty,enum"`
}

// Assistant backs the prompt helper endpoints.
type Assistant struct {
	model textModel
	text  instructions
	logg  *logger.Logger
}

func NewAssistant(model textModel, text instructions, logg *logger.Logger) (*Assistant, error) {
	switch {
	case model == nil:
		return nil, errors.New("text model required")
	case text == nil:
		return nil, errors.New("prompt catalogue required")
	case logg == nil:
		return nil, errors.New("logger required")
	}
	return &Assistant{model: model, text: text, logg: logg}, nil
}

// Rewrite folds the attributes into the draft and has the rewrite model
// expand it.
func (a *Assistant) Rewrite(ctx context.Context, in RewriteInput) (string, error) {
	if !in.Target.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown target %q", in.Target))
	}
	draft := strings.TrimSpace(in.Prompt)
	if len(draft) < minPromptLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("prompt must be at least %d characters", minPromptLength))
	}
	out, err := a.model.RewritePrompt(ctx, a.text.RewriteInstruction(in.Target == TargetVideo), withAttributes(draft, in))
	if err != nil {
		a.logg.Error(a.logg.WithField(ctx, "target_type", in.Target.String()), "rewrite prompt", err)
		return "", remoteError(err, "rewrite prompt")
	}
	return strings.TrimSpace(out), nil
}

// Random invents a new prompt for target.
func (a *Assistant) Random(ctx context.Context, target Target) (string, error) {
	if !target.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown target %q", target))
	}
	out, err := a.model.GenerateText(ctx, a.text.RandomInstruction(target == TargetVideo), "")
	if err != nil {
		a.logg.Error(a.logg.WithField(ctx, "target_type", target.String()), "random prompt", err)
		return "", remoteError(err, "generate random prompt")
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "text model returned an empty prompt")
	}
	return out, nil
}

func withAttributes(draft string, in RewriteInput) string {
	lines := []string{draft}
	if in.Style != nil {
		lines = append(lines, "- Style: "+in.Style.String())
	}
	if in.Lighting != nil {
		lines = append(lines, "- Lighting: "+in.Lighting.String())
	}
	if in.ColorAndTone != nil {
		lines = append(lines, "- Color and tone: "+in.ColorAndTone.String())
	}
	if in.Composition != nil {
		lines = append(lines, "- Composition: "+in.Composition.String())
	}
	return strings.Join(lines, "\n")
}

func remoteError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
