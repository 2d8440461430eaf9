package brandguidelines

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

const extractConcurrency = 4

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, instruction, input string, out any, files ...genai.FilePart) error
}

type instructionSource interface {
	GuidelineExtraction() string
	GuidelineMerge() string
}

// Extraction is the structured content read out of a guideline document.
type Extraction struct {
	ColorPalette       []string `json:"color_palette"`
	ToneOfVoiceSummary string   `json:"tone_of_voice_summary"`
	VisualStyleSummary string   `json:"visual_style_summary"`
	GuidelineText      string   `json:"guideline_text"`
}

func (e Extraction) empty() bool {
	return len(e.ColorPalette) == 0 && e.ToneOfVoiceSummary == "" && e.VisualStyleSummary == "" && e.GuidelineText == ""
}

// Extractor reads each stored PDF part with the text model and merges the
// partial results.
type Extractor struct {
	model        jsonGenerator
	instructions instructionSource
	logg         *logger.Logger
}

func NewExtractor(model jsonGenerator, instructions instructionSource, logg *logger.Logger) (*Extractor, error) {
	if model == nil {
		return nil, fmt.Errorf("text model required")
	}
	if instructions == nil {
		return nil, fmt.Errorf("instruction source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Extractor{model: model, instructions: instructions, logg: logg}, nil
}

// Extract processes every part concurrently. Parts that fail are skipped;
// it errors only when no part produced anything.
func (x *Extractor) Extract(ctx context.Context, uris []string) (Extraction, error) {
	partials := make([]*Extraction, len(uris))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)
	for i, uri := range uris {
		g.Go(func() error {
			var part Extraction
			err := x.model.GenerateJSON(gctx, x.instructions.GuidelineExtraction(), "",
				&part, genai.FilePart{URI: uri, MimeType: "application/pdf"})
			if err != nil {
				x.logg.Warn(x.logg.WithFields(ctx, map[string]any{"gcs_uri": uri, "error": err.Error()}), "guideline part extraction failed")
				return nil
			}
			if part.empty() {
				return nil
			}
			partials[i] = &part
			return nil
		})
	}
	_ = g.Wait()

	var ok []Extraction
	for _, p := range partials {
		if p != nil {
			ok = append(ok, *p)
		}
	}
	switch len(ok) {
	case 0:
		return Extraction{}, fmt.Errorf("no guideline content extracted from %d part(s)", len(uris))
	case 1:
		return ok[0], nil
	}
	return x.merge(ctx, ok), nil
}

func (x *Extractor) merge(ctx context.Context, partials []Extraction) Extraction {
	payload, err := json.Marshal(partials)
	if err == nil {
		var merged Extraction
		err = x.model.GenerateJSON(ctx, x.instructions.GuidelineMerge(), string(payload), &merged)
		if err == nil && !merged.empty() {
			return merged
		}
	}
	if err != nil {
		x.logg.Warn(x.logg.WithField(ctx, "error", err.Error()), "guideline merge failed, concatenating parts")
	}
	return concatenate(partials)
}

// concatenate merges partials locally: palette deduplicated in first-seen
// order, text fields joined by blank lines.
func concatenate(partials []Extraction) Extraction {
	var (
		out           Extraction
		seen          = map[string]bool{}
		tone, visual  []string
		guidelineText []string
	)
	for _, p := range partials {
		for _, c := range p.ColorPalette {
			key := strings.ToUpper(strings.TrimSpace(c))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out.ColorPalette = append(out.ColorPalette, strings.TrimSpace(c))
		}
		tone = appendNonEmpty(tone, p.ToneOfVoiceSummary)
		visual = appendNonEmpty(visual, p.VisualStyleSummary)
		guidelineText = appendNonEmpty(guidelineText, p.GuidelineText)
	}
	out.ToneOfVoiceSummary = strings.Join(tone, "\n\n")
	out.VisualStyleSummary = strings.Join(visual, "\n\n")
	out.GuidelineText = strings.Join(guidelineText, "\n\n")
	return out
}

func appendNonEmpty(list []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(list, s)
	}
	return list
}
