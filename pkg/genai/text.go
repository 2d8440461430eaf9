package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FilePart attaches a stored file (for example a PDF section) to a text call.
type FilePart struct {
	URI      string
	MimeType string
}

type part struct {
	Text       string      `json:"text,omitempty"`
	FileData   *fileData   `json:"fileData,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type fileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generationConfig struct {
	ResponseMimeType   string       `json:"responseMimeType,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
	Temperature        float64      `json:"temperature"`
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// RewritePrompt asks the rewrite model to expand prompt using instruction.
// An empty instruction returns the prompt unchanged.
func (c *Client) RewritePrompt(ctx context.Context, instruction, prompt string) (string, error) {
	if strings.TrimSpace(instruction) == "" {
		return prompt, nil
	}
	out, err := c.generate(ctx, c.cfg.RewriteModel, "prompt_rewrite", instruction, prompt, nil, "")
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return prompt, nil
	}
	return out, nil
}

// GenerateText runs a plain text call against the text model.
func (c *Client) GenerateText(ctx context.Context, instruction, input string, files ...FilePart) (string, error) {
	return c.generate(ctx, c.cfg.TextModel, "generate_text", instruction, input, files, "")
}

// GenerateJSON runs a JSON-mode call and decodes the answer into out.
func (c *Client) GenerateJSON(ctx context.Context, instruction, input string, out any, files ...FilePart) error {
	raw, err := c.generate(ctx, c.cfg.TextModel, "generate_json", instruction, input, files, "application/json")
	if err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, model, operation, instruction, input string, files []FilePart, mime string) (string, error) {
	if model == "" {
		return "", errors.New("text model is not configured")
	}
	parts := []part{{Text: strings.TrimSpace(instruction + "\n\n" + input)}}
	for _, f := range files {
		parts = append(parts, part{FileData: &fileData{MimeType: f.MimeType, FileURI: f.URI}})
	}
	body := generateContentRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{ResponseMimeType: mime, Temperature: 0.4},
	}

	return withRetry(ctx, c, operation, func() (string, error) {
		var resp generateContentResponse
		if err := c.post(ctx, c.modelURL(model, "generateContent"), body, &resp); err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 {
			return "", errors.New("model returned no candidates")
		}
		var b strings.Builder
		for _, p := range resp.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
		return b.String(), nil
	})
}
