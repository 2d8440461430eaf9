// Package prompts holds the instructions sent to the text model.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalogue.toml
var catalogueTOML []byte

type entry struct {
	Instruction string `toml:"instruction"`
}

// Catalogue is the parsed instruction set.
type Catalogue struct {
	Rewrite struct {
		Image entry `toml:"image"`
		Video entry `toml:"video"`
	} `toml:"rewrite"`
	Template struct {
		Metadata entry `toml:"metadata"`
	} `toml:"template"`
	Guideline struct {
		Extraction entry `toml:"extraction"`
		Merge      entry `toml:"merge"`
	} `toml:"guideline"`
	Random struct {
		Image entry `toml:"image"`
		Video entry `toml:"video"`
	} `toml:"random"`
}

var (
	loadOnce sync.Once
	loaded   *Catalogue
	loadErr  error
)

// Load parses the embedded catalogue once.
func Load() (*Catalogue, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(catalogueTOML)
	})
	return loaded, loadErr
}

// Parse decodes a catalogue and checks every instruction is present.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse prompt catalogue: %w", err)
	}
	for name, e := range map[string]entry{
		"rewrite.image":        c.Rewrite.Image,
		"rewrite.video":        c.Rewrite.Video,
		"template.metadata":    c.Template.Metadata,
		"guideline.extraction": c.Guideline.Extraction,
		"guideline.merge":      c.Guideline.Merge,
		"random.image":         c.Random.Image,
		"random.video":         c.Random.Video,
	} {
		if strings.TrimSpace(e.Instruction) == "" {
			return nil, fmt.Errorf("prompt catalogue missing %s", name)
		}
	}
	return &c, nil
}

// RewriteInstruction returns the rewrite instruction for video or image output.
func (c *Catalogue) RewriteInstruction(video bool) string {
	if video {
		return strings.TrimSpace(c.Rewrite.Video.Instruction)
	}
	return strings.TrimSpace(c.Rewrite.Image.Instruction)
}

// RandomInstruction asks for a fresh prompt for video or image output.
func (c *Catalogue) RandomInstruction(video bool) string {
	if video {
		return strings.TrimSpace(c.Random.Video.Instruction)
	}
	return strings.TrimSpace(c.Random.Image.Instruction)
}

func (c *Catalogue) TemplateMetadata() string {
	return strings.TrimSpace(c.Template.Metadata.Instruction)
}

func (c *Catalogue) GuidelineExtraction() string {
	return strings.TrimSpace(c.Guideline.Extraction.Instruction)
}

func (c *Catalogue) GuidelineMerge() string {
	return strings.TrimSpace(c.Guideline.Merge.Instruction)
}
