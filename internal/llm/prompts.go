package llm

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptCatalogYAML []byte

const (
	textPlaceholder      = "{{TEXT}}"
	defaultPromptVersion = "v1"
)

// Prompt is one versioned summary prompt.
type Prompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type promptCatalog struct {
	Summary map[string]Prompt `yaml:"summary"`
}

var catalog = mustParseCatalog(promptCatalogYAML)

func mustParseCatalog(raw []byte) promptCatalog {
	var c promptCatalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		panic(fmt.Sprintf("parse prompts.yaml: %v", err))
	}
	if _, ok := c.Summary[defaultPromptVersion]; !ok {
		panic("prompts.yaml: missing summary " + defaultPromptVersion)
	}
	return c
}

// PromptTemplate returns the prompt for version and whether the version was recognized.
// Unknown versions fall back to v1.
func PromptTemplate(version string) (Prompt, bool) {
	if p, ok := catalog.Summary[strings.TrimSpace(version)]; ok {
		return p, true
	}
	return catalog.Summary[defaultPromptVersion], false
}

// Render substitutes text into the user template.
func (p Prompt) Render(text string) string {
	return strings.ReplaceAll(p.User, textPlaceholder, text)
}
