// Package prompt builds generation prompts from a user instruction, an output shape, and a
// document snippet. Templates are stored as JSON and embedded at compile time.
package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperjump/datawizard/internal/models"
)

// SnippetLabel introduces the document snippet at the end of every prompt.
const SnippetLabel = "Berikut isi dokumen (cuplikan data):"

//go:embed templates.json
var templatesJSON []byte

var (
	templates     map[string]string
	templatesErr  error
	templatesOnce sync.Once
)

func load() (map[string]string, error) {
	templatesOnce.Do(func() {
		if err := json.Unmarshal(templatesJSON, &templates); err != nil {
			templatesErr = fmt.Errorf("failed to parse prompt templates: %w", err)
		}
	})
	return templates, templatesErr
}

// Template returns the shape-specific instruction block with the trimmed instruction filled in.
// Unknown shapes use the plain template.
func Template(shape models.Shape, instruction string) string {
	all, err := load()
	if err != nil {
		panic(err)
	}
	tmpl, ok := all[string(shape)]
	if !ok {
		tmpl = all[string(models.ShapePlain)]
	}
	return Format(tmpl, map[string]string{"Instruction": strings.TrimSpace(instruction)})
}

// Build returns the full prompt: the shape template followed by the snippet block.
// An empty snippet still gets its label.
func Build(instruction string, shape models.Shape, snippet string) string {
	return Template(shape, instruction) + "\n\n" + SnippetLabel + "\n" + snippet
}

// Format replaces placeholders in the form {{.Key}} with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{.%s}}", key), value)
	}
	return result
}
