// Package prompts loads the LLM prompt templates embedded with the binary.
// Each JSON file maps a key to template text with {{.Field}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

//go:embed *.json
var promptFiles embed.FS

var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// Template is a prompt whose placeholders were checked when it was loaded.
type Template struct {
	Name         string
	text         string
	placeholders []string
}

// Placeholders returns the distinct field names the template references, sorted.
func (t Template) Placeholders() []string {
	return slices.Clone(t.placeholders)
}

// Render substitutes every placeholder. Data must supply a value for each one.
func (t Template) Render(data map[string]string) (string, error) {
	pairs := make([]string, 0, 2*len(t.placeholders))
	for _, field := range t.placeholders {
		value, ok := data[field]
		if !ok {
			return "", fmt.Errorf("prompt %s: no value for placeholder %q", t.Name, field)
		}
		pairs = append(pairs, "{{."+field+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(t.text), nil
}

// Load reads key from an embedded prompt file and checks that the template
// references exactly the required placeholders.
func Load(filename, key string, required ...string) (Template, error) {
	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return Template{}, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return Template{}, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	text, ok := entries[key]
	if !ok {
		return Template{}, fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return parseTemplate(filename+"#"+key, text, required)
}

func parseTemplate(name, text string, required []string) (Template, error) {
	var found []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(found, m[1]) {
			found = append(found, m[1])
		}
	}
	slices.Sort(found)

	for _, field := range required {
		if !slices.Contains(found, field) {
			return Template{}, fmt.Errorf("prompt %s: missing placeholder {{.%s}}", name, field)
		}
	}
	for _, field := range found {
		if !slices.Contains(required, field) {
			return Template{}, fmt.Errorf("prompt %s: unknown placeholder {{.%s}}", name, field)
		}
	}

	return Template{Name: name, text: text, placeholders: found}, nil
}
