// Package tmpl provides template rendering for task text and rule
// execution messages.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"join":  strings.Join,
	"trim":  strings.TrimSpace,
	"lower": strings.ToLower,
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Items ", ")
//   - trim: Trim surrounding whitespace
//   - lower: Lowercase a string
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// NoteBlock formats a free-form note as a block appended to a task
// description. Empty notes return an empty string.
func NoteBlock(note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return ""
	}
	return "\n\n---\nNote:\n" + note
}
