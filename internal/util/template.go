package util

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

var (
	promptFuncs = template.FuncMap{
		// default returns fallback when val is nil or the empty string.
		"default": func(fallback any, val any) any {
			if val == nil || val == "" {
				return fallback
			}
			return val
		},
		// inc turns a zero-based range index into a list number.
		"inc": func(i int) int { return i + 1 },
	}

	// Persona and supervisor prompts are static; parsed templates are reused.
	parsedPrompts sync.Map // map[string]*template.Template
)

// RenderTemplate executes text as a text/template against state. Prompts are
// plain text, so no HTML escaping is applied. Text without template markers is
// returned as is.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := parsePrompt(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	return buf.String(), nil
}

func parsePrompt(text string) (*template.Template, error) {
	if cached, ok := parsedPrompts.Load(text); ok {
		return cached.(*template.Template), nil
	}

	tmpl, err := template.New("prompt").Funcs(promptFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt: %w", err)
	}

	actual, _ := parsedPrompts.LoadOrStore(text, tmpl)

	return actual.(*template.Template), nil
}
