// Package template renders message templates for emails and notifications.
//
// Templates accept both the short placeholder form {{name}} and regular Go
// template actions such as {{ .site.name }} or {{ upper .name }}. A short
// placeholder whose key is absent from the data is left in the output as is.
package template

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"
)

var (
	placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

	keywords = map[string]bool{
		"end": true, "else": true, "nil": true, "true": true, "false": true, "break": true, "continue": true,
	}

	funcs = template.FuncMap{
		"now": func() string {
			return time.Now().UTC().Format(time.RFC3339)
		},
		"upper":       strings.ToUpper,
		"lower":       strings.ToLower,
		"placeholder": lookup,
		"default": func(fallback, value any) any {
			if value == nil || value == "" {
				return fallback
			}

			return value
		},
	}
)

// Parse checks that input is a well-formed template.
func Parse(input string) (*template.Template, error) {
	tmpl, err := template.
		New("message").
		Funcs(funcs).
		Option("missingkey=error").
		Parse(normalize(input))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", input, err)
	}

	return tmpl, nil
}

// Render executes input against data. A Go field action referencing a key
// missing from data is an error.
func Render(input string, data map[string]any) (string, error) {
	if !NeedsTemplating(input) {
		return input, nil
	}

	tmpl, err := Parse(input)
	if err != nil {
		return "", err
	}

	if data == nil {
		data = map[string]any{}
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", input, err)
	}

	return buf.String(), nil
}

// NeedsTemplating reports whether input contains any template action.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// normalize rewrites {{name}} placeholders into lenient lookups on the root data.
func normalize(input string) string {
	return placeholder.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if keywords[name] || funcs[name] != nil {
			return match
		}

		return `{{placeholder $ "` + name + `"}}`
	})
}

func lookup(data map[string]any, path string) any {
	var current any = data

	for _, key := range strings.Split(path, ".") {
		fields, ok := current.(map[string]any)
		if !ok {
			return "{{" + path + "}}"
		}

		current, ok = fields[key]
		if !ok {
			return "{{" + path + "}}"
		}
	}

	return current
}
