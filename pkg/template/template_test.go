package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"name": "John",
		"site": map[string]any{"name": "North Yard"},
		"cnt":  3,
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text", input: "Hello there", expected: "Hello there"},
		{name: "short placeholder", input: "Hello {{name}}", expected: "Hello John"},
		{name: "spaced placeholder", input: "Hello {{ name }}!", expected: "Hello John!"},
		{name: "nested placeholder", input: "Site: {{site.name}}", expected: "Site: North Yard"},
		{name: "go field action", input: "{{ .site.name }} has {{ .cnt }} open items", expected: "North Yard has 3 open items"},
		{name: "function call", input: "{{ upper .name }}", expected: "JOHN"},
		{name: "conditional", input: "{{if .cnt}}open{{else}}closed{{end}}", expected: "open"},
		{name: "default", input: `{{ default "n/a" .name }}`, expected: "John"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Render(tt.input, data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	_, err := Render("Hello {{ .name }}", nil)
	require.Error(t, err)

	_, err = Render("Hello {{ .name ", map[string]any{"name": "x"})
	require.Error(t, err)
}

func TestRender_UnresolvedPlaceholder(t *testing.T) {
	t.Parallel()

	result, err := Render("Hello {{name}}, see {{site.name}}", map[string]any{"site": "yard"})
	require.NoError(t, err)
	assert.Equal(t, "Hello {{name}}, see {{site.name}}", result)
}

func TestParse(t *testing.T) {
	t.Parallel()

	_, err := Parse("Hello {{name}}")
	require.NoError(t, err)

	_, err = Parse("{{if .x}}unterminated")
	require.Error(t, err)
}

func TestNeedsTemplating(t *testing.T) {
	t.Parallel()

	assert.True(t, NeedsTemplating("Hi {{name}}"))
	assert.False(t, NeedsTemplating("Hi name"))
}
