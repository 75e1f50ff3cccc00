package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Fullmetal Alchemist: Brotherhood", "Fullmetal Alchemist: Brotherhood"},
		{"surrounding space", "  Berserk \n", "Berserk"},
		{"inner runs", "Cowboy   Bebop\t(1998)", "Cowboy Bebop (1998)"},
		{"decomposed accent", "Poke\u0301mon", "Pok\u00e9mon"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.input))
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>First</p><p>Second</p>", "First Second"},
		{"Batman &amp; Robin", "Batman & Robin"},
		{"<div><b>Bold</b>   and <i>italic</i></div>", "Bold and italic"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripHTML(tt.input), "input %q", tt.input)
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	t.Run("plain text passes through", func(t *testing.T) {
		assert.Equal(t, "No markup here", HTMLToMarkdown("No  markup here"))
	})

	t.Run("html is converted", func(t *testing.T) {
		got := HTMLToMarkdown("<p>The <strong>Dark</strong> Knight returns.</p>")
		assert.Contains(t, got, "**Dark**")
		assert.False(t, strings.Contains(got, "<p>"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, HTMLToMarkdown(""))
	})
}
