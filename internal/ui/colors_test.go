package ui

import (
	"strings"
	"testing"
)

func TestPalette(t *testing.T) {
	t.Run("helpers keep their text", func(t *testing.T) {
		tests := []struct {
			name   string
			render func(string, ...any) string
			prefix string
		}{
			{"Title", Title, ""},
			{"Success", Success, "✓ "},
			{"Failure", Failure, "✗ "},
			{"Warning", Warning, "⚠ "},
			{"Hint", Hint, ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := tt.render("user %s", "wizzler")
				if !strings.Contains(got, tt.prefix+"user wizzler") {
					t.Errorf("expected %q in %q", tt.prefix+"user wizzler", got)
				}
			})
		}
	})
}
