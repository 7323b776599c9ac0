package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Berserk", 10, "Berserk"},
		{"Berserk", 6, "Ber..."},
		{"Berserk", 2, "Be"},
		{"ベルセルク", 4, "ベ..."},
		{"Berserk", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.width))
	}
}

func TestHighlightMatches_NoMatches(t *testing.T) {
	assert.Equal(t, "Berserk", HighlightMatches("Berserk", nil))
}

func TestHighlightMatches_KeepsText(t *testing.T) {
	out := HighlightMatches("Berserk", []int{0, 1})
	assert.Contains(t, out, "rserk")
}
