package pen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTags(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		markup string
		want   []string
	}{
		{"empty", "", "", []string{}},
		{"title keywords in table order", "Interactive JS Color Grid", "", []string{"JavaScript", "Grid Layout", "Colors", "Interactive"}},
		{"javascript counted once", "JavaScript and js", "", []string{"JavaScript"}},
		{"canvas from title and markup dedups", "Canvas Art", "<canvas></canvas>", []string{"Canvas"}},
		{"svg from markup", "Logo", "<div><svg viewBox=\"0 0 1 1\"></svg></div>", []string{"SVG"}},
		{"malformed markup tolerated", "Card", "<div><canvas>", []string{"Cards", "Canvas"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateTags(tt.title, tt.markup))
		})
	}
}

func TestGenerateTagsDeterministic(t *testing.T) {
	first := GenerateTags("Morphing Glass Weather Dashboard", "<svg></svg>")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, GenerateTags("Morphing Glass Weather Dashboard", "<svg></svg>"))
	}
}

func TestMergeTags(t *testing.T) {
	got := MergeTags([]string{"css", " ", "Design"}, []string{"CSS", "design", "Buttons"})
	assert.Equal(t, []string{"css", "Design", "Buttons"}, got)
}
