package pen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixtures(t *testing.T) {
	pens, err := LoadFixtures("testdata/fixtures/*")
	require.NoError(t, err)
	require.Len(t, pens, 4)

	// files load in name order: extra.toml, more.yaml, pens.json
	assert.Equal(t, []id.PenID{"pen-glass", "pen-weather", "1", "pen-canvas"}, ids(pens))

	glass := pens[0]
	assert.Equal(t, "Glass Card", glass.Title)
	assert.Equal(t, Anonymous, glass.Author)
	assert.Equal(t, []string{"Design"}, glass.Tags)
	assert.True(t, glass.UpdatedAt.Equal(glass.CreatedAt))

	weather := pens[1]
	assert.Equal(t, "Grace", weather.Author.Name)
	assert.EqualValues(t, 90, weather.Likes)
	assert.Contains(t, weather.Markup, "<svg")

	legacy := pens[2]
	assert.Equal(t, `<button class="btn">Hover me</button>`, legacy.Markup)
	assert.Contains(t, legacy.Styles, ".btn:hover")
	assert.Equal(t, "Ada", legacy.Author.Name)
	assert.EqualValues(t, 120, legacy.Views)

	canvas := pens[3]
	assert.Equal(t, "console.log('particles ready');", canvas.Script)
	assert.True(t, canvas.UpdatedAt.Equal(canvas.CreatedAt))
}

func TestLoadFixturesDoubleStar(t *testing.T) {
	pens, err := LoadFixtures("testdata/**/*.json")
	require.NoError(t, err)
	assert.Len(t, pens, 2)

	pens, err = LoadFixtures("testdata/none/*.json")
	require.NoError(t, err)
	assert.Empty(t, pens)
}

func TestLoadFixturesSeedsStore(t *testing.T) {
	pens, err := LoadFixtures("testdata/fixtures/*")
	require.NoError(t, err)

	s := NewStore(NewMemoryRepository(pens...))
	p, err := s.Get(t.Context(), "pen-canvas")
	require.NoError(t, err)
	assert.Equal(t, []string{"Particles", "Canvas"}, p.Tags)

	p, err = s.Get(t.Context(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"css", "Animation", "Hover Effects", "Buttons"}, p.Tags)
}

func TestLoadFixturesBadTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","createdAt":"yesterday"}]`), 0o644))

	_, err := LoadFixtures(filepath.Join(dir, "*.json"))
	assert.ErrorContains(t, err, "createdAt")
}

func TestLoadFixturesBadID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: \"../up\"\n  title: x\n"), 0o644))

	_, err := LoadFixtures(filepath.Join(dir, "*.yaml"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
		want string
	}{
		{"json extension", "a.json", "", FormatJSON},
		{"yml extension", "a.yml", "", FormatYAML},
		{"toml extension", "a.TOML", "", FormatTOML},
		{"sniffed json", "a.data", `{"pens": []}`, FormatJSON},
		{"sniffed toml", "a.data", "[[pens]]\nid = \"a\"\n", FormatTOML},
		{"fallback yaml", "a", "pens:\n  - id: a\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.path, []byte(tt.data)))
		})
	}
}
