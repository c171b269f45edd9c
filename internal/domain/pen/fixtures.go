package pen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// fixturePen is the on-disk shape of a seeded pen. The markup, styles and
// script fields also accept their older names html, css and javascript.
type fixturePen struct {
	ID         any      `json:"id" yaml:"id" toml:"id"`
	Title      string   `json:"title" yaml:"title" toml:"title"`
	Markup     string   `json:"markup" yaml:"markup" toml:"markup"`
	Styles     string   `json:"styles" yaml:"styles" toml:"styles"`
	Script     string   `json:"script" yaml:"script" toml:"script"`
	HTML       string   `json:"html" yaml:"html" toml:"html"`
	CSS        string   `json:"css" yaml:"css" toml:"css"`
	JavaScript string   `json:"javascript" yaml:"javascript" toml:"javascript"`
	Author     *Author  `json:"author" yaml:"author" toml:"author"`
	Views      int64    `json:"views" yaml:"views" toml:"views"`
	Likes      int64    `json:"likes" yaml:"likes" toml:"likes"`
	CreatedAt  string   `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
	UpdatedAt  string   `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt"`
	Tags       []string `json:"tags" yaml:"tags" toml:"tags"`
}

type fixtureFile struct {
	Pens []fixturePen `json:"pens" yaml:"pens" toml:"pens"`
}

// LoadFixtures reads every file matching pattern (doublestar syntax, e.g.
// "fixtures/**/*.{json,yaml,toml}") and returns the pens they define, in
// file name order.
func LoadFixtures(pattern string) ([]*Pen, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var pens []*Pen
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", path, err)
		}
		records, err := decodeFixtures(path, data)
		if err != nil {
			return nil, fmt.Errorf("decode fixture %s: %w", path, err)
		}
		for i, rec := range records {
			p, err := rec.pen()
			if err != nil {
				return nil, fmt.Errorf("fixture %s[%d]: %w", path, i, err)
			}
			pens = append(pens, p)
		}
	}
	return pens, nil
}

// Fixture formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// DetectFormat picks a decoder from the extension, falling back to content
// sniffing for unknown extensions.
func DetectFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	}

	if mimetype.Detect(data).Is("application/json") {
		return FormatJSON
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[[pens]]")) {
		return FormatTOML
	}
	return FormatYAML
}

func decodeFixtures(path string, data []byte) ([]fixturePen, error) {
	var file fixtureFile

	switch DetectFormat(path, data) {
	case FormatJSON:
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
			return file.Pens, sonic.Unmarshal(data, &file.Pens)
		}
		return file.Pens, sonic.Unmarshal(data, &file)
	case FormatTOML:
		return file.Pens, toml.Unmarshal(data, &file)
	default:
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-")) {
			return file.Pens, yaml.Unmarshal(data, &file.Pens)
		}
		return file.Pens, yaml.Unmarshal(data, &file)
	}
}

func (f fixturePen) pen() (*Pen, error) {
	p := &Pen{
		Title:  SanitizeText(f.Title),
		Markup: firstNonEmpty(f.Markup, f.HTML),
		Styles: firstNonEmpty(f.Styles, f.CSS),
		Script: firstNonEmpty(f.Script, f.JavaScript),
		Author: Anonymous,
		Views:  f.Views,
		Likes:  f.Likes,
		Tags:   MergeTags(f.Tags),
	}

	if f.ID == nil || fmt.Sprint(f.ID) == "" {
		p.ID = id.NewPenID()
	} else {
		p.ID = id.PenID(fmt.Sprint(f.ID))
		if err := utils.ValidateID(string(p.ID), "id", true); err != nil {
			return nil, err
		}
	}
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if f.Author != nil && f.Author.Name != "" {
		p.Author = Author{ID: f.Author.ID, Name: SanitizeText(f.Author.Name), Avatar: f.Author.Avatar}
	}

	var err error
	if p.CreatedAt, err = parseTime(f.CreatedAt); err != nil {
		return nil, fmt.Errorf("createdAt: %w", err)
	}
	if p.UpdatedAt, err = parseTime(f.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updatedAt: %w", err)
	}
	if f.UpdatedAt == "" {
		p.UpdatedAt = p.CreatedAt
	}
	return p, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
