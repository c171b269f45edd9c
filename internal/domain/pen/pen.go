package pen

import (
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
)

// Defaults for pens created without metadata
const (
	DefaultTitle = "Untitled Pen"
	ForkPrefix   = "Fork of "
)

var (
	// ErrNotFound is returned when no pen has the requested ID
	ErrNotFound = errors.New("pen not found")
	// ErrUnavailable wraps backend failures a caller may retry
	ErrUnavailable = errors.New("pen store unavailable")
	// ErrInvalid wraps field validation failures
	ErrInvalid = errors.New("invalid pen")
)

// Anonymous is the author of pens created without one
var Anonymous = Author{ID: "anonymous", Name: "Anonymous"}

// Author identifies who wrote a pen
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Pen is a saved unit of markup, styles and script plus metadata
type Pen struct {
	ID        id.PenID  `json:"id"`
	Title     string    `json:"title"`
	Markup    string    `json:"markup"`
	Styles    string    `json:"styles"`
	Script    string    `json:"script"`
	Author    Author    `json:"author"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tags      []string  `json:"tags"`
}

// Bundle returns the pen's source fragments
func (p *Pen) Bundle() preview.SourceBundle {
	return preview.SourceBundle{Markup: p.Markup, Styles: p.Styles, Script: p.Script}
}

// Popularity is the trending score
func (p *Pen) Popularity() int64 {
	return p.Likes + p.Views
}

// Clone returns a deep copy
func (p *Pen) Clone() *Pen {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

// Fields carries user-supplied values for create and update. Nil fields are
// left unchanged on update and defaulted on create.
type Fields struct {
	Title  *string  `json:"title,omitempty"`
	Markup *string  `json:"markup,omitempty"`
	Styles *string  `json:"styles,omitempty"`
	Script *string  `json:"script,omitempty"`
	Author *Author  `json:"author,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Validate checks sizes and lengths
func (f Fields) Validate() error {
	if f.Title != nil {
		if err := utils.ValidateTitle(*f.Title); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	for name, src := range map[string]*string{"markup": f.Markup, "styles": f.Styles, "script": f.Script} {
		if src == nil {
			continue
		}
		if err := utils.ValidateSource(*src, name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if f.Author != nil {
		if err := utils.ValidateString(f.Author.Name, "author.name", 0, utils.MaxNameLength, false); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if err := utils.ValidateTags(f.Tags); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// apply copies the set fields onto p, sanitizing text metadata
func (f Fields) apply(p *Pen) {
	if f.Title != nil {
		p.Title = SanitizeText(*f.Title)
	}
	if f.Markup != nil {
		p.Markup = *f.Markup
	}
	if f.Styles != nil {
		p.Styles = *f.Styles
	}
	if f.Script != nil {
		p.Script = *f.Script
	}
	if f.Author != nil {
		p.Author = Author{
			ID:     f.Author.ID,
			Name:   SanitizeText(f.Author.Name),
			Avatar: f.Author.Avatar,
		}
	}
	if f.Tags != nil {
		p.Tags = append([]string(nil), f.Tags...)
	}
}

// String returns a pointer to s, for building Fields
func String(s string) *string {
	return &s
}
