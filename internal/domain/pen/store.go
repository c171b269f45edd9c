package pen

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
)

// Store is the record store used by the API: CRUD, counters, search and
// trending over a Repository.
type Store struct {
	repo Repository
	now  func() time.Time
}

// NewStore creates a store over repo
func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// List returns every pen, most recently updated first
func (s *Store) List(ctx context.Context) ([]*Pen, error) {
	pens, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return Recent(pens), nil
}

// Get returns one pen
func (s *Store) Get(ctx context.Context, penID id.PenID) (*Pen, error) {
	if err := utils.ValidateID(string(penID), "id", true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	p, err := s.repo.Get(ctx, penID)
	if err != nil {
		return nil, err
	}
	return withTags(p), nil
}

// Create stores a new pen. Missing fields get defaults: an untitled,
// anonymous pen with zero counters.
func (s *Store) Create(ctx context.Context, fields Fields) (*Pen, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &Pen{
		ID:        id.NewPenID(),
		Author:    Anonymous,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
	}
	fields.apply(p)
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Author.Name == "" {
		p.Author = Anonymous
	}
	p.Tags = MergeTags(p.Tags)

	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return withTags(p.Clone()), nil
}

// Update changes the set fields of a pen
func (s *Store) Update(ctx context.Context, penID id.PenID, fields Fields) (*Pen, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, penID, func(p *Pen) {
		fields.apply(p)
		if p.Title == "" {
			p.Title = DefaultTitle
		}
		p.Tags = MergeTags(p.Tags)
		p.UpdatedAt = s.now().UTC()
	})
	if err != nil {
		return nil, err
	}
	return withTags(p), nil
}

// Delete removes a pen
func (s *Store) Delete(ctx context.Context, penID id.PenID) error {
	return s.repo.Delete(ctx, penID)
}

// View records a view and returns the updated pen
func (s *Store) View(ctx context.Context, penID id.PenID) (*Pen, error) {
	return s.bump(ctx, penID, func(p *Pen) { p.Views++ })
}

// Like records a like and returns the updated pen
func (s *Store) Like(ctx context.Context, penID id.PenID) (*Pen, error) {
	return s.bump(ctx, penID, func(p *Pen) { p.Likes++ })
}

func (s *Store) bump(ctx context.Context, penID id.PenID, fn func(*Pen)) (*Pen, error) {
	p, err := s.repo.Update(ctx, penID, func(p *Pen) {
		fn(p)
		p.UpdatedAt = s.now().UTC()
	})
	if err != nil {
		return nil, err
	}
	return withTags(p), nil
}

// Fork copies a pen's sources into a new pen titled "Fork of <title>"
func (s *Store) Fork(ctx context.Context, penID id.PenID, author *Author) (*Pen, error) {
	src, err := s.Get(ctx, penID)
	if err != nil {
		return nil, err
	}

	title := ForkPrefix + src.Title
	if len([]rune(title)) > utils.MaxTitleLength {
		title = string([]rune(title)[:utils.MaxTitleLength])
	}

	return s.Create(ctx, Fields{
		Title:  &title,
		Markup: &src.Markup,
		Styles: &src.Styles,
		Script: &src.Script,
		Author: author,
	})
}

// Search matches query against the chosen fields
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) ([]*Pen, error) {
	if err := utils.ValidateQuery(query); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	pens, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return Search(pens, query, opts), nil
}

// Trending returns the most liked and viewed pens
func (s *Store) Trending(ctx context.Context, limit int) ([]*Pen, error) {
	pens, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return Trending(pens, limit), nil
}

// Close releases the repository
func (s *Store) Close() error {
	return s.repo.Close()
}

func (s *Store) all(ctx context.Context) ([]*Pen, error) {
	pens, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pens {
		withTags(p)
	}
	return pens, nil
}
