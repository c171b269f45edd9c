package pen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, seed ...*Pen) (*Store, *time.Time) {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(NewMemoryRepository(seed...))
	s.now = func() time.Time { return now }
	return s, &now
}

func seedPen(penID, title string, views, likes int64, created time.Time) *Pen {
	return &Pen{
		ID:        id.PenID(penID),
		Title:     title,
		Author:    Anonymous,
		Views:     views,
		Likes:     likes,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestCreateDefaults(t *testing.T) {
	s, now := newTestStore(t)

	p, err := s.Create(context.Background(), Fields{})
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, p.Title)
	assert.Equal(t, Anonymous, p.Author)
	assert.Zero(t, p.Views)
	assert.Zero(t, p.Likes)
	assert.Equal(t, *now, p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.Contains(t, string(p.ID), id.PenPrefix+"_")
	assert.NotNil(t, p.Tags)
}

func TestCreateSanitizesAndTags(t *testing.T) {
	s, _ := newTestStore(t)

	p, err := s.Create(context.Background(), Fields{
		Title:  String("<script>alert(1)</script>Gradient <em>Button</em>"),
		Markup: String("<svg></svg><button>go</button>"),
		Author: &Author{ID: "u1", Name: "<b>Ada</b>"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Gradient Button", p.Title)
	assert.Equal(t, "Ada", p.Author.Name)
	assert.Equal(t, []string{"Buttons", "Gradients", "SVG"}, p.Tags)
	// markup is stored verbatim
	assert.Equal(t, "<svg></svg><button>go</button>", p.Markup)
}

func TestCreateRejectsOversizedSource(t *testing.T) {
	s, _ := newTestStore(t)

	huge := make([]byte, 600*1024)
	_, err := s.Create(context.Background(), Fields{Script: String(string(huge))})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestGetNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, Fields{Title: String("First"), Script: String("a()")})
	require.NoError(t, err)

	*now = now.Add(time.Minute)
	updated, err := s.Update(ctx, p.ID, Fields{Markup: String("<p>hi</p>")})
	require.NoError(t, err)

	assert.Equal(t, "First", updated.Title)
	assert.Equal(t, "a()", updated.Script)
	assert.Equal(t, "<p>hi</p>", updated.Markup)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = s.Update(ctx, "nope", Fields{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewAndLike(t *testing.T) {
	s, _ := newTestStore(t, seedPen("p1", "One", 3, 1, time.Now()))
	ctx := context.Background()

	p, err := s.View(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, p.Views)

	p, err = s.Like(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.Likes)
	assert.EqualValues(t, 4, p.Views)

	_, err = s.Like(ctx, "p2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFork(t *testing.T) {
	src := seedPen("p1", "Clock", 10, 10, time.Now())
	src.Markup, src.Styles, src.Script = "<div></div>", "div{}", "tick()"
	s, _ := newTestStore(t, src)

	fork, err := s.Fork(context.Background(), "p1", &Author{ID: "u9", Name: "Kim"})
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, fork.ID)
	assert.Equal(t, "Fork of Clock", fork.Title)
	assert.Equal(t, src.Bundle(), fork.Bundle())
	assert.Equal(t, "Kim", fork.Author.Name)
	assert.Zero(t, fork.Views)

	fork, err = s.Fork(context.Background(), "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, Anonymous, fork.Author)
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t, seedPen("p1", "One", 0, 0, time.Now()))
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "p1"))
	assert.ErrorIs(t, s.Delete(ctx, "p1"), ErrNotFound)
	_, err := s.Get(ctx, "p1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t,
		seedPen("a", "A", 0, 0, base),
		seedPen("b", "B", 0, 0, base.Add(2*time.Hour)),
		seedPen("c", "C", 0, 0, base.Add(time.Hour)),
	)

	pens, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pens, 3)
	assert.Equal(t, []id.PenID{"b", "c", "a"}, []id.PenID{pens[0].ID, pens[1].ID, pens[2].ID})
}

func TestStoreSearchValidatesQuery(t *testing.T) {
	s, _ := newTestStore(t)

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	_, err := s.Search(context.Background(), string(long), SearchOptions{})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository(seedPen("p1", "One", 0, 0, time.Now()))
	ctx := context.Background()

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	p.Title = "changed"

	again, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "One", again.Title)

	assert.ErrorIs(t, repo.Insert(ctx, seedPen("p1", "Dup", 0, 0, time.Now())), ErrInvalid)
	assert.Equal(t, 1, repo.Len())
}

func TestUpdateRederivesTags(t *testing.T) {
	repo := NewMemoryRepository()
	s := NewStore(repo)
	ctx := context.Background()

	p, err := s.Create(ctx, Fields{Title: String("CSS Button Hover"), Markup: String("<canvas>")})
	require.NoError(t, err)
	assert.Equal(t, []string{"CSS", "Hover Effects", "Buttons", "Canvas"}, p.Tags)

	p, err = s.Update(ctx, p.ID, Fields{Title: String("Weather"), Markup: String("<p>x</p>")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Weather"}, p.Tags)

	p, err = s.Like(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Weather"}, p.Tags)

	stored, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Tags)

	pens, err := s.Search(ctx, "hover", SearchOptions{FilterBy: FilterTags})
	require.NoError(t, err)
	assert.Empty(t, pens)
}

func TestUpdateKeepsAuthorTags(t *testing.T) {
	repo := NewMemoryRepository()
	s := NewStore(repo)
	ctx := context.Background()

	p, err := s.Create(ctx, Fields{Title: String("Grid Demo"), Tags: []string{"Layout", "layout"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Layout", "Grid Layout"}, p.Tags)

	p, err = s.Update(ctx, p.ID, Fields{Title: String("Card Demo")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Layout", "Cards"}, p.Tags)

	stored, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Layout"}, stored.Tags)

	pens, err := s.Search(ctx, "cards", SearchOptions{FilterBy: FilterTags})
	require.NoError(t, err)
	assert.Equal(t, []id.PenID{p.ID}, ids(pens))
}
