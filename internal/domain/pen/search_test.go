package pen

import (
	"testing"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/stretchr/testify/assert"
)

func searchCorpus() []*Pen {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(penID, title, author string, views, likes int64, age int, tags ...string) *Pen {
		p := seedPen(penID, title, views, likes, base.Add(time.Duration(age)*time.Hour))
		p.Author = Author{ID: author, Name: author}
		p.Tags = tags
		return p
	}
	return []*Pen{
		mk("p1", "Neon Button", "Ada", 10, 1, 1, "Buttons"),
		mk("p2", "Glass Card", "Lin", 5, 50, 2, "Cards"),
		mk("p3", "Button Grid", "Grace", 100, 2, 3, "Grid Layout"),
		mk("p4", "Clock", "Button Fan", 0, 0, 4),
	}
}

func ids(pens []*Pen) []id.PenID {
	out := make([]id.PenID, len(pens))
	for i, p := range pens {
		out[i] = p.ID
	}
	return out
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		opts  SearchOptions
		want  []id.PenID
	}{
		{"blank query", "   ", SearchOptions{}, []id.PenID{}},
		{"all fields recent", "button", SearchOptions{}, []id.PenID{"p4", "p3", "p1"}},
		{"case insensitive", "BUTTON", SearchOptions{FilterBy: FilterTitle}, []id.PenID{"p3", "p1"}},
		{"author only", "button", SearchOptions{FilterBy: FilterAuthor}, []id.PenID{"p4"}},
		{"tags only", "layout", SearchOptions{FilterBy: FilterTags}, []id.PenID{"p3"}},
		{"sort views", "button", SearchOptions{SortBy: SortViews}, []id.PenID{"p3", "p1", "p4"}},
		{"sort likes", "a", SearchOptions{SortBy: SortLikes, FilterBy: FilterAuthor}, []id.PenID{"p3", "p1", "p4"}},
		{"sort popular", "c", SearchOptions{SortBy: SortPopular, FilterBy: FilterTitle}, []id.PenID{"p2", "p4"}},
		{"unknown values fall back", "button", SearchOptions{SortBy: "bogus", FilterBy: "bogus"}, []id.PenID{"p4", "p3", "p1"}},
		{"no match", "zebra", SearchOptions{}, []id.PenID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(searchCorpus(), tt.query, tt.opts)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestTrending(t *testing.T) {
	pens := searchCorpus()

	assert.Equal(t, []id.PenID{"p3", "p2", "p1", "p4"}, ids(Trending(pens, 0)))
	assert.Equal(t, []id.PenID{"p3", "p2"}, ids(Trending(pens, 2)))
	// input order is untouched
	assert.Equal(t, id.PenID("p1"), pens[0].ID)
}

func TestTrendingDefaultLimit(t *testing.T) {
	var pens []*Pen
	for i := 0; i < 15; i++ {
		pens = append(pens, seedPen(id.NewPenID().String(), "x", int64(i), 0, time.Now()))
	}
	assert.Len(t, Trending(pens, 0), DefaultTrendingLimit)
}
