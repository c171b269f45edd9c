package pen

import (
	"sort"
	"strings"
)

// SortBy orders search results
type SortBy string

const (
	SortRecent  SortBy = "recent"
	SortPopular SortBy = "popular"
	SortViews   SortBy = "views"
	SortLikes   SortBy = "likes"
)

// FilterBy selects which fields a query matches
type FilterBy string

const (
	FilterAll    FilterBy = "all"
	FilterTitle  FilterBy = "title"
	FilterAuthor FilterBy = "author"
	FilterTags   FilterBy = "tags"
)

// DefaultTrendingLimit is the size of the trending list
const DefaultTrendingLimit = 10

// SearchOptions tune Search. Unknown values fall back to recent/all.
type SearchOptions struct {
	SortBy   SortBy   `json:"sortBy" form:"sortBy"`
	FilterBy FilterBy `json:"filterBy" form:"filterBy"`
}

func (o SearchOptions) normalized() SearchOptions {
	switch o.SortBy {
	case SortRecent, SortPopular, SortViews, SortLikes:
	default:
		o.SortBy = SortRecent
	}
	switch o.FilterBy {
	case FilterAll, FilterTitle, FilterAuthor, FilterTags:
	default:
		o.FilterBy = FilterAll
	}
	return o
}

// Search returns the pens matching query, a case-insensitive substring.
// A blank query matches nothing.
func Search(pens []*Pen, query string, opts SearchOptions) []*Pen {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return []*Pen{}
	}
	opts = opts.normalized()

	results := []*Pen{}
	for _, p := range pens {
		if matches(p, term, opts.FilterBy) {
			results = append(results, p)
		}
	}

	sortPens(results, opts.SortBy)
	return results
}

func matches(p *Pen, term string, filter FilterBy) bool {
	title := func() bool { return strings.Contains(strings.ToLower(p.Title), term) }
	author := func() bool { return strings.Contains(strings.ToLower(p.Author.Name), term) }
	tags := func() bool {
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), term) {
				return true
			}
		}
		return false
	}

	switch filter {
	case FilterTitle:
		return title()
	case FilterAuthor:
		return author()
	case FilterTags:
		return tags()
	default:
		return title() || author() || tags()
	}
}

// Trending returns the limit most popular pens by likes plus views
func Trending(pens []*Pen, limit int) []*Pen {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	out := append([]*Pen(nil), pens...)
	sortPens(out, SortPopular)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Recent orders pens by last update, newest first
func Recent(pens []*Pen) []*Pen {
	out := append([]*Pen(nil), pens...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// sortPens sorts in place, descending by the chosen key. Ties keep the
// newest pen first so results are stable across backends.
func sortPens(pens []*Pen, by SortBy) {
	key := func(p *Pen) int64 {
		switch by {
		case SortPopular:
			return p.Popularity()
		case SortViews:
			return p.Views
		case SortLikes:
			return p.Likes
		default:
			return p.CreatedAt.UnixNano()
		}
	}

	sort.SliceStable(pens, func(i, j int) bool {
		a, b := key(pens[i]), key(pens[j])
		if a != b {
			return a > b
		}
		if !pens[i].CreatedAt.Equal(pens[j].CreatedAt) {
			return pens[i].CreatedAt.After(pens[j].CreatedAt)
		}
		return pens[i].ID > pens[j].ID
	})
}
