package pen

import (
	"strings"

	"github.com/antchfx/htmlquery"
)

// titleKeywords maps title substrings to tags, in output order
var titleKeywords = []struct {
	keywords []string
	tag      string
}{
	{[]string{"css"}, "CSS"},
	{[]string{"javascript", "js"}, "JavaScript"},
	{[]string{"html"}, "HTML"},
	{[]string{"animation"}, "Animation"},
	{[]string{"hover"}, "Hover Effects"},
	{[]string{"button"}, "Buttons"},
	{[]string{"card"}, "Cards"},
	{[]string{"grid"}, "Grid Layout"},
	{[]string{"canvas"}, "Canvas"},
	{[]string{"particle"}, "Particles"},
	{[]string{"color"}, "Colors"},
	{[]string{"gradient"}, "Gradients"},
	{[]string{"morph"}, "Morphing"},
	{[]string{"glass"}, "Glassmorphism"},
	{[]string{"weather"}, "Weather"},
	{[]string{"dashboard"}, "Dashboard"},
	{[]string{"interactive"}, "Interactive"},
}

// markupElements maps elements found in the markup to tags
var markupElements = []struct {
	xpath string
	tag   string
}{
	{"//canvas", "Canvas"},
	{"//svg", "SVG"},
}

// GenerateTags derives tags from a pen's title and markup. The result is
// deterministic and free of duplicates.
func GenerateTags(title, markup string) []string {
	var tags []string
	lower := strings.ToLower(title)

	for _, k := range titleKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, k.tag)
				break
			}
		}
	}

	if strings.TrimSpace(markup) != "" {
		if doc, err := htmlquery.Parse(strings.NewReader(markup)); err == nil {
			for _, el := range markupElements {
				if htmlquery.FindOne(doc, el.xpath) != nil {
					tags = append(tags, el.tag)
				}
			}
		}
	}

	return MergeTags(tags)
}

// MergeTags concatenates tag lists, dropping blanks and case-insensitive
// duplicates while keeping first-seen order and spelling.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			key := strings.ToLower(tag)
			if tag == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, tag)
		}
	}
	return out
}

// withTags returns p with the derived tags appended to its own. Only the
// author's tags are persisted; p must be a copy the caller owns.
func withTags(p *Pen) *Pen {
	p.Tags = MergeTags(p.Tags, GenerateTags(p.Title, p.Markup))
	return p
}
