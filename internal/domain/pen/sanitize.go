package pen

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// textPolicy strips every element; titles and names are plain text
var textPolicy = bluemonday.StrictPolicy()

// SanitizeText removes markup from a metadata string. The result is plain
// text (entities decoded) with surrounding whitespace trimmed.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
