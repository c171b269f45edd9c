package sandbox

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DOM is a read-mostly document proxy built from a pen's markup. Writes are
// applied to the parsed tree and recorded as changes.
type DOM struct {
	doc     *goquery.Document
	changes []DOMChange
	mu      sync.Mutex
}

// NewDOM parses markup into a document
func NewDOM(markup string) (*DOM, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return &DOM{doc: doc}, nil
}

// Query returns the elements matching a CSS selector in document order.
// Invalid selectors match nothing.
func (d *DOM) Query(selector string) (elements []*Element) {
	defer func() {
		// cascadia panics on some malformed selectors
		if recover() != nil {
			elements = nil
		}
	}()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		elements = append(elements, &Element{dom: d, sel: s, selector: fmt.Sprintf("%s[%d]", selector, i)})
	})
	return elements
}

// ByID returns the element with the given id
func (d *DOM) ByID(elementID string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	var found *Element
	d.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == elementID {
			found = &Element{dom: d, sel: s, selector: "#" + elementID}
			return false
		}
		return true
	})
	return found
}

// Title returns the document title, if the markup has one
func (d *DOM) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Changes returns the recorded writes
func (d *DOM) Changes() []DOMChange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DOMChange(nil), d.changes...)
}

// Element is one node of the document
type Element struct {
	dom      *DOM
	sel      *goquery.Selection
	selector string
}

// TagName returns the upper-cased tag name, as browsers report it
func (e *Element) TagName() string {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	return strings.ToUpper(goquery.NodeName(e.sel))
}

// Attr returns an attribute value, or "" when absent
func (e *Element) Attr(name string) string {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	return e.sel.AttrOr(name, "")
}

// Text returns the element's text content
func (e *Element) Text() string {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	return e.sel.Text()
}

// HTML returns the element's inner HTML
func (e *Element) HTML() string {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	h, _ := e.sel.Html()
	return h
}

// SetAttr sets an attribute
func (e *Element) SetAttr(name, value string) {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	e.sel.SetAttr(name, value)
	e.record("set_attribute", name, value)
}

// SetText replaces the element's children with text
func (e *Element) SetText(text string) {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	e.sel.SetText(text)
	e.record("set_text", "textContent", text)
}

// SetHTML replaces the element's children with parsed markup
func (e *Element) SetHTML(markup string) {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	e.sel.SetHtml(markup)
	e.record("set_html", "innerHTML", markup)
}

// record must be called with the DOM locked
func (e *Element) record(kind, property, value string) {
	e.dom.changes = append(e.dom.changes, DOMChange{
		Type:     kind,
		Selector: e.selector,
		Property: property,
		Value:    value,
	})
}
