// Package dom answers element queries against a parsed HTML snapshot.
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/news-harvester/internal/repository"
)

// Snapshot is a parsed page. Selectors are CSS as understood by cascadia,
// including the :contains() pseudo-class.
type Snapshot struct {
	doc *goquery.Document
}

// Parse builds a snapshot from raw HTML.
func Parse(htmlContent string) (*Snapshot, error) {
	return ParseReader(strings.NewReader(htmlContent))
}

// ParseReader builds a snapshot from an HTML stream.
func ParseReader(r io.Reader) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	// Script and style bodies would otherwise leak into Text().
	doc.Find("script, style").Remove()
	return &Snapshot{doc: doc}, nil
}

// FindAll returns every element matching selector in document order.
func (s *Snapshot) FindAll(selector string) ([]repository.Element, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: no page loaded", repository.ErrElementNotFound)
	}
	return wrap(s.doc.Find(selector)), nil
}

// FindOne returns the first element matching selector.
func (s *Snapshot) FindOne(selector string) (repository.Element, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: no page loaded", repository.ErrElementNotFound)
	}
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return &Element{sel: sel}, nil
}

// Element wraps a single goquery node.
type Element struct {
	sel *goquery.Selection
}

func (e *Element) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *Element) InnerHTML() (string, error) {
	return e.sel.Html()
}

func (e *Element) NextSibling(selector string) (repository.Element, bool) {
	next := e.sel.NextAllFiltered(selector).First()
	if next.Length() == 0 {
		return nil, false
	}
	return &Element{sel: next}, true
}

func (e *Element) FindAll(selector string) []repository.Element {
	return wrap(e.sel.Find(selector))
}

func wrap(sel *goquery.Selection) []repository.Element {
	var out []repository.Element
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out
}
