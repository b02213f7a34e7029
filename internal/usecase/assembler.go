package usecase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/internal/source"
	"go.uber.org/zap"
)

// Assembler builds a Document from a loaded article page.
type Assembler struct {
	layout source.Layout
	dates  repository.DateParser
	logger *zap.Logger
}

// NewAssembler creates an assembler for one source layout.
func NewAssembler(layout source.Layout, dates repository.DateParser, logger *zap.Logger) *Assembler {
	return &Assembler{layout: layout, dates: dates, logger: logger}
}

// Assemble extracts the document shown by page. It fails with
// ErrExtractionFailed only when the title or body is missing; every other
// field falls back to an empty value.
func (a *Assembler) Assemble(page repository.FetchSession, webLink string) (*entity.Document, error) {
	if webLink == "" {
		return nil, fmt.Errorf("%w: empty web link", repository.ErrExtractionFailed)
	}

	title, err := a.required(page, "title", a.layout.Title)
	if err != nil {
		return nil, err
	}
	text, err := a.required(page, "text", a.layout.Body)
	if err != nil {
		return nil, err
	}

	doc := &entity.Document{
		Title:    title,
		Abstract: a.optional(webLink, "abstract", func() (string, error) { return textOf(page, a.layout.Abstract) }),
		Text:     text,
		WebLink:  webLink,
		Metadata: make(map[string]string, len(a.layout.Metadata)),
	}

	if dateText := a.optional(webLink, "date", func() (string, error) { return textOf(page, a.layout.DateText) }); dateText != "" {
		if t, ok := a.dates.ParseApproximate(dateText); ok {
			doc.PublicationDate = &t
		} else {
			a.logger.Debug("unparseable publication date", zap.String("url", webLink), zap.String("text", dateText))
		}
	}

	for _, f := range a.layout.Metadata {
		doc.Metadata[f.Key] = a.optional(webLink, f.Key, func() (string, error) {
			return extractField(page, webLink, f)
		})
	}

	doc.ContentHash = entity.ComputeContentHash(doc.Title, doc.WebLink)
	return doc, nil
}

func (a *Assembler) required(page repository.FetchSession, name, selector string) (string, error) {
	el, err := page.FindOne(selector)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", repository.ErrExtractionFailed, name, err)
	}
	return el.Text(), nil
}

// optional collapses a field extraction failure into an empty value.
func (a *Assembler) optional(webLink, name string, extract func() (string, error)) string {
	v, err := extract()
	if err != nil {
		a.logger.Debug("optional field missing", zap.String("url", webLink), zap.String("field", name), zap.Error(err))
		return ""
	}
	return v
}

// extractField reads one metadata field. Any failure is returned, never swallowed.
func extractField(page repository.FetchSession, webLink string, f source.Field) (string, error) {
	var (
		raw string
		err error
	)
	switch f.Mode {
	case source.TextOf:
		raw, err = textOf(page, f.Selector)
	case source.JoinedTextOf:
		raw, err = joinedTextOf(page, f.Selector)
	case source.InnerHTMLOf:
		raw, err = innerHTMLOf(page, f.Selector)
	case source.HeadedSection:
		raw, err = headedSection(page, f)
	case source.URLPathSegment:
		loc := page.CurrentURL()
		if loc == "" {
			loc = webLink
		}
		raw, err = pathSegment(loc, f.Segment)
	default:
		return "", fmt.Errorf("unknown field mode %d", f.Mode)
	}
	if err != nil {
		return "", err
	}
	if f.Clean != nil {
		return f.Clean(raw)
	}
	return raw, nil
}

func textOf(page repository.FetchSession, selector string) (string, error) {
	if selector == "" {
		return "", nil
	}
	el, err := page.FindOne(selector)
	if err != nil {
		return "", err
	}
	return el.Text(), nil
}

func joinedTextOf(page repository.FetchSession, selector string) (string, error) {
	els, err := page.FindAll(selector)
	if err != nil {
		return "", err
	}
	return joinTexts(els), nil
}

func joinTexts(els []repository.Element) string {
	parts := make([]string, 0, len(els))
	for _, el := range els {
		if t := el.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ", ")
}

// headedSection compares heading text exactly, so "Related Channels" never
// stands in for "Channels".
func headedSection(page repository.FetchSession, f source.Field) (string, error) {
	headings, err := page.FindAll(f.Selector)
	if err != nil {
		return "", err
	}
	for _, h := range headings {
		if h.Text() != f.Heading {
			continue
		}
		section, ok := h.NextSibling(f.Section)
		if !ok {
			return "", fmt.Errorf("%w: %s after heading %q", repository.ErrElementNotFound, f.Section, f.Heading)
		}
		return joinTexts(section.FindAll(f.Items)), nil
	}
	return "", fmt.Errorf("%w: heading %q", repository.ErrElementNotFound, f.Heading)
}

func innerHTMLOf(page repository.FetchSession, selector string) (string, error) {
	el, err := page.FindOne(selector)
	if err != nil {
		return "", err
	}
	html, err := el.InnerHTML()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(html), nil
}

func pathSegment(rawURL string, index int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if index < 0 || index >= len(segments) || segments[index] == "" {
		return "", fmt.Errorf("no path segment %d in %s", index, rawURL)
	}
	return segments[index], nil
}
