// Package source describes the sites the harvester knows how to walk.
package source

import (
	"time"

	"github.com/user/news-harvester/internal/repository"
)

// FieldMode selects how an optional metadata field is read from an article page.
type FieldMode int

const (
	// TextOf reads the text of the first match.
	TextOf FieldMode = iota
	// JoinedTextOf joins the non-empty texts of all matches with ", ".
	JoinedTextOf
	// InnerHTMLOf reads the inner markup of the first match.
	InnerHTMLOf
	// URLPathSegment reads path segment Segment of the article URL.
	URLPathSegment
	// HeadedSection finds the Selector match whose text is exactly Heading,
	// takes its first following sibling matching Section and joins the
	// non-empty texts of the Items inside it with ", ".
	HeadedSection
)

// Field is one metadata entry of a Document.
type Field struct {
	Key      string
	Mode     FieldMode
	Selector string
	Segment  int
	Heading  string
	Section  string
	Items    string
	// Clean post-processes the raw value. It may return an error when the
	// value does not have the expected shape.
	Clean func(string) (string, error)
}

// Layout holds the selectors of the listing and article pages.
type Layout struct {
	ArticleLinks string
	Title        string // required
	Body         string // required
	Abstract     string
	DateText     string
	Metadata     []Field
}

// NextPageLocator returns the absolute URL of the next listing page, if any.
type NextPageLocator func(listing repository.FetchSession) (string, bool)

// Definition is everything the harvester needs to know about one site.
type Definition struct {
	Name       string
	Host       string
	ListingURL func(date time.Time) string
	NextPage   NextPageLocator
	Layout     Layout
}

// MetadataKeys returns the keys every document of this source carries.
func (d Definition) MetadataKeys() []string {
	keys := make([]string, 0, len(d.Layout.Metadata))
	for _, f := range d.Layout.Metadata {
		keys = append(keys, f.Key)
	}
	return keys
}
