package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/pkg/utils"
)

const (
	FinextraName = "finextra"
	FinextraHost = "https://www.finextra.com"

	finextraNextGlyph   = "›"
	finextraTagHeadings = ".article--tagging-left h4"
)

var parenthesizedCount = regexp.MustCompile(`\((\d+)\)`)

// Finextra returns the definition of the finextra.com latest-news listing.
func Finextra() Definition {
	return Definition{
		Name: FinextraName,
		Host: FinextraHost,
		ListingURL: func(date time.Time) string {
			return FinextraHost + "/latest-news?date=" + date.Format("2006-01-02")
		},
		NextPage: GlyphNextPage("#pagination a", finextraNextGlyph),
		Layout: Layout{
			ArticleLinks: ".modulegroup--latest-storylisting h4 a",
			Title:        ".article--title h1",
			Body:         ".article--body",
			Abstract:     ".article--body .stand-first",
			DateText:     ".article--title .time--diff",
			Metadata: []Field{
				{Key: "article_type", Mode: URLPathSegment, Segment: 0},
				{Key: "related_comp", Mode: HeadedSection, Selector: finextraTagHeadings, Heading: "Related Companies", Section: "div", Items: "span"},
				{Key: "lead_ch", Mode: HeadedSection, Selector: finextraTagHeadings, Heading: "Lead Channel", Section: "div", Items: "span"},
				{Key: "channels", Mode: HeadedSection, Selector: finextraTagHeadings, Heading: "Channels", Section: "div", Items: "span"},
				{Key: "keywords", Mode: HeadedSection, Selector: finextraTagHeadings, Heading: "Keywords", Section: "div", Items: "span"},
				{Key: "category_name", Mode: InnerHTMLOf, Selector: ".article--tagging-left .category--title span", Clean: beforePipe},
				{Key: "category_desc", Mode: InnerHTMLOf, Selector: ".article--tagging-left .category--meta"},
				{Key: "tw_count", Mode: TextOf, Selector: ".article--title .module--share-this #twitterResult"},
				{Key: "li_count", Mode: TextOf, Selector: ".article--title .module--share-this #liResult"},
				{Key: "fb_count", Mode: TextOf, Selector: ".article--title .module--share-this #fbResult"},
				{Key: "comment_count", Mode: TextOf, Selector: "#comment + h4", Clean: commentCount},
			},
		},
	}
}

// "Editorial | Finextra" -> "Editorial"
func beforePipe(s string) (string, error) {
	name, _, _ := strings.Cut(s, " |")
	return strings.TrimSpace(name), nil
}

// "Comments: (12)" -> "12"
func commentCount(s string) (string, error) {
	m := parenthesizedCount.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("no comment count in %q", s)
	}
	return m[1], nil
}

// GlyphNextPage locates the pagination link whose text is glyph.
func GlyphNextPage(selector, glyph string) NextPageLocator {
	return func(listing repository.FetchSession) (string, bool) {
		links, err := listing.FindAll(selector)
		if err != nil {
			return "", false
		}
		for _, link := range links {
			if link.Text() != glyph {
				continue
			}
			href, ok := link.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return "", false
			}
			base, err := url.Parse(listing.CurrentURL())
			if err != nil {
				return "", false
			}
			abs, err := utils.ToAbsoluteURL(base, strings.TrimSpace(href))
			if err != nil {
				return "", false
			}
			return abs, true
		}
		return "", false
	}
}
