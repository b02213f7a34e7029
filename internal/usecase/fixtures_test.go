package usecase

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/user/news-harvester/internal/adapter/dateparser"
	"github.com/user/news-harvester/internal/source"
	"github.com/user/news-harvester/internal/testutil/fakesession"
	"github.com/user/news-harvester/pkg/metrics"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2024, 3, 18, 16, 0, 0, 0, time.UTC)

func listingURL(day int) string {
	return source.Finextra().ListingURL(time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC))
}

func articleURL(id int) string {
	return fmt.Sprintf("%s/newsarticle/%d/story-%d", source.FinextraHost, id, id)
}

func articlePath(id int) string {
	return fmt.Sprintf("/newsarticle/%d/story-%d", id, id)
}

// listingHTML renders a latest-news page linking to the given article ids.
func listingHTML(next string, ids ...int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="modulegroup--latest-storylisting">`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<div class="item"><h4><a href="%s">Story %d</a></h4></div>`, articlePath(id), id)
	}
	b.WriteString(`</div>`)
	if next != "" {
		fmt.Fprintf(&b, `<div id="pagination"><a href="?page=1">‹</a><a href="%s">›</a></div>`, next)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// articleHTML renders an article page carrying every optional section.
func articleHTML(title, dateText string) string {
	return `<html><body>
<div class="article--title">
  <h1>` + title + `</h1>
  <span class="time--diff">` + dateText + `</span>
  <div class="module--share-this">
    <span id="twitterResult">3</span><span id="liResult">7</span><span id="fbResult"></span>
  </div>
</div>
<div class="article--tagging-left">
  <h4>Related Companies</h4><div><span>Shift4 Payments</span><span></span><span>Visa</span></div>
  <h4>Lead Channel</h4><div><span>Payments</span></div>
  <h4>Channels</h4><div><span>Retail banking</span></div>
  <h4>Keywords</h4><div><span>Mergers and acquisitions</span></div>
  <div class="category--title"><span>Editorial | Finextra</span></div>
  <div class="category--meta">Selected by the editorial team.</div>
</div>
<div class="article--body">
  <p class="stand-first">The abstract of ` + title + `.</p>
  <p>Body of ` + title + `.</p>
</div>
<div id="comment"></div><h4>Comments: (4)</h4>
</body></html>`
}

// bareArticleHTML renders an article page with only the required sections.
func bareArticleHTML(title string) string {
	return `<html><body>
<div class="article--title"><h1>` + title + `</h1></div>
<div class="article--body"><p>Body of ` + title + `.</p></div>
</body></html>`
}

// brokenArticleHTML renders a page that is not an article.
func brokenArticleHTML() string {
	return `<html><body><div class="error">Page not found</div></body></html>`
}

func newTestHarvester(t *testing.T, site *fakesession.Site, opts ...HarvesterOption) (*Harvester, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	clock := func() time.Time { return testNow }
	h := NewHarvester(
		site.Session(),
		source.Finextra(),
		dateparser.NewWithClock(time.UTC, clock),
		m,
		zaptest.NewLogger(t),
		append([]HarvesterOption{WithClock(clock)}, opts...)...,
	)
	return h, m
}

func titles(result *HarvestResult) []string {
	out := make([]string, 0, len(result.Documents))
	for _, d := range result.Documents {
		out = append(out, d.Title)
	}
	return out
}
