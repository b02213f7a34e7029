package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/pkg/utils"
	"go.uber.org/zap"
)

// traversePages walks the listing currently loaded in h.session and every
// page after it. It returns Continue once the date's listing is exhausted.
func (h *Harvester) traversePages(ctx context.Context, st *crawlState) (Decision, error) {
	seen := map[string]bool{h.session.CurrentURL(): true}

	for {
		for _, link := range h.articleLinks(st) {
			decision, err := h.visitArticle(ctx, link, st)
			if err != nil {
				return Continue, err
			}
			if decision != Continue {
				return decision, nil
			}
		}

		next, ok := h.source.NextPage(h.session)
		if !ok {
			h.logger.Info("no further listing page", zap.String("url", h.session.CurrentURL()))
			return Continue, nil
		}
		if seen[next] {
			h.logger.Warn("pagination loops back, ending listing", zap.String("url", next))
			return Continue, nil
		}
		seen[next] = true

		h.logger.Info("loading next listing page", zap.String("url", next))
		if err := h.navigate(ctx, h.session, next, "listing"); err != nil {
			if !repository.IsNavigation(err) {
				return Continue, err
			}
			h.skip(st, next, entity.SkipListingNavigation, err)
			return Continue, nil
		}
	}
}

// articleLinks returns the absolute article URLs of the loaded listing page in page order.
func (h *Harvester) articleLinks(st *crawlState) []string {
	elements, err := h.session.FindAll(h.source.Layout.ArticleLinks)
	if err != nil {
		h.logger.Warn("no article links on listing", zap.String("url", h.session.CurrentURL()), zap.Error(err))
		return nil
	}

	base, _ := url.Parse(h.session.CurrentURL())
	links := make([]string, 0, len(elements))
	for _, el := range elements {
		href, ok := el.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			h.skip(st, h.session.CurrentURL(), entity.SkipMissingLink, fmt.Errorf("article link %q has no href", el.Text()))
			continue
		}
		if base != nil {
			if abs, err := utils.ToAbsoluteURL(base, href); err == nil {
				href = abs
			}
		}
		links = append(links, href)
	}
	return links
}

// visitArticle loads one article in an isolated context and applies the
// stop policy to it. The context is closed on every path out.
func (h *Harvester) visitArticle(ctx context.Context, link string, st *crawlState) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Continue, err
	}

	tab, err := h.session.OpenIsolated(ctx)
	if err != nil {
		return Continue, fmt.Errorf("failed to open isolated context: %w", err)
	}
	defer func() {
		if err := tab.Close(); err != nil {
			h.logger.Warn("failed to close isolated context", zap.String("url", link), zap.Error(err))
		}
	}()

	h.logger.Info("loading article", zap.String("url", link))
	if err := h.navigate(ctx, tab, link, "article"); err != nil {
		if !repository.IsNavigation(err) {
			return Continue, err
		}
		h.skip(st, link, entity.SkipArticleNavigation, err)
		return Continue, nil
	}

	doc, err := h.assembler.Assemble(tab, link)
	if err != nil {
		if !errors.Is(err, repository.ErrExtractionFailed) {
			return Continue, err
		}
		h.skip(st, link, entity.SkipArticleExtraction, err)
		return Continue, nil
	}

	decision := st.policy.Evaluate(doc, len(st.documents))
	if decision == StopDuplicate {
		h.logger.Info("reached last known document", zap.String("url", link), zap.String("content_hash", doc.ContentHash))
		return decision, nil
	}

	st.documents = append(st.documents, doc)
	h.metrics.DocumentsHarvested.WithLabelValues(h.source.Name).Inc()
	h.logger.Info("document found", documentFields(doc)...)

	if decision == StopMaxCount {
		h.logger.Info("reached max count", zap.Int("max_count", st.policy.MaxCount))
	}
	return decision, nil
}

func documentFields(doc *entity.Document) []zap.Field {
	fields := []zap.Field{
		zap.String("title", doc.Title),
		zap.String("web_link", doc.WebLink),
	}
	if doc.PublicationDate != nil {
		fields = append(fields, zap.Time("publication_date", *doc.PublicationDate))
	}
	return fields
}
