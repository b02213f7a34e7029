package entity

import "time"

// Skip reasons. Each one is logged and counted separately so that running
// out of new content can be told apart from a broken source layout.
const (
	SkipListingNavigation = "listing_navigation"
	SkipArticleNavigation = "article_navigation"
	SkipArticleExtraction = "article_extraction"
	SkipMissingLink       = "missing_link"
)

// SkippedItem mirrors the `skipped_items` PostgreSQL table schema.
type SkippedItem struct {
	ID        int64
	RunID     string
	URL       string
	Reason    string
	Detail    string
	SkippedAt time.Time
}
