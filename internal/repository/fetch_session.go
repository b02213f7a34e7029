package repository

import (
	"context"
	"time"
)

// Element is a handle to a node of the page loaded by a FetchSession.
type Element interface {
	// Text returns the node's rendered text with surrounding whitespace trimmed.
	Text() string
	// Attr returns the named attribute and whether it is present.
	Attr(name string) (string, bool)
	// InnerHTML returns the node's inner markup.
	InnerHTML() (string, error)
	// NextSibling returns the first following sibling matching selector.
	NextSibling(selector string) (Element, bool)
	// FindAll returns the descendants matching selector in document order.
	FindAll(selector string) []Element
}

// FetchSession defines the contract for the page-fetching engine the harvester drives.
// Queries read the page as it was after the last successful Navigate.
type FetchSession interface {
	// Navigate loads url. Failures wrap ErrNavigationFailed or ErrCrawlTimeout.
	Navigate(ctx context.Context, url string) error
	// CurrentURL returns the location of the loaded page after redirects.
	CurrentURL() string
	// FindAll returns every element matching selector in document order.
	FindAll(selector string) ([]Element, error)
	// FindOne returns the first element matching selector or ErrElementNotFound.
	FindOne(selector string) (Element, error)
	// OpenIsolated opens a separate browsing context that shares the session's engine.
	// The caller must Close it.
	OpenIsolated(ctx context.Context) (FetchSession, error)
	// Close releases the context.
	Close() error
}

// DateParser turns human-readable date text into an absolute timestamp.
type DateParser interface {
	// ParseApproximate returns false when text cannot be interpreted.
	ParseApproximate(text string) (time.Time, bool)
}
