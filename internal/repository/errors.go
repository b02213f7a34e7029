package repository

import "errors"

var (
	// ErrNavigationFailed is returned when a page could not be loaded.
	ErrNavigationFailed = errors.New("navigation failed")
	// ErrCrawlTimeout is returned when a page did not load in time.
	ErrCrawlTimeout = errors.New("page load timed out")
	// ErrElementNotFound is returned by FindOne when nothing matches the selector.
	ErrElementNotFound = errors.New("element not found")
	// ErrExtractionFailed is returned when an article page lacks a required field.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrNoBound is returned when a harvest is configured without any stopping bound.
	ErrNoBound = errors.New("no window, max count or last known document configured")
	// ErrNoListings is returned when too many consecutive listing dates yield
	// no document.
	ErrNoListings = errors.New("consecutive listing dates without documents")
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
)

// IsNavigation reports whether err is a page-load failure of any kind.
func IsNavigation(err error) bool {
	return errors.Is(err, ErrNavigationFailed) || errors.Is(err, ErrCrawlTimeout)
}
