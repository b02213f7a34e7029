// Package fakesession serves canned HTML pages through repository.FetchSession.
package fakesession

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/news-harvester/internal/adapter/dom"
	"github.com/user/news-harvester/internal/repository"
)

// Site is a set of pages keyed by absolute URL.
type Site struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]error
	visits   []string
	opened   int
	closed   int
	openErr  error
}

func NewSite() *Site {
	return &Site{
		pages:    make(map[string]string),
		failures: make(map[string]error),
	}
}

// Add serves html at url.
func (s *Site) Add(url, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
}

// Fail makes Navigate(url) return err.
func (s *Site) Fail(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[url] = err
}

// FailOpen makes OpenIsolated return err.
func (s *Site) FailOpen(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// Visits returns every URL passed to Navigate, in order.
func (s *Site) Visits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visits...)
}

// Contexts returns how many isolated contexts were opened and closed.
func (s *Site) Contexts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// Session returns the top-level session of the site.
func (s *Site) Session() *Session {
	return &Session{site: s}
}

// Session implements repository.FetchSession.
type Session struct {
	site     *Site
	snapshot *dom.Snapshot
	location string
	isolated bool
	closed   bool
}

func (f *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	f.site.mu.Lock()
	f.site.visits = append(f.site.visits, url)
	failure := f.site.failures[url]
	html, ok := f.site.pages[url]
	f.site.mu.Unlock()

	if failure != nil {
		return failure
	}
	if !ok {
		return fmt.Errorf("%w: %s: status 404", repository.ErrNavigationFailed, url)
	}
	snap, err := dom.Parse(html)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	f.snapshot = snap
	f.location = url
	return nil
}

func (f *Session) CurrentURL() string {
	return f.location
}

func (f *Session) FindAll(selector string) ([]repository.Element, error) {
	return f.snapshot.FindAll(selector)
}

func (f *Session) FindOne(selector string) (repository.Element, error) {
	return f.snapshot.FindOne(selector)
}

func (f *Session) OpenIsolated(ctx context.Context) (repository.FetchSession, error) {
	f.site.mu.Lock()
	defer f.site.mu.Unlock()
	if f.site.openErr != nil {
		return nil, f.site.openErr
	}
	f.site.opened++
	return &Session{site: f.site, isolated: true}, nil
}

func (f *Session) Close() error {
	if !f.isolated || f.closed {
		return nil
	}
	f.closed = true
	f.site.mu.Lock()
	defer f.site.mu.Unlock()
	f.site.closed++
	return nil
}
