package http_session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/user/news-harvester/internal/adapter/dom"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/pkg/proxy"
)

// Options configures the static fetcher.
type Options struct {
	PageLoadTimeout time.Duration
	SettleDelay     time.Duration
	AcceptLanguage  string
}

// Session implements repository.FetchSession with plain HTTP requests.
// Pages are not rendered, so it only suits sources that need no scripts.
type Session struct {
	client    *http.Client
	opts      Options
	userAgent string
	snapshot  *dom.Snapshot
	location  string
}

// New creates a session. Requests go through the next proxy of pm, if any.
func New(opts Options, pm *proxy.Manager) *Session {
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if p := pm.GetProxy(); p != "" {
		if proxyURL, err := url.Parse(p); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &Session{
		client:    &http.Client{Transport: transport},
		opts:      opts,
		userAgent: pm.GetUserAgent(),
	}
}

// Navigate fetches pageURL and parses the response body. The settle delay
// follows every request, failed or not.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	if err := s.fetch(ctx, pageURL); err != nil {
		_ = s.settle(ctx)
		return err
	}
	return s.settle(ctx)
}

func (s *Session) fetch(ctx context.Context, pageURL string) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.PageLoadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, pageURL, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if s.opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", s.opts.AcceptLanguage)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: %s: %w", repository.ErrCrawlTimeout, pageURL, err)
		}
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: HTTP %d", repository.ErrNavigationFailed, pageURL, resp.StatusCode)
	}

	snap, err := dom.ParseReader(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, pageURL, err)
	}
	s.snapshot = snap
	s.location = resp.Request.URL.String()
	return nil
}

// settle waits the fixed inter-request delay.
func (s *Session) settle(ctx context.Context) error {
	if s.opts.SettleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", repository.ErrNavigationFailed, ctx.Err())
	}
}

func (s *Session) CurrentURL() string {
	return s.location
}

func (s *Session) FindAll(selector string) ([]repository.Element, error) {
	return s.snapshot.FindAll(selector)
}

func (s *Session) FindOne(selector string) (repository.Element, error) {
	return s.snapshot.FindOne(selector)
}

// OpenIsolated returns a session sharing the client but not the loaded page.
func (s *Session) OpenIsolated(ctx context.Context) (repository.FetchSession, error) {
	return &Session{client: s.client, opts: s.opts, userAgent: s.userAgent}, nil
}

func (s *Session) Close() error {
	return nil
}
