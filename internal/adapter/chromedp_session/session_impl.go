package chromedp_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/news-harvester/internal/adapter/dom"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/pkg/proxy"
	"go.uber.org/zap"
)

// Options configures the browser and every tab opened from it.
type Options struct {
	Headless        bool
	PageLoadTimeout time.Duration
	SettleDelay     time.Duration
	AcceptLanguage  string
}

// Browser owns one headless Chrome process.
type Browser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	opts          Options
	logger        *zap.Logger
}

// NewBrowser starts Chrome, picking a user agent and proxy from pm.
func NewBrowser(opts Options, pm *proxy.Manager, logger *zap.Logger) (*Browser, error) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if ua := pm.GetUserAgent(); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}
	if p := pm.GetProxy(); p != "" {
		execOpts = append(execOpts, chromedp.ProxyServer(p))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// Run with no actions launches the browser and its first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Browser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		opts:          opts,
		logger:        logger,
	}, nil
}

// Session returns a session bound to the browser's first tab. Closing it is a no-op;
// close the Browser instead.
func (b *Browser) Session() *Session {
	return &Session{browser: b, tabCtx: b.browserCtx}
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}

// Session implements repository.FetchSession on one browser tab.
type Session struct {
	browser  *Browser
	tabCtx   context.Context
	cancel   context.CancelFunc // nil for the first tab
	snapshot *dom.Snapshot
	location string
}

// Navigate loads url, waits for the body and the settle delay, and snapshots the rendered DOM.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, s.browser.opts.PageLoadTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{network.Enable()}
	if lang := s.browser.opts.AcceptLanguage; lang != "" {
		actions = append(actions, network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": lang}))
	}

	var htmlContent, location string
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.browser.opts.SettleDelay),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		// A failed load skips the Sleep action, so keep the pace here.
		s.pause(ctx)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s: %w", repository.ErrCrawlTimeout, url, err)
		}
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}

	snap, err := dom.Parse(htmlContent)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	s.snapshot = snap
	s.location = location
	return nil
}

func (s *Session) pause(ctx context.Context) {
	if s.browser.opts.SettleDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.browser.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
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

// OpenIsolated opens a new tab in the same browser.
func (s *Session) OpenIsolated(ctx context.Context) (repository.FetchSession, error) {
	tabCtx, cancel := chromedp.NewContext(s.browser.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	return &Session{browser: s.browser, tabCtx: tabCtx, cancel: cancel}, nil
}

// Close closes the tab.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
