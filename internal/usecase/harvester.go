package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/internal/source"
	"github.com/user/news-harvester/pkg/metrics"
	"go.uber.org/zap"
)

// Options bounds a harvest run. At least one of Window, MaxCount and
// LastKnown must be set.
type Options struct {
	// Window is how far back from StartDate listing dates are walked.
	// Nil means unbounded by date.
	Window *time.Duration
	// MaxCount caps the number of documents, inclusive. Zero means no cap.
	MaxCount int
	// LastKnown is the newest document of a previous run.
	LastKnown *entity.Document
	// StartDate defaults to today.
	StartDate time.Time
	// RunID tags skipped items.
	RunID string
}

// WindowOf is a convenience for setting Options.Window.
func WindowOf(d time.Duration) *time.Duration {
	return &d
}

// Validate rejects options under which a run could never terminate.
func (o Options) Validate() error {
	if o.Window == nil && o.MaxCount <= 0 && o.LastKnown == nil {
		return repository.ErrNoBound
	}
	if o.Window != nil && *o.Window < 0 {
		return fmt.Errorf("window must not be negative, got %s", *o.Window)
	}
	if o.MaxCount < 0 {
		return fmt.Errorf("max count must not be negative, got %d", o.MaxCount)
	}
	return nil
}

// HarvestResult is what one run produced. Documents are newest first.
type HarvestResult struct {
	Documents []*entity.Document
	Skipped   []entity.SkippedItem
	Outcome   entity.Outcome
}

// DefaultMaxBarrenDates is how many consecutive dates may pass without a
// single assembled document before a run gives up.
const DefaultMaxBarrenDates = 14

// HarvesterOption customizes a Harvester.
type HarvesterOption func(*Harvester)

// WithClock replaces the wall clock used to pick "today".
func WithClock(now func() time.Time) HarvesterOption {
	return func(h *Harvester) { h.now = now }
}

// WithMaxBarrenDates sets how many consecutive dates may yield no document
// before Content fails with ErrNoListings. Values below one keep the default.
func WithMaxBarrenDates(n int) HarvesterOption {
	return func(h *Harvester) {
		if n > 0 {
			h.maxBarren = n
		}
	}
}

// Harvester walks a source's date listings backwards in time.
type Harvester struct {
	session   repository.FetchSession
	source    source.Definition
	assembler *Assembler
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
	maxBarren int
}

// NewHarvester creates a harvester driving session over src.
func NewHarvester(
	session repository.FetchSession,
	src source.Definition,
	dates repository.DateParser,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...HarvesterOption,
) *Harvester {
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	logger = logger.With(zap.String("source", src.Name))
	h := &Harvester{
		session:   session,
		source:    src,
		assembler: NewAssembler(src.Layout, dates, logger),
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		maxBarren: DefaultMaxBarrenDates,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// crawlState is owned by one call to Content.
type crawlState struct {
	runID     string
	policy    StopPolicy
	documents []*entity.Document
	skipped   []entity.SkippedItem
}

func (st *crawlState) result(outcome entity.Outcome) *HarvestResult {
	return &HarvestResult{Documents: st.documents, Skipped: st.skipped, Outcome: outcome}
}

// Content runs one harvest. A configuration error is returned before any
// page is loaded, with a nil result. Any other error ends the run early but
// the result still carries every document assembled up to that point.
// A run whose listings stay failed or empty for maxBarren consecutive dates
// ends with ErrNoListings.
func (h *Harvester) Content(ctx context.Context, opts Options) (*HarvestResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := opts.StartDate
	if start.IsZero() {
		start = h.now()
	}
	current := midnight(start)

	st := &crawlState{
		runID:  opts.RunID,
		policy: StopPolicy{MaxCount: opts.MaxCount, LastKnown: opts.LastKnown},
	}

	var windowEnd time.Time
	if opts.Window != nil {
		windowEnd = current.Add(-*opts.Window)
		h.logger.Info("harvest started",
			zap.String("start_date", current.Format(time.DateOnly)),
			zap.String("end_date", windowEnd.Format(time.DateOnly)),
			zap.Int("max_count", opts.MaxCount))
	} else {
		h.logger.Info("harvest started",
			zap.String("start_date", current.Format(time.DateOnly)),
			zap.Int("max_count", opts.MaxCount),
			zap.Bool("has_last_known", opts.LastKnown != nil))
	}

	barren := 0
	for {
		before := len(st.documents)
		decision, err := h.harvestDate(ctx, current, st)
		if err != nil {
			return h.abort(st, err)
		}
		if decision != Continue {
			h.logger.Info("harvest stopped",
				zap.String("outcome", string(decision.Outcome())),
				zap.String("date", current.Format(time.DateOnly)),
				zap.Int("documents", len(st.documents)))
			return st.result(decision.Outcome()), nil
		}

		if len(st.documents) > before {
			barren = 0
		} else {
			barren++
		}
		last := current

		current = current.AddDate(0, 0, -1)
		h.logger.Debug("moving to previous date", zap.String("date", current.Format(time.DateOnly)))

		if opts.Window != nil && current.Before(windowEnd) {
			h.logger.Info("harvest stopped",
				zap.String("outcome", string(entity.OutcomeExhaustedWindow)),
				zap.Int("documents", len(st.documents)))
			return st.result(entity.OutcomeExhaustedWindow), nil
		}
		if barren >= h.maxBarren {
			return h.abort(st, fmt.Errorf("%w: %d dates down to %s",
				repository.ErrNoListings, barren, last.Format(time.DateOnly)))
		}
	}
}

func (h *Harvester) abort(st *crawlState, err error) (*HarvestResult, error) {
	outcome := entity.OutcomeFatal
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		outcome = entity.OutcomeCancelled
	}
	h.logger.Error("harvest aborted",
		zap.String("outcome", string(outcome)),
		zap.Int("documents", len(st.documents)),
		zap.Error(err))
	return st.result(outcome), err
}

// harvestDate processes the full paginated listing of one date.
func (h *Harvester) harvestDate(ctx context.Context, date time.Time, st *crawlState) (Decision, error) {
	listingURL := h.source.ListingURL(date)
	h.logger.Info("loading listing", zap.String("url", listingURL))

	if err := h.navigate(ctx, h.session, listingURL, "listing"); err != nil {
		if !repository.IsNavigation(err) {
			return Continue, err
		}
		h.skip(st, listingURL, entity.SkipListingNavigation, err)
		return Continue, nil
	}
	return h.traversePages(ctx, st)
}

// navigate loads url and tells a cancelled run apart from a page that failed.
func (h *Harvester) navigate(ctx context.Context, page repository.FetchSession, url, kind string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	started := time.Now()
	err := page.Navigate(ctx, url)
	h.metrics.NavigationDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (h *Harvester) skip(st *crawlState, url, reason string, err error) {
	st.skipped = append(st.skipped, entity.SkippedItem{
		RunID:     st.runID,
		URL:       url,
		Reason:    reason,
		Detail:    err.Error(),
		SkippedAt: h.now(),
	})
	h.metrics.ItemsSkipped.WithLabelValues(h.source.Name, reason).Inc()
	h.logger.Warn("skipped", zap.String("reason", reason), zap.String("url", url), zap.Error(err))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
