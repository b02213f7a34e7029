package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/internal/testutil/fakesession"
	"github.com/user/news-harvester/pkg/metrics"
	"go.uber.org/zap/zaptest"
)

type stubHarvester struct {
	result *HarvestResult
	err    error
	opts   []Options
}

func (s *stubHarvester) Content(_ context.Context, opts Options) (*HarvestResult, error) {
	s.opts = append(s.opts, opts)
	return s.result, s.err
}

type workerFixture struct {
	queue       *memQueue
	runs        *memRuns
	docs        *memDocs
	skipped     *memSkipped
	checkpoints *memCheckpoints
	metrics     *metrics.Metrics
}

func newWorkerFixture() *workerFixture {
	return &workerFixture{
		queue:       &memQueue{},
		runs:        newMemRuns(),
		docs:        newMemDocs(),
		skipped:     &memSkipped{},
		checkpoints: newMemCheckpoints(),
		metrics:     metrics.New(prometheus.NewRegistry()),
	}
}

func (f *workerFixture) worker(t *testing.T, h ContentHarvester) RunWorker {
	return NewRunWorker("finextra", h, f.queue, f.runs, f.docs, f.skipped, f.checkpoints, f.metrics, zaptest.NewLogger(t))
}

func (f *workerFixture) submit(t *testing.T, req entity.RunRequest) string {
	manager := NewRunManager("finextra", f.queue, f.runs, f.metrics, zaptest.NewLogger(t))
	id, err := manager.Submit(context.Background(), req)
	require.NoError(t, err)
	return id
}

func testDoc(title string) *entity.Document {
	link := "https://www.finextra.com/newsarticle/" + title
	return &entity.Document{Title: title, WebLink: link, ContentHash: entity.ComputeContentHash(title, link)}
}

func TestRunWorker_EmptyQueue(t *testing.T) {
	f := newWorkerFixture()
	h := &stubHarvester{}

	processed, err := f.worker(t, h).ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Empty(t, h.opts)
}

func TestRunWorker_PersistsCompletedRun(t *testing.T) {
	f := newWorkerFixture()
	previous := testDoc("previous")
	require.NoError(t, f.checkpoints.SaveLastKnown(context.Background(), "finextra", previous))

	skip := entity.SkippedItem{URL: "https://www.finextra.com/broken", Reason: entity.SkipArticleExtraction}
	h := &stubHarvester{result: &HarvestResult{
		Documents: []*entity.Document{testDoc("newest"), testDoc("older")},
		Skipped:   []entity.SkippedItem{skip},
		Outcome:   entity.OutcomeStopDuplicate,
	}}
	runID := f.submit(t, entity.RunRequest{IntervalHours: 48, MaxCount: 5, Incremental: true})

	processed, err := f.worker(t, h).ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, h.opts, 1)
	opts := h.opts[0]
	require.NotNil(t, opts.Window)
	assert.Equal(t, 48*time.Hour, *opts.Window)
	assert.Equal(t, 5, opts.MaxCount)
	assert.Equal(t, runID, opts.RunID)
	assert.True(t, opts.LastKnown.SameContent(previous))

	assert.Equal(t, []string{testDoc("newest").WebLink, testDoc("older").WebLink}, f.docs.links())
	assert.Len(t, f.skipped.items, 1)

	checkpoint, err := f.checkpoints.LastKnown(context.Background(), "finextra")
	require.NoError(t, err)
	assert.Equal(t, "newest", checkpoint.Title)

	run, err := f.runs.FindByID(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.Equal(t, entity.OutcomeStopDuplicate, run.Outcome)
	assert.Equal(t, 2, run.DocumentCount)
	assert.Equal(t, 1, run.SkippedCount)
	assert.NotNil(t, run.StartedAt)
	assert.NotNil(t, run.FinishedAt)
	assert.Empty(t, run.FailureReason)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues("finextra", string(entity.OutcomeStopDuplicate))))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.RunsInQueue))
}

func TestRunWorker_FatalRunKeepsPartialResultsButNotCheckpoint(t *testing.T) {
	f := newWorkerFixture()
	h := &stubHarvester{
		result: &HarvestResult{Documents: []*entity.Document{testDoc("partial")}, Outcome: entity.OutcomeFatal},
		err:    errors.New("browser crashed"),
	}
	runID := f.submit(t, entity.RunRequest{IntervalHours: 24})

	processed, err := f.worker(t, h).ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Equal(t, []string{testDoc("partial").WebLink}, f.docs.links())
	_, err = f.checkpoints.LastKnown(context.Background(), "finextra")
	assert.Error(t, err, "a failed run must not move the checkpoint")

	run, err := f.runs.FindByID(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusFailed, run.Status)
	assert.Equal(t, entity.OutcomeFatal, run.Outcome)
	assert.Equal(t, 1, run.DocumentCount)
	assert.Contains(t, run.FailureReason, "browser crashed")
}

func TestRunWorker_ConfigurationErrorFailsRun(t *testing.T) {
	f := newWorkerFixture()
	badOptions := fmt.Errorf("bad options")
	h := &stubHarvester{err: badOptions}
	runID := f.submit(t, entity.RunRequest{MaxCount: 3})

	processed, err := f.worker(t, h).ProcessNext(context.Background())
	assert.True(t, processed)
	assert.ErrorIs(t, err, badOptions)

	run, err := f.runs.FindByID(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusFailed, run.Status)
	assert.Equal(t, entity.OutcomeFatal, run.Outcome)
	assert.Empty(t, f.docs.links())
}

// TestRunWorker_ExecuteReturnsMissingBound reports why an incremental run
// without a checkpoint or any other bound never started.
func TestRunWorker_ExecuteReturnsMissingBound(t *testing.T) {
	site := fakesession.NewSite()
	f := newWorkerFixture()
	h, _ := newTestHarvester(t, site)

	result, err := f.worker(t, h).Execute(context.Background(), entity.RunRequest{RunID: "cli-1", Incremental: true})
	assert.ErrorIs(t, err, repository.ErrNoBound)
	assert.Nil(t, result)
	assert.Empty(t, site.Visits())

	run, err := f.runs.FindByID(context.Background(), "cli-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusFailed, run.Status)
	assert.Equal(t, repository.ErrNoBound.Error(), run.FailureReason)
}

func TestRunWorker_PersistenceFailureFailsRun(t *testing.T) {
	f := newWorkerFixture()
	f.docs.err = errors.New("disk full")
	h := &stubHarvester{result: &HarvestResult{Documents: []*entity.Document{testDoc("a")}, Outcome: entity.OutcomeExhaustedWindow}}
	runID := f.submit(t, entity.RunRequest{IntervalHours: 24})

	_, err := f.worker(t, h).ProcessNext(context.Background())
	require.NoError(t, err)

	run, err := f.runs.FindByID(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusFailed, run.Status)
	assert.Contains(t, run.FailureReason, "disk full")
	_, err = f.checkpoints.LastKnown(context.Background(), "finextra")
	assert.Error(t, err)
}

func TestRunWorker_CreatesRecordForUnmanagedRequest(t *testing.T) {
	f := newWorkerFixture()
	require.NoError(t, f.queue.Push(context.Background(), entity.RunRequest{RunID: "scheduled-1", IntervalHours: 24}))
	h := &stubHarvester{result: &HarvestResult{Outcome: entity.OutcomeExhaustedWindow}}

	processed, err := f.worker(t, h).ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	run, err := f.runs.FindByID(context.Background(), "scheduled-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.Equal(t, entity.OutcomeExhaustedWindow, run.Outcome)
}

func TestRunWorker_ExecuteAssignsRunID(t *testing.T) {
	f := newWorkerFixture()
	h := &stubHarvester{result: &HarvestResult{
		Documents: []*entity.Document{testDoc("direct")},
		Outcome:   entity.OutcomeStopMaxCount,
	}}

	result, err := f.worker(t, h).Execute(context.Background(), entity.RunRequest{MaxCount: 1})
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	require.Len(t, h.opts, 1)
	runID := h.opts[0].RunID
	require.NotEmpty(t, runID)
	run, err := f.runs.FindByID(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.Equal(t, entity.OutcomeStopMaxCount, run.Outcome)
}

func TestRunWorker_QueueError(t *testing.T) {
	f := newWorkerFixture()
	f.queue.err = errors.New("redis down")

	processed, err := f.worker(t, &stubHarvester{}).ProcessNext(context.Background())
	assert.False(t, processed)
	assert.Error(t, err)
}

// TestRunWorker_IncrementalRunsStopAtCheckpoint drives two runs through the
// real harvester: the second one only picks up the article published since.
func TestRunWorker_IncrementalRunsStopAtCheckpoint(t *testing.T) {
	site := fakesession.NewSite()
	site.Add(listingURL(18), listingHTML("", 1, 2))
	site.Add(listingURL(17), listingHTML(""))
	site.Add(articleURL(1), bareArticleHTML("Story 1"))
	site.Add(articleURL(2), bareArticleHTML("Story 2"))

	f := newWorkerFixture()
	h, _ := newTestHarvester(t, site)
	worker := f.worker(t, h)
	ctx := context.Background()

	first := f.submit(t, entity.RunRequest{IntervalHours: 24})
	_, err := worker.ProcessNext(ctx)
	require.NoError(t, err)
	run, err := f.runs.FindByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeExhaustedWindow, run.Outcome)
	assert.Equal(t, 2, run.DocumentCount)

	site.Add(listingURL(18), listingHTML("", 0, 1, 2))
	site.Add(articleURL(0), bareArticleHTML("Story 0"))

	second := f.submit(t, entity.RunRequest{IntervalHours: 24, Incremental: true})
	_, err = worker.ProcessNext(ctx)
	require.NoError(t, err)
	run, err = f.runs.FindByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.Equal(t, entity.OutcomeStopDuplicate, run.Outcome)
	assert.Equal(t, 1, run.DocumentCount)

	checkpoint, err := f.checkpoints.LastKnown(ctx, "finextra")
	require.NoError(t, err)
	assert.Equal(t, "Story 0", checkpoint.Title)
	assert.Equal(t, []string{articleURL(1), articleURL(2), articleURL(0)}, f.docs.links())
}

func TestRunWorker_RunStopsOnCancel(t *testing.T) {
	f := newWorkerFixture()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.worker(t, &stubHarvester{}).Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
