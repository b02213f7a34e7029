package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/pkg/metrics"
	"go.uber.org/zap"
)

// ContentHarvester runs one harvest. *Harvester implements it.
type ContentHarvester interface {
	Content(ctx context.Context, opts Options) (*HarvestResult, error)
}

// RunWorker defines the interface for consuming queued harvest runs.
type RunWorker interface {
	// ProcessNext handles one queued run. It reports false when the queue was empty.
	ProcessNext(ctx context.Context) (bool, error)
	// Execute harvests, persists and records one run without going through the queue.
	// A harvest that fails part way is recorded on the run, not returned. A run
	// that never starts harvesting returns its cause alongside a nil result.
	Execute(ctx context.Context, req entity.RunRequest) (*HarvestResult, error)
	// Run processes runs until ctx is done, polling an empty queue every poll.
	Run(ctx context.Context, poll time.Duration)
}

type runWorkerUseCase struct {
	source         string
	harvester      ContentHarvester
	queueRepo      repository.RunQueueRepository
	runRepo        repository.RunRepository
	documentRepo   repository.DocumentRepository
	skippedRepo    repository.SkippedItemRepository
	checkpointRepo repository.CheckpointRepository
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewRunWorker creates a new RunWorker use case for the named source.
func NewRunWorker(
	source string,
	harvester ContentHarvester,
	queueRepo repository.RunQueueRepository,
	runRepo repository.RunRepository,
	documentRepo repository.DocumentRepository,
	skippedRepo repository.SkippedItemRepository,
	checkpointRepo repository.CheckpointRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) RunWorker {
	return &runWorkerUseCase{
		source:         source,
		harvester:      harvester,
		queueRepo:      queueRepo,
		runRepo:        runRepo,
		documentRepo:   documentRepo,
		skippedRepo:    skippedRepo,
		checkpointRepo: checkpointRepo,
		metrics:        m,
		logger:         logger.With(zap.String("source", source)),
		now:            time.Now,
	}
}

func (uc *runWorkerUseCase) Run(ctx context.Context, poll time.Duration) {
	uc.logger.Info("run worker started", zap.Duration("poll", poll))
	for ctx.Err() == nil {
		processed, err := uc.ProcessNext(ctx)
		if err != nil {
			uc.logger.Error("failed to process run", zap.Error(err))
		}
		if processed && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			uc.logger.Info("run worker stopped")
			return
		case <-time.After(poll):
		}
	}
	uc.logger.Info("run worker stopped")
}

func (uc *runWorkerUseCase) ProcessNext(ctx context.Context) (bool, error) {
	req, err := uc.queueRepo.Pop(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Queue is empty, which is a normal state.
			return false, nil
		}
		return false, fmt.Errorf("failed to pop run from queue: %w", err)
	}
	uc.refreshQueueGauge(ctx)

	_, err = uc.Execute(ctx, *req)
	return true, err
}

func (uc *runWorkerUseCase) Execute(ctx context.Context, req entity.RunRequest) (*HarvestResult, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	run, err := uc.startRun(ctx, &req)
	if err != nil {
		return nil, err
	}
	log := uc.logger.With(zap.String("run_id", run.ID))
	log.Info("processing run")

	opts, err := uc.options(ctx, &req)
	if err != nil {
		return nil, uc.refuse(ctx, run, err)
	}

	started := uc.now()
	result, harvestErr := uc.harvester.Content(ctx, opts)
	uc.metrics.RunDuration.WithLabelValues(uc.source).Observe(uc.now().Sub(started).Seconds())

	if result == nil {
		return nil, uc.refuse(ctx, run, harvestErr)
	}

	// Persistence outlives a cancelled harvest so partial results are kept.
	persistCtx := context.WithoutCancel(ctx)
	if err := uc.persist(persistCtx, result, log); err != nil {
		return result, uc.finish(persistCtx, run, result, err)
	}
	if harvestErr == nil && len(result.Documents) > 0 {
		if err := uc.checkpointRepo.SaveLastKnown(persistCtx, uc.source, result.Documents[0]); err != nil {
			return result, uc.finish(persistCtx, run, result, fmt.Errorf("failed to update checkpoint: %w", err))
		}
	}
	return result, uc.finish(persistCtx, run, result, harvestErr)
}

// refuse records a run that failed before harvesting and returns the cause.
func (uc *runWorkerUseCase) refuse(ctx context.Context, run *entity.HarvestRun, cause error) error {
	if err := uc.finish(ctx, run, nil, cause); err != nil {
		return err
	}
	return cause
}

// startRun marks the run as running, creating its record if it was queued
// without going through the manager.
func (uc *runWorkerUseCase) startRun(ctx context.Context, req *entity.RunRequest) (*entity.HarvestRun, error) {
	now := uc.now().UTC()
	run, err := uc.runRepo.FindByID(ctx, req.RunID)
	if errors.Is(err, repository.ErrNotFound) {
		run = &entity.HarvestRun{
			ID:            req.RunID,
			Source:        uc.source,
			Status:        entity.RunStatusPending,
			IntervalHours: req.IntervalHours,
			MaxCount:      req.MaxCount,
			Incremental:   req.Incremental,
			SubmittedAt:   now,
		}
		if err := uc.runRepo.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to create run record %s: %w", req.RunID, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", req.RunID, err)
	}

	run.Status = entity.RunStatusRunning
	run.StartedAt = &now
	if err := uc.runRepo.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to mark run %s running: %w", run.ID, err)
	}
	return run, nil
}

// options turns a queued request into harvester options.
func (uc *runWorkerUseCase) options(ctx context.Context, req *entity.RunRequest) (Options, error) {
	opts := Options{MaxCount: req.MaxCount, RunID: req.RunID}
	if req.IntervalHours > 0 {
		opts.Window = WindowOf(time.Duration(req.IntervalHours) * time.Hour)
	}
	if req.Incremental {
		last, err := uc.checkpointRepo.LastKnown(ctx, uc.source)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			uc.logger.Info("no checkpoint yet, harvesting without last known document", zap.String("run_id", req.RunID))
		case err != nil:
			return opts, fmt.Errorf("failed to load checkpoint: %w", err)
		default:
			opts.LastKnown = last
		}
	}
	return opts, nil
}

func (uc *runWorkerUseCase) persist(ctx context.Context, result *HarvestResult, log *zap.Logger) error {
	for _, doc := range result.Documents {
		if _, err := uc.documentRepo.Save(ctx, uc.source, doc); err != nil {
			return fmt.Errorf("failed to save document %s: %w", doc.WebLink, err)
		}
	}
	if err := uc.skippedRepo.SaveAll(ctx, result.Skipped); err != nil {
		return fmt.Errorf("failed to save skipped items: %w", err)
	}
	log.Info("run results saved",
		zap.Int("documents", len(result.Documents)),
		zap.Int("skipped", len(result.Skipped)))
	return nil
}

// finish writes the terminal state of a run. runErr is recorded, not returned,
// unless the record itself cannot be written.
func (uc *runWorkerUseCase) finish(ctx context.Context, run *entity.HarvestRun, result *HarvestResult, runErr error) error {
	finished := uc.now().UTC()
	run.FinishedAt = &finished
	run.Status = entity.RunStatusCompleted
	if result != nil {
		run.Outcome = result.Outcome
		run.DocumentCount = len(result.Documents)
		run.SkippedCount = len(result.Skipped)
	}
	if runErr != nil {
		run.Status = entity.RunStatusFailed
		run.FailureReason = runErr.Error()
		if run.Outcome != entity.OutcomeCancelled {
			run.Outcome = entity.OutcomeFatal
		}
		uc.logger.Error("run failed", zap.String("run_id", run.ID), zap.String("outcome", string(run.Outcome)), zap.Error(runErr))
	} else {
		uc.logger.Info("run completed",
			zap.String("run_id", run.ID),
			zap.String("outcome", string(run.Outcome)),
			zap.Int("documents", run.DocumentCount))
	}
	uc.metrics.RunsTotal.WithLabelValues(uc.source, string(run.Outcome)).Inc()

	if err := uc.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("failed to finalize run %s: %w", run.ID, err)
	}
	return nil
}

func (uc *runWorkerUseCase) refreshQueueGauge(ctx context.Context) {
	size, err := uc.queueRepo.Size(ctx)
	if err != nil {
		uc.logger.Warn("failed to read queue size", zap.Error(err))
		return
	}
	uc.metrics.RunsInQueue.Set(float64(size))
}
