package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/pkg/metrics"
	"go.uber.org/zap"
)

// RunManager defines the interface for submitting harvest runs and checking on them.
type RunManager interface {
	Submit(ctx context.Context, req entity.RunRequest) (string, error)
	Status(ctx context.Context, runID string) (*entity.HarvestRun, error)
}

type runManagerUseCase struct {
	source    string
	queueRepo repository.RunQueueRepository
	runRepo   repository.RunRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewRunManager creates a new RunManager use case for the named source.
func NewRunManager(
	source string,
	queueRepo repository.RunQueueRepository,
	runRepo repository.RunRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) RunManager {
	return &runManagerUseCase{
		source:    source,
		queueRepo: queueRepo,
		runRepo:   runRepo,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// ValidateRequest rejects requests that would give the harvester nothing to stop on.
// Incremental requests need an interval or a cap too: the checkpoint may be
// missing, or may never be found again.
func ValidateRequest(req entity.RunRequest) error {
	if req.IntervalHours < 0 {
		return fmt.Errorf("interval_hours must not be negative, got %d", req.IntervalHours)
	}
	if req.MaxCount < 0 {
		return fmt.Errorf("max_count must not be negative, got %d", req.MaxCount)
	}
	if req.IntervalHours == 0 && req.MaxCount == 0 {
		return repository.ErrNoBound
	}
	return nil
}

func (uc *runManagerUseCase) Submit(ctx context.Context, req entity.RunRequest) (string, error) {
	if err := ValidateRequest(req); err != nil {
		return "", err
	}

	req.RunID = uuid.NewString()
	run := &entity.HarvestRun{
		ID:            req.RunID,
		Source:        uc.source,
		Status:        entity.RunStatusPending,
		IntervalHours: req.IntervalHours,
		MaxCount:      req.MaxCount,
		Incremental:   req.Incremental,
		SubmittedAt:   uc.now().UTC(),
	}
	if err := uc.runRepo.Create(ctx, run); err != nil {
		return "", fmt.Errorf("failed to create run record: %w", err)
	}

	if err := uc.queueRepo.Push(ctx, req); err != nil {
		return "", fmt.Errorf("failed to queue run %s: %w", req.RunID, err)
	}

	if size, err := uc.queueRepo.Size(ctx); err == nil {
		uc.metrics.RunsInQueue.Set(float64(size))
	} else {
		uc.logger.Warn("failed to read queue size", zap.Error(err))
	}

	uc.logger.Info("run submitted",
		zap.String("run_id", req.RunID),
		zap.Int("interval_hours", req.IntervalHours),
		zap.Int("max_count", req.MaxCount),
		zap.Bool("incremental", req.Incremental))
	return req.RunID, nil
}

func (uc *runManagerUseCase) Status(ctx context.Context, runID string) (*entity.HarvestRun, error) {
	return uc.runRepo.FindByID(ctx, runID)
}
