package repository

import (
	"context"

	"github.com/user/news-harvester/internal/entity"
)

// RunQueueRepository defines the interface for a FIFO queue of harvest requests.
type RunQueueRepository interface {
	// Push adds a request to the end of the queue.
	Push(ctx context.Context, req entity.RunRequest) error
	// Pop removes and returns the request at the front of the queue.
	// It returns ErrNotFound when the queue is empty.
	Pop(ctx context.Context) (*entity.RunRequest, error)
	// Size returns the current number of items in the queue.
	Size(ctx context.Context) (int64, error)
}

// RunRepository defines the interface for harvest run bookkeeping.
type RunRepository interface {
	Create(ctx context.Context, run *entity.HarvestRun) error
	Update(ctx context.Context, run *entity.HarvestRun) error
	// FindByID returns ErrNotFound for unknown ids.
	FindByID(ctx context.Context, id string) (*entity.HarvestRun, error)
}

// SkippedItemRepository defines the interface for recording items a run had to skip.
type SkippedItemRepository interface {
	SaveAll(ctx context.Context, items []entity.SkippedItem) error
	FindByRun(ctx context.Context, runID string) ([]entity.SkippedItem, error)
}
