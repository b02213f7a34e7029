package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
	"github.com/user/news-harvester/pkg/metrics"
	"go.uber.org/zap/zaptest"
)

func TestRunManager_Submit(t *testing.T) {
	queue := &memQueue{}
	runs := newMemRuns()
	m := metrics.New(prometheus.NewRegistry())
	manager := NewRunManager("finextra", queue, runs, m, zaptest.NewLogger(t))
	ctx := context.Background()

	runID, err := manager.Submit(ctx, entity.RunRequest{IntervalHours: 24, MaxCount: 10})
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	assert.NoError(t, err, "run ids are uuids")

	run, err := manager.Status(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusPending, run.Status)
	assert.Equal(t, "finextra", run.Source)
	assert.Equal(t, 24, run.IntervalHours)
	assert.Equal(t, 10, run.MaxCount)
	assert.False(t, run.SubmittedAt.IsZero())

	require.Len(t, queue.items, 1)
	assert.Equal(t, runID, queue.items[0].RunID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsInQueue))
}

func TestRunManager_SubmitRejectsUnboundedRequest(t *testing.T) {
	queue := &memQueue{}
	runs := newMemRuns()
	manager := NewRunManager("finextra", queue, runs, metrics.New(prometheus.NewRegistry()), zaptest.NewLogger(t))

	_, err := manager.Submit(context.Background(), entity.RunRequest{})
	assert.ErrorIs(t, err, repository.ErrNoBound)
	_, err = manager.Submit(context.Background(), entity.RunRequest{Incremental: true})
	assert.ErrorIs(t, err, repository.ErrNoBound)
	assert.Empty(t, queue.items)
	assert.Empty(t, runs.runs)
}

func TestRunManager_SubmitQueueFailure(t *testing.T) {
	queue := &memQueue{err: errors.New("redis down")}
	manager := NewRunManager("finextra", queue, newMemRuns(), metrics.New(prometheus.NewRegistry()), zaptest.NewLogger(t))

	_, err := manager.Submit(context.Background(), entity.RunRequest{MaxCount: 5, Incremental: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestRunManager_StatusUnknownRun(t *testing.T) {
	manager := NewRunManager("finextra", &memQueue{}, newMemRuns(), metrics.New(prometheus.NewRegistry()), zaptest.NewLogger(t))
	_, err := manager.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     entity.RunRequest
		wantErr bool
	}{
		{"interval only", entity.RunRequest{IntervalHours: 24}, false},
		{"max count only", entity.RunRequest{MaxCount: 5}, false},
		{"incremental with interval", entity.RunRequest{IntervalHours: 24, Incremental: true}, false},
		{"incremental with max count", entity.RunRequest{MaxCount: 5, Incremental: true}, false},
		{"incremental only", entity.RunRequest{Incremental: true}, true},
		{"nothing", entity.RunRequest{}, true},
		{"negative interval", entity.RunRequest{IntervalHours: -1, MaxCount: 5}, true},
		{"negative max count", entity.RunRequest{IntervalHours: 24, MaxCount: -5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
