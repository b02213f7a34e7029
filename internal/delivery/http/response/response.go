package response

import (
	"time"

	"github.com/user/news-harvester/internal/entity"
)

type SubmitRunResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// RunStatusResponse is a DTO for run status, mirroring entity.HarvestRun
type RunStatusResponse struct {
	RunID         string     `json:"run_id"`
	Source        string     `json:"source"`
	Status        string     `json:"status"` // "pending", "running", "completed", "failed"
	IntervalHours int        `json:"interval_hours,omitempty"`
	MaxCount      int        `json:"max_count,omitempty"`
	Incremental   bool       `json:"incremental"`
	Outcome       string     `json:"outcome,omitempty"`
	DocumentCount int        `json:"document_count"`
	SkippedCount  int        `json:"skipped_count"`
	FailureReason string     `json:"failure_reason,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

func NewRunStatusResponse(run *entity.HarvestRun) RunStatusResponse {
	return RunStatusResponse{
		RunID:         run.ID,
		Source:        run.Source,
		Status:        run.Status,
		IntervalHours: run.IntervalHours,
		MaxCount:      run.MaxCount,
		Incremental:   run.Incremental,
		Outcome:       string(run.Outcome),
		DocumentCount: run.DocumentCount,
		SkippedCount:  run.SkippedCount,
		FailureReason: run.FailureReason,
		SubmittedAt:   run.SubmittedAt,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
}
