package entity

import "time"

// Outcome is the terminal state of a harvest run.
type Outcome string

const (
	OutcomeExhaustedWindow Outcome = "exhausted-window"
	OutcomeStopDuplicate   Outcome = "stop-duplicate"
	OutcomeStopMaxCount    Outcome = "stop-maxcount"
	OutcomeFatal           Outcome = "fatal"
	OutcomeCancelled       Outcome = "cancelled"
)

// Run status values stored alongside a HarvestRun.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// HarvestRun mirrors the `harvest_runs` PostgreSQL table schema.
type HarvestRun struct {
	ID            string
	Source        string
	Status        string
	IntervalHours int
	MaxCount      int
	Incremental   bool
	Outcome       Outcome
	DocumentCount int
	SkippedCount  int
	FailureReason string
	SubmittedAt   time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
}

// RunRequest is the unit of work carried by the run queue.
type RunRequest struct {
	RunID         string `json:"run_id"`
	IntervalHours int    `json:"interval_hours,omitempty"`
	MaxCount      int    `json:"max_count,omitempty"`
	Incremental   bool   `json:"incremental"`
}
