package slambook

import (
	"context"
	"time"
)

// Run statuses recorded in the ingest run log.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// IngestRun is one recorded upload run. The run log lets operators see
// what a past upload matched and created without re-running diagnostics.
type IngestRun struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	Report      *Report    `json:"report,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunStore records ingestion runs.
type RunStore interface {
	StartRun(ctx context.Context, filename string) (string, error)
	CompleteRun(ctx context.Context, runID string, report *Report) error
	FailRun(ctx context.Context, runID, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]IngestRun, error)
}
