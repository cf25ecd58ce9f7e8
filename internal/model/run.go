package model

import "time"

// RunStatus is the lifecycle state of a reconciliation run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunCounts holds per-source record counts for a run.
type RunCounts struct {
	Contacts int `json:"contacts"`
	Leads    int `json:"leads"`
	Deals    int `json:"deals"`
}

// Run records one fetch/reconcile execution in the run store.
type Run struct {
	ID         string     `json:"id"`
	Status     RunStatus  `json:"status"`
	Counts     RunCounts  `json:"counts"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
