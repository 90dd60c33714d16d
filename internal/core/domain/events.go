package domain

import "time"

// ProgressFunc receives (step, fraction) notifications. Fractions never decrease.
type ProgressFunc func(step string, fraction float64)

// DataFunc receives step-specific audit payloads.
type DataFunc func(step string, payload map[string]any)

// CheckCallbacks groups the optional side-channel observers of a check.
type CheckCallbacks struct {
	Progress ProgressFunc
	Data     DataFunc
}

// CheckItem is one abstract in a batch.
type CheckItem struct {
	Abstract string         `json:"abstract"`
	Metadata SourceMetadata `json:"metadata"`
}

// CheckJob is a queued check request.
type CheckJob struct {
	JobID      string         `json:"job_id"`
	Abstract   string         `json:"abstract"`
	Metadata   SourceMetadata `json:"metadata"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// CheckCompletedEvent is published after a result is persisted.
type CheckCompletedEvent struct {
	CheckID        string               `json:"check_id"`
	JobID          string               `json:"job_id,omitempty"`
	SourceRef      string               `json:"source_ref,omitempty"`
	StatementCount int                  `json:"statement_count"`
	VerdictCounts  map[VerdictLabel]int `json:"verdict_counts"`
	CompletedAt    time.Time            `json:"completed_at"`
}

// ConnectionReport lists reachability of every collaborator.
type ConnectionReport struct {
	OK       bool              `json:"ok"`
	Services map[string]bool   `json:"services"`
	Errors   map[string]string `json:"errors,omitempty"`
}
