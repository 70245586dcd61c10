package diagdex

import (
	"context"
	"time"
)

// DocumentState is the terminal state of one document within an
// ingestion run.
type DocumentState string

// Document states. A failed document never aborts the run; the run
// reports a per-document summary.
const (
	DocumentIndexed DocumentState = "indexed"
	DocumentSkipped DocumentState = "skipped"
	DocumentFailed  DocumentState = "failed"
)

// Run identifies one ingestion run over a document set.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// DocumentStatus summarizes the outcome for one document of a run.
type DocumentStatus struct {
	SourceID string        `json:"sourceId"`
	State    DocumentState `json:"state"`

	// Chunks is the number of chunks upserted.
	Chunks int `json:"chunks"`

	// Diagrams is the number of diagram regions detected.
	Diagrams int `json:"diagrams"`

	// Fallbacks is the number of regions that fell back to raw text
	// after description retries were exhausted.
	Fallbacks int `json:"fallbacks"`

	// Tokens is the token count of the indexed chunk text. Zero when
	// no counter is configured.
	Tokens int `json:"tokens"`

	// Err holds the failure message for skipped and failed documents.
	Err string `json:"err,omitempty"`
}

// RunStore records ingestion runs and their per-document outcomes.
type RunStore interface {
	// CreateRun records the start of a run.
	CreateRun(ctx context.Context, run *Run) error

	// FinishRun records the completion time of a run.
	FinishRun(ctx context.Context, runID string, finishedAt time.Time) error

	// PutDocumentStatus records one document's outcome, replacing any
	// prior record for the same run and source.
	PutDocumentStatus(ctx context.Context, runID string, status *DocumentStatus) error

	// FindRunStatuses returns the per-document statuses of a run.
	// Returns ENOTFOUND if the run does not exist.
	FindRunStatuses(ctx context.Context, runID string) ([]*DocumentStatus, error)

	// FindLatestRun returns the most recently started run.
	// Returns ENOTFOUND if no run was recorded.
	FindLatestRun(ctx context.Context) (*Run, error)
}
