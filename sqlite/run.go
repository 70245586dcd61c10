package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/diagdex/diagdex"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ diagdex.RunStore = (*RunStore)(nil)

// RunStore implements diagdex.RunStore using SQLite.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// CreateRun records the start of a run. The run id and start time are
// assigned here if unset.
func (s *RunStore) CreateRun(ctx context.Context, run *diagdex.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at) VALUES (?, ?)
	`, run.ID, run.StartedAt.Format(time.RFC3339))
	return err
}

// FinishRun records the completion time of a run.
func (s *RunStore) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ? WHERE id = ?
	`, finishedAt.UTC().Format(time.RFC3339), runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return diagdex.Errorf(diagdex.ENOTFOUND, "run %q not found", runID)
	}
	return nil
}

// PutDocumentStatus records one document's outcome.
func (s *RunStore) PutDocumentStatus(ctx context.Context, runID string, status *diagdex.DocumentStatus) error {
	if runID == "" {
		return diagdex.Errorf(diagdex.EINVALID, "run ID required")
	}
	if status.SourceID == "" {
		return diagdex.Errorf(diagdex.EINVALID, "status source ID required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_documents (run_id, source_id, state, chunks, diagrams, fallbacks, tokens, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, source_id) DO UPDATE SET
			state = excluded.state,
			chunks = excluded.chunks,
			diagrams = excluded.diagrams,
			fallbacks = excluded.fallbacks,
			tokens = excluded.tokens,
			error = excluded.error
	`, runID, status.SourceID, string(status.State), status.Chunks, status.Diagrams, status.Fallbacks, status.Tokens, status.Err)
	return err
}

// FindRunStatuses returns the per-document statuses of a run in
// source-id order.
func (s *RunStore) FindRunStatuses(ctx context.Context, runID string) ([]*diagdex.DocumentStatus, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, diagdex.Errorf(diagdex.ENOTFOUND, "run %q not found", runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, state, chunks, diagrams, fallbacks, tokens, error
		FROM run_documents
		WHERE run_id = ?
		ORDER BY source_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*diagdex.DocumentStatus
	for rows.Next() {
		var st diagdex.DocumentStatus
		var state string
		if err := rows.Scan(&st.SourceID, &state, &st.Chunks, &st.Diagrams, &st.Fallbacks, &st.Tokens, &st.Err); err != nil {
			return nil, err
		}
		st.State = diagdex.DocumentState(state)
		statuses = append(statuses, &st)
	}
	return statuses, rows.Err()
}

// FindLatestRun returns the most recently started run.
func (s *RunStore) FindLatestRun(ctx context.Context) (*diagdex.Run, error) {
	var run diagdex.Run
	var started, finished string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`).Scan(&run.ID, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, diagdex.Errorf(diagdex.ENOTFOUND, "no runs recorded")
	}
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(time.RFC3339, started)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if finished != "" {
		run.FinishedAt, err = time.Parse(time.RFC3339, finished)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
	}
	return &run, nil
}
