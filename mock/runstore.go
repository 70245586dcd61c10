package mock

import (
	"context"
	"time"

	"github.com/diagdex/diagdex"
)

var _ diagdex.RunStore = (*RunStore)(nil)

// RunStore is a mock implementation of diagdex.RunStore.
type RunStore struct {
	CreateRunFn         func(ctx context.Context, run *diagdex.Run) error
	FinishRunFn         func(ctx context.Context, runID string, finishedAt time.Time) error
	PutDocumentStatusFn func(ctx context.Context, runID string, status *diagdex.DocumentStatus) error
	FindRunStatusesFn   func(ctx context.Context, runID string) ([]*diagdex.DocumentStatus, error)
	FindLatestRunFn     func(ctx context.Context) (*diagdex.Run, error)
}

func (s *RunStore) CreateRun(ctx context.Context, run *diagdex.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunStore) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	return s.FinishRunFn(ctx, runID, finishedAt)
}

func (s *RunStore) PutDocumentStatus(ctx context.Context, runID string, status *diagdex.DocumentStatus) error {
	return s.PutDocumentStatusFn(ctx, runID, status)
}

func (s *RunStore) FindRunStatuses(ctx context.Context, runID string) ([]*diagdex.DocumentStatus, error) {
	return s.FindRunStatusesFn(ctx, runID)
}

func (s *RunStore) FindLatestRun(ctx context.Context) (*diagdex.Run, error) {
	return s.FindLatestRunFn(ctx)
}
