package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/diagdex/diagdex"
)

// Ensure LoggingStore implements diagdex.VectorStore.
var _ diagdex.VectorStore = (*LoggingStore)(nil)

// LoggingStore wraps a VectorStore with logging for write operations.
// Search calls are not logged: they sit on the query hot path and the
// searcher reports its own outcome.
type LoggingStore struct {
	next   diagdex.VectorStore
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next diagdex.VectorStore, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{next: next, logger: logger}
}

// Upsert delegates to the wrapped store and logs the outcome.
func (s *LoggingStore) Upsert(ctx context.Context, points []diagdex.IndexPoint) error {
	begin := time.Now()
	err := s.next.Upsert(ctx, points)
	if err != nil {
		s.logger.Error("upsert",
			"points", len(points),
			"duration", time.Since(begin),
			"err", err,
		)
		return err
	}
	s.logger.Info("upsert",
		"points", len(points),
		"duration", time.Since(begin),
	)
	return nil
}

// Delete delegates to the wrapped store and logs the outcome.
func (s *LoggingStore) Delete(ctx context.Context, ids []string) error {
	begin := time.Now()
	err := s.next.Delete(ctx, ids)
	if err != nil {
		s.logger.Error("delete",
			"points", len(ids),
			"duration", time.Since(begin),
			"err", err,
		)
		return err
	}
	s.logger.Info("delete",
		"points", len(ids),
		"duration", time.Since(begin),
	)
	return nil
}

// ListIDs delegates to the wrapped store.
func (s *LoggingStore) ListIDs(ctx context.Context, documentID string) ([]string, error) {
	return s.next.ListIDs(ctx, documentID)
}

// SearchDense delegates to the wrapped store.
func (s *LoggingStore) SearchDense(ctx context.Context, vector []float32, k int) ([]diagdex.ScoredPoint, error) {
	return s.next.SearchDense(ctx, vector, k)
}

// SearchSparse delegates to the wrapped store.
func (s *LoggingStore) SearchSparse(ctx context.Context, query diagdex.SparseVector, k int) ([]diagdex.ScoredPoint, error) {
	return s.next.SearchSparse(ctx, query, k)
}
