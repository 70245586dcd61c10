package mock

import (
	"context"

	"github.com/diagdex/diagdex"
)

var _ diagdex.VectorStore = (*VectorStore)(nil)

// VectorStore is a mock implementation of diagdex.VectorStore.
type VectorStore struct {
	UpsertFn       func(ctx context.Context, points []diagdex.IndexPoint) error
	DeleteFn       func(ctx context.Context, ids []string) error
	ListIDsFn      func(ctx context.Context, documentID string) ([]string, error)
	SearchDenseFn  func(ctx context.Context, vector []float32, k int) ([]diagdex.ScoredPoint, error)
	SearchSparseFn func(ctx context.Context, query diagdex.SparseVector, k int) ([]diagdex.ScoredPoint, error)
}

func (s *VectorStore) Upsert(ctx context.Context, points []diagdex.IndexPoint) error {
	return s.UpsertFn(ctx, points)
}

func (s *VectorStore) Delete(ctx context.Context, ids []string) error {
	return s.DeleteFn(ctx, ids)
}

func (s *VectorStore) ListIDs(ctx context.Context, documentID string) ([]string, error) {
	return s.ListIDsFn(ctx, documentID)
}

func (s *VectorStore) SearchDense(ctx context.Context, vector []float32, k int) ([]diagdex.ScoredPoint, error) {
	return s.SearchDenseFn(ctx, vector, k)
}

func (s *VectorStore) SearchSparse(ctx context.Context, query diagdex.SparseVector, k int) ([]diagdex.ScoredPoint, error) {
	return s.SearchSparseFn(ctx, query, k)
}
