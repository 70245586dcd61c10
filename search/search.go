// Package search provides hybrid query execution: the query text is
// embedded and sparse-encoded, both index legs are searched
// concurrently, and the candidate lists are fused into one ranking.
package search

import (
	"context"

	"github.com/diagdex/diagdex"
	"golang.org/x/sync/errgroup"
)

// DefaultCandidates is the per-leg candidate count requested from the
// store before fusion. Fusion can only promote what a leg returned, so
// each leg fetches more than the final k.
const DefaultCandidates = 50

// Searcher executes hybrid queries against the index.
type Searcher struct {
	Embedder diagdex.Embedder
	Store    diagdex.VectorStore

	// DenseWeight is the dense component weight in fusion. The value is
	// used as given: zero ranks by the sparse leg alone, one by the
	// dense leg alone. Callers wanting the balanced default set
	// diagdex.DefaultDenseWeight explicitly.
	DenseWeight float64

	// Candidates is the per-leg candidate count; zero value selects
	// DefaultCandidates.
	Candidates int
}

// Query embeds the query text, runs the dense and sparse searches
// concurrently and returns the fused top-k ranking. Either leg failing
// fails the query: a silently degraded single-leg ranking would be
// indistinguishable from a hybrid one.
func (s *Searcher) Query(ctx context.Context, text string, k int) ([]diagdex.QueryResult, error) {
	if text == "" {
		return nil, diagdex.Errorf(diagdex.EINVALID, "query text required")
	}
	if k <= 0 {
		return nil, diagdex.Errorf(diagdex.EINVALID, "result count must be positive")
	}

	candidates := s.Candidates
	if candidates <= 0 {
		candidates = DefaultCandidates
	}
	if candidates < k {
		candidates = k
	}

	vectors, err := s.Embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, diagdex.Errorf(diagdex.EINTERNAL, "embedder returned %d vectors for one query", len(vectors))
	}

	var dense, sparse []diagdex.ScoredPoint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dense, err = s.Store.SearchDense(gctx, vectors[0], candidates)
		return err
	})
	g.Go(func() error {
		var err error
		sparse, err = s.Store.SearchSparse(gctx, diagdex.SparseEncode(text), candidates)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return diagdex.Fuse(dense, sparse, s.DenseWeight, k), nil
}
