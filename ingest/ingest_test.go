package ingest_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diagdex/diagdex"
	"github.com/diagdex/diagdex/ingest"
	"github.com/diagdex/diagdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diagramText = "Memory layout:\n+----+\n|page|\n+----+\nSee AUDIT config."

// noDelays keeps retry loops instant in tests.
var noDelays = []time.Duration{0}

func testResolver(describer diagdex.Describer, cache diagdex.DescriptionCache) *ingest.DescriptionResolver {
	return ingest.NewDescriptionResolver(describer, cache, nil, noDelays)
}

// missCache always misses and accepts any fill.
func missCache() *mock.DescriptionCache {
	return &mock.DescriptionCache{
		GetFn: func(_ context.Context, _ string) (*diagdex.Description, error) {
			return nil, diagdex.Errorf(diagdex.ENOTFOUND, "not cached")
		},
		PutFn: func(_ context.Context, _ *diagdex.Description) error { return nil },
	}
}

// indexState backs a mock store with real map state so successive
// ingests observe what earlier ones wrote.
type indexState struct {
	mu      sync.Mutex
	points  map[string]diagdex.IndexPoint
	deleted []string
}

func newIndexState() *indexState {
	return &indexState{points: map[string]diagdex.IndexPoint{}}
}

func (s *indexState) store() *mock.VectorStore {
	return &mock.VectorStore{
		UpsertFn: func(_ context.Context, points []diagdex.IndexPoint) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, p := range points {
				s.points[p.ID] = p
			}
			return nil
		},
		ListIDsFn: func(_ context.Context, documentID string) ([]string, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var ids []string
			for id, p := range s.points {
				if p.Payload.DocumentID == documentID {
					ids = append(ids, id)
				}
			}
			return ids, nil
		},
		DeleteFn: func(_ context.Context, ids []string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, id := range ids {
				delete(s.points, id)
				s.deleted = append(s.deleted, id)
			}
			return nil
		},
	}
}

func (s *indexState) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.points))
	for id := range s.points {
		ids = append(ids, id)
	}
	return ids
}

func (s *indexState) deletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func unitEmbedder() *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i := range texts {
				vectors[i] = []float32{1, 0, 0}
			}
			return vectors, nil
		},
		DimensionFn: func() int { return 3 },
	}
}

func TestIngestor_Ingest(t *testing.T) {
	t.Parallel()

	t.Run("indexes a plain document end to end", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var upserted []diagdex.IndexPoint
		var deleted []string

		store := &mock.VectorStore{
			UpsertFn: func(_ context.Context, points []diagdex.IndexPoint) error {
				mu.Lock()
				defer mu.Unlock()
				upserted = append(upserted, points...)
				return nil
			},
			DeleteFn: func(_ context.Context, ids []string) error {
				mu.Lock()
				defer mu.Unlock()
				deleted = append(deleted, ids...)
				return nil
			},
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) {
				return nil, nil
			},
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: "Plain documentation text.", FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/page.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Indexed)
		assert.Equal(t, 0, result.Skipped)
		assert.Equal(t, 0, result.Failed)
		assert.Equal(t, 1, result.Chunks)
		assert.Equal(t, 0, result.Diagrams)

		require.Len(t, upserted, 1)
		p := upserted[0]
		assert.Equal(t, diagdex.ChunkID("docs/page.md", 0, 25, "Plain documentation text."), p.ID)
		assert.Equal(t, []float32{1, 0, 0}, p.Vector)
		assert.NotEmpty(t, p.Sparse.Indices)
		assert.Equal(t, "docs/page.md", p.Payload.DocumentID)
		assert.Equal(t, "Plain documentation text.", p.Payload.Text)
		assert.False(t, p.Payload.ContainsDiagram)
		assert.Empty(t, deleted)
	})

	t.Run("substitutes descriptions and flags fallbacks in the index", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var upserted []diagdex.IndexPoint

		store := &mock.VectorStore{
			UpsertFn: func(_ context.Context, points []diagdex.IndexPoint) error {
				mu.Lock()
				defer mu.Unlock()
				upserted = append(upserted, points...)
				return nil
			},
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		}
		describer := &mock.Describer{
			DescribeFn: func(_ context.Context, r *diagdex.DiagramRegion) (*diagdex.Description, error) {
				return &diagdex.Description{RegionHash: r.Hash(), Text: "diagram of a single memory page"}, nil
			},
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: diagramText, FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(describer, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/memory.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Indexed)
		assert.Equal(t, 1, result.Diagrams)
		assert.Equal(t, 0, result.Fallbacks)

		require.Len(t, upserted, 1)
		assert.Equal(t, "Memory layout:\n[DIAGRAM: diagram of a single memory page]\nSee AUDIT config.", upserted[0].Payload.Text)
		assert.True(t, upserted[0].Payload.ContainsDiagram)
		assert.False(t, upserted[0].Payload.DescriptionMissing)
	})

	t.Run("description fallback keeps raw text and counts", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var upserted []diagdex.IndexPoint

		store := &mock.VectorStore{
			UpsertFn: func(_ context.Context, points []diagdex.IndexPoint) error {
				mu.Lock()
				defer mu.Unlock()
				upserted = append(upserted, points...)
				return nil
			},
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		}
		describer := &mock.Describer{
			DescribeFn: func(_ context.Context, _ *diagdex.DiagramRegion) (*diagdex.Description, error) {
				return nil, diagdex.Errorf(diagdex.ETRANSIENT, "timeout")
			},
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: diagramText, FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(describer, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/memory.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Indexed, "fallback degrades the chunk, not the document")
		assert.Equal(t, 1, result.Fallbacks)

		require.Len(t, upserted, 1)
		assert.Equal(t, diagramText, upserted[0].Payload.Text)
		assert.True(t, upserted[0].Payload.DescriptionMissing)
	})

	t.Run("deletes stale points only after upsert succeeds", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var order []string
		var deleted []string
		var currentID string

		store := &mock.VectorStore{
			UpsertFn: func(_ context.Context, points []diagdex.IndexPoint) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, "upsert")
				currentID = points[0].ID
				return nil
			},
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, "list")
				return []string{currentID, "stale-1", "stale-2"}, nil
			},
			DeleteFn: func(_ context.Context, ids []string) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, "delete")
				deleted = append(deleted, ids...)
				return nil
			},
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: "Updated content.", FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/page.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Indexed)
		assert.Equal(t, []string{"upsert", "list", "delete"}, order)
		assert.ElementsMatch(t, []string{"stale-1", "stale-2"}, deleted)
	})

	t.Run("fetch failure skips the document and touches no store", func(t *testing.T) {
		t.Parallel()

		store := &mock.VectorStore{
			UpsertFn: func(_ context.Context, _ []diagdex.IndexPoint) error {
				t.Error("upsert should not be called for a skipped document")
				return nil
			},
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, _ string) (*diagdex.Document, error) {
					return nil, diagdex.Errorf(diagdex.ENOTFOUND, "no such page")
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		var events []ingest.ProgressEvent
		result, err := in.Ingest(context.Background(), []string{"docs/missing.md"}, func(e ingest.ProgressEvent) {
			events = append(events, e)
		})

		require.NoError(t, err)
		assert.Equal(t, 0, result.Indexed)
		assert.Equal(t, 1, result.Skipped)

		var skippedEvents int
		for _, e := range events {
			if e.Type == ingest.ProgressSkipped {
				skippedEvents++
				assert.Equal(t, "docs/missing.md", e.SourceID)
				assert.Error(t, e.Error)
			}
		}
		assert.Equal(t, 1, skippedEvents)
	})

	t.Run("upsert failure fails the document and skips reconcile", func(t *testing.T) {
		t.Parallel()

		store := &mock.VectorStore{
			UpsertFn: func(_ context.Context, _ []diagdex.IndexPoint) error {
				return diagdex.Errorf(diagdex.EPERMANENT, "dimension mismatch")
			},
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) {
				t.Error("reconcile should not run after a failed upsert")
				return nil, nil
			},
			DeleteFn: func(_ context.Context, _ []string) error {
				t.Error("delete should not run after a failed upsert")
				return nil
			},
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: "Some content.", FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/page.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 0, result.Indexed)
	})

	t.Run("one failed document does not abort the run", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var upsertedDocs []string

		store := &mock.VectorStore{
			UpsertFn: func(_ context.Context, points []diagdex.IndexPoint) error {
				mu.Lock()
				defer mu.Unlock()
				upsertedDocs = append(upsertedDocs, points[0].Payload.DocumentID)
				return nil
			},
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					if sourceID == "docs/broken.md" {
						return nil, diagdex.Errorf(diagdex.ETRANSIENT, "connection reset")
					}
					return &diagdex.Document{SourceID: sourceID, RawText: "Content of " + sourceID + ".", FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Concurrency:  2,
			RetryDelays:  noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/a.md", "docs/broken.md", "docs/b.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Indexed)
		assert.Equal(t, 1, result.Skipped)
		assert.ElementsMatch(t, []string{"docs/a.md", "docs/b.md"}, upsertedDocs)
	})

	t.Run("counts tokens when a counter is configured", func(t *testing.T) {
		t.Parallel()

		store := &mock.VectorStore{
			UpsertFn:  func(_ context.Context, _ []diagdex.IndexPoint) error { return nil },
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: "Some content.", FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			TokenCounter: &mock.TokenCounter{
				CountTokensFn: func(_ context.Context, text string) (int, error) {
					return len(text) / 4, nil
				},
			},
			Concurrency: 1,
			RetryDelays: noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/a.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, len("Some content.")/4, result.Tokens)
	})

	t.Run("records the run and per-document statuses", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var createdRun *diagdex.Run
		var finished bool
		statuses := map[string]*diagdex.DocumentStatus{}

		runs := &mock.RunStore{
			CreateRunFn: func(_ context.Context, run *diagdex.Run) error {
				run.ID = "run-1"
				run.StartedAt = time.Now()
				createdRun = run
				return nil
			},
			FinishRunFn: func(_ context.Context, runID string, _ time.Time) error {
				mu.Lock()
				defer mu.Unlock()
				assert.Equal(t, "run-1", runID)
				finished = true
				return nil
			},
			PutDocumentStatusFn: func(_ context.Context, runID string, status *diagdex.DocumentStatus) error {
				mu.Lock()
				defer mu.Unlock()
				assert.Equal(t, "run-1", runID)
				statuses[status.SourceID] = status
				return nil
			},
		}

		store := &mock.VectorStore{
			UpsertFn:  func(_ context.Context, _ []diagdex.IndexPoint) error { return nil },
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: "Content.", FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Runs:         runs,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/a.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, "run-1", result.RunID)
		require.NotNil(t, createdRun)
		assert.True(t, finished)
		require.Contains(t, statuses, "docs/a.md")
		assert.Equal(t, diagdex.DocumentIndexed, statuses["docs/a.md"].State)
		assert.Equal(t, 1, statuses["docs/a.md"].Chunks)
	})

	t.Run("stops dispatching after cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		var mu sync.Mutex
		var fetched int

		store := &mock.VectorStore{
			UpsertFn:  func(_ context.Context, _ []diagdex.IndexPoint) error { return nil },
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(fctx context.Context, sourceID string) (*diagdex.Document, error) {
					mu.Lock()
					fetched++
					if fetched == 1 {
						cancel()
					}
					mu.Unlock()
					return &diagdex.Document{SourceID: sourceID, RawText: "Content.", FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		ids := make([]string, 50)
		for i := range ids {
			ids[i] = "docs/page.md"
		}
		result, err := in.Ingest(ctx, ids, nil)

		require.Error(t, err)
		assert.Equal(t, context.Canceled, err)
		mu.Lock()
		defer mu.Unlock()
		assert.Less(t, fetched, len(ids), "dispatch should stop once the context is canceled")
		_ = result
	})

	t.Run("re-ingesting unchanged content rewrites the same ids and deletes nothing", func(t *testing.T) {
		t.Parallel()

		paragraphs := []string{
			"The scheduler keeps one run queue per core and balances them lazily.",
			"Each queue is protected by its own lock to avoid cross-core contention.",
			"Idle cores steal work from the busiest queue once per balancing tick.",
		}
		text := strings.Join(paragraphs, "\n\n")
		target := 0
		for _, p := range paragraphs {
			if len(p)+4 > target {
				target = len(p) + 4
			}
		}

		state := newIndexState()
		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: text, FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      &diagdex.Chunker{TargetSize: target},
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        state.store(),
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		_, err := in.Ingest(context.Background(), []string{"docs/sched.md"}, nil)
		require.NoError(t, err)
		first := state.ids()
		require.Len(t, first, len(paragraphs))

		result, err := in.Ingest(context.Background(), []string{"docs/sched.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Indexed)
		assert.ElementsMatch(t, first, state.ids(), "unchanged content must reproduce the same chunk ids")
		assert.Empty(t, state.deletedIDs(), "nothing is stale when content has not changed")
	})

	t.Run("editing one paragraph changes only the overlapping chunk", func(t *testing.T) {
		t.Parallel()

		paragraphs := []string{
			"The scheduler keeps one run queue per core and balances them lazily.",
			"Each queue is protected by its own lock to avoid cross-core contention.",
			"Idle cores steal work from the busiest queue once per balancing tick.",
		}
		target := 0
		for _, p := range paragraphs {
			if len(p)+4 > target {
				target = len(p) + 4
			}
		}

		content := strings.Join(paragraphs, "\n\n")
		state := newIndexState()
		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: content, FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      &diagdex.Chunker{TargetSize: target},
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        state.store(),
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		_, err := in.Ingest(context.Background(), []string{"docs/sched.md"}, nil)
		require.NoError(t, err)
		first := state.ids()
		require.Len(t, first, len(paragraphs))

		edited := append([]string(nil), paragraphs...)
		edited[2] = "Idle cores now steal in pairs to halve the balancing latency."
		content = strings.Join(edited, "\n\n")

		_, err = in.Ingest(context.Background(), []string{"docs/sched.md"}, nil)
		require.NoError(t, err)
		second := state.ids()
		require.Len(t, second, len(paragraphs))

		firstSet := map[string]bool{}
		for _, id := range first {
			firstSet[id] = true
		}
		var kept, replaced []string
		for _, id := range second {
			if firstSet[id] {
				kept = append(kept, id)
			}
		}
		for _, id := range first {
			found := false
			for _, s := range second {
				if s == id {
					found = true
				}
			}
			if !found {
				replaced = append(replaced, id)
			}
		}

		assert.Len(t, kept, len(paragraphs)-1, "chunks outside the edit keep their ids")
		assert.Len(t, replaced, 1, "only the edited chunk is replaced")
		assert.ElementsMatch(t, replaced, state.deletedIDs(), "the superseded chunk is reconciled away")
	})

	t.Run("logs run store failures without failing documents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		runs := &mock.RunStore{
			CreateRunFn: func(_ context.Context, run *diagdex.Run) error {
				run.ID = "run-1"
				return nil
			},
			PutDocumentStatusFn: func(_ context.Context, _ string, _ *diagdex.DocumentStatus) error {
				return diagdex.Errorf(diagdex.EINTERNAL, "status table unavailable")
			},
			FinishRunFn: func(_ context.Context, _ string, _ time.Time) error {
				return diagdex.Errorf(diagdex.EINTERNAL, "status table unavailable")
			},
		}
		store := &mock.VectorStore{
			UpsertFn:  func(_ context.Context, _ []diagdex.IndexPoint) error { return nil },
			ListIDsFn: func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		}

		in := &ingest.Ingestor{
			Source: &mock.Source{
				FetchFn: func(_ context.Context, sourceID string) (*diagdex.Document, error) {
					return &diagdex.Document{SourceID: sourceID, RawText: "Content.", FetchedAt: time.Now()}, nil
				},
			},
			Detector:     diagdex.NewDetector(),
			Chunker:      diagdex.NewChunker(),
			Descriptions: testResolver(&mock.Describer{}, missCache()),
			Embedder:     unitEmbedder(),
			Store:        store,
			Runs:         runs,
			Logger:       logger,
			Concurrency:  1,
			RetryDelays:  noDelays,
		}

		result, err := in.Ingest(context.Background(), []string{"docs/a.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Indexed, "a lost status row must not fail the document")

		logged := buf.String()
		assert.Contains(t, logged, "record document status")
		assert.Contains(t, logged, "finish run")
		assert.Contains(t, logged, "status table unavailable")
	})
}
