package ingest_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diagdex/diagdex"
	"github.com/diagdex/diagdex/ingest"
	"github.com/diagdex/diagdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptionResolver_Resolve(t *testing.T) {
	t.Parallel()

	region := &diagdex.DiagramRegion{
		DocumentID:  "doc-1",
		StartOffset: 0,
		EndOffset:   20,
		RawText:     "+----+\n|page|\n+----+",
	}

	t.Run("returns cached description without calling describer", func(t *testing.T) {
		t.Parallel()

		cached := &diagdex.Description{RegionHash: region.Hash(), Text: "a memory page"}
		cache := &mock.DescriptionCache{
			GetFn: func(_ context.Context, hash string) (*diagdex.Description, error) {
				assert.Equal(t, region.Hash(), hash)
				return cached, nil
			},
		}
		describer := &mock.Describer{
			DescribeFn: func(_ context.Context, _ *diagdex.DiagramRegion) (*diagdex.Description, error) {
				t.Fatal("describer should not be called on a cache hit")
				return nil, nil
			},
		}

		r := ingest.NewDescriptionResolver(describer, cache, nil, []time.Duration{0})
		res := r.Resolve(context.Background(), region)

		require.NoError(t, res.Err)
		assert.Equal(t, diagdex.RegionCached, res.Outcome)
		assert.Equal(t, cached, res.Description)
	})

	t.Run("describes on cache miss and fills the cache", func(t *testing.T) {
		t.Parallel()

		var put *diagdex.Description
		cache := &mock.DescriptionCache{
			GetFn: func(_ context.Context, _ string) (*diagdex.Description, error) {
				return nil, diagdex.Errorf(diagdex.ENOTFOUND, "not cached")
			},
			PutFn: func(_ context.Context, desc *diagdex.Description) error {
				put = desc
				return nil
			},
		}
		describer := &mock.Describer{
			DescribeFn: func(_ context.Context, r *diagdex.DiagramRegion) (*diagdex.Description, error) {
				return &diagdex.Description{RegionHash: r.Hash(), Text: "diagram of a memory page"}, nil
			},
		}

		r := ingest.NewDescriptionResolver(describer, cache, nil, []time.Duration{0})
		res := r.Resolve(context.Background(), region)

		require.NoError(t, res.Err)
		assert.Equal(t, diagdex.RegionDescribed, res.Outcome)
		require.NotNil(t, res.Description)
		assert.Equal(t, "diagram of a memory page", res.Description.Text)
		require.NotNil(t, put)
		assert.Equal(t, region.Hash(), put.RegionHash)
	})

	t.Run("retries transient failures then succeeds", func(t *testing.T) {
		t.Parallel()

		cache := &mock.DescriptionCache{
			GetFn: func(_ context.Context, _ string) (*diagdex.Description, error) {
				return nil, diagdex.Errorf(diagdex.ENOTFOUND, "not cached")
			},
			PutFn: func(_ context.Context, _ *diagdex.Description) error { return nil },
		}
		var calls atomic.Int64
		describer := &mock.Describer{
			DescribeFn: func(_ context.Context, r *diagdex.DiagramRegion) (*diagdex.Description, error) {
				if calls.Add(1) < 3 {
					return nil, diagdex.Errorf(diagdex.ETRANSIENT, "rate limited")
				}
				return &diagdex.Description{RegionHash: r.Hash(), Text: "described"}, nil
			},
		}

		r := ingest.NewDescriptionResolver(describer, cache, nil, []time.Duration{0, 0, 0})
		res := r.Resolve(context.Background(), region)

		require.NoError(t, res.Err)
		assert.Equal(t, diagdex.RegionDescribed, res.Outcome)
		assert.Equal(t, int64(3), calls.Load())
	})

	t.Run("falls back to raw after exhausting transient retries", func(t *testing.T) {
		t.Parallel()

		cache := &mock.DescriptionCache{
			GetFn: func(_ context.Context, _ string) (*diagdex.Description, error) {
				return nil, diagdex.Errorf(diagdex.ENOTFOUND, "not cached")
			},
		}
		var calls atomic.Int64
		describer := &mock.Describer{
			DescribeFn: func(_ context.Context, _ *diagdex.DiagramRegion) (*diagdex.Description, error) {
				calls.Add(1)
				return nil, diagdex.Errorf(diagdex.ETRANSIENT, "timeout")
			},
		}

		r := ingest.NewDescriptionResolver(describer, cache, nil, []time.Duration{0, 0})
		res := r.Resolve(context.Background(), region)

		require.NoError(t, res.Err)
		assert.Equal(t, diagdex.RegionFellBackToRaw, res.Outcome)
		assert.Nil(t, res.Description)
		assert.Equal(t, int64(3), calls.Load(), "1 initial attempt + 2 retries")
	})

	t.Run("permanent failure is reported without retries", func(t *testing.T) {
		t.Parallel()

		cache := &mock.DescriptionCache{
			GetFn: func(_ context.Context, _ string) (*diagdex.Description, error) {
				return nil, diagdex.Errorf(diagdex.ENOTFOUND, "not cached")
			},
		}
		var calls atomic.Int64
		describer := &mock.Describer{
			DescribeFn: func(_ context.Context, _ *diagdex.DiagramRegion) (*diagdex.Description, error) {
				calls.Add(1)
				return nil, diagdex.Errorf(diagdex.EPERMANENT, "invalid api key")
			},
		}

		r := ingest.NewDescriptionResolver(describer, cache, nil, []time.Duration{0, 0})
		res := r.Resolve(context.Background(), region)

		assert.Equal(t, diagdex.RegionFailed, res.Outcome)
		assert.Nil(t, res.Description)
		require.Error(t, res.Err)
		assert.Equal(t, diagdex.EPERMANENT, diagdex.ErrorCode(res.Err))
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("collapses concurrent fills for the same region", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		var calls atomic.Int64
		var mu sync.Mutex
		store := make(map[string]*diagdex.Description)

		cache := &mock.DescriptionCache{
			GetFn: func(_ context.Context, hash string) (*diagdex.Description, error) {
				mu.Lock()
				defer mu.Unlock()
				if d, ok := store[hash]; ok {
					return d, nil
				}
				return nil, diagdex.Errorf(diagdex.ENOTFOUND, "not cached")
			},
			PutFn: func(_ context.Context, desc *diagdex.Description) error {
				mu.Lock()
				defer mu.Unlock()
				store[desc.RegionHash] = desc
				return nil
			},
		}
		describer := &mock.Describer{
			DescribeFn: func(_ context.Context, r *diagdex.DiagramRegion) (*diagdex.Description, error) {
				calls.Add(1)
				<-release
				return &diagdex.Description{RegionHash: r.Hash(), Text: "shared"}, nil
			},
		}

		r := ingest.NewDescriptionResolver(describer, cache, nil, []time.Duration{0})

		const workers = 8
		results := make(chan ingest.Resolution, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- r.Resolve(context.Background(), region)
			}()
		}
		// Let the goroutines pile onto the in-flight call before it
		// completes.
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()
		close(results)

		for res := range results {
			require.NoError(t, res.Err)
			// A worker scheduled after the shared call lands sees a
			// cache hit instead of joining the flight.
			assert.Contains(t, []diagdex.RegionOutcome{diagdex.RegionDescribed, diagdex.RegionCached}, res.Outcome)
			require.NotNil(t, res.Description)
			assert.Equal(t, "shared", res.Description.Text)
		}
		assert.Equal(t, int64(1), calls.Load(), "one external call for all workers")
	})
}
