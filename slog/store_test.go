package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/diagdex/diagdex"
	"github.com/diagdex/diagdex/mock"
	dslog "github.com/diagdex/diagdex/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingStore(t *testing.T) {
	t.Parallel()

	t.Run("logs upsert with point count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.VectorStore{
			UpsertFn: func(ctx context.Context, points []diagdex.IndexPoint) error {
				return nil
			},
		}

		store := dslog.NewLoggingStore(inner, logger)
		err := store.Upsert(context.Background(), make([]diagdex.IndexPoint, 3))

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "upsert")
		assert.Contains(t, output, "points=3")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs delete error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.VectorStore{
			DeleteFn: func(ctx context.Context, ids []string) error {
				return diagdex.Errorf(diagdex.ETRANSIENT, "store unavailable")
			},
		}

		store := dslog.NewLoggingStore(inner, logger)
		err := store.Delete(context.Background(), []string{"a", "b"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "delete")
		assert.Contains(t, output, "points=2")
		assert.Contains(t, output, "store unavailable")
	})

	t.Run("search delegates without logging", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.VectorStore{
			SearchDenseFn: func(ctx context.Context, vector []float32, k int) ([]diagdex.ScoredPoint, error) {
				return []diagdex.ScoredPoint{{ID: "a", Score: 0.5}}, nil
			},
		}

		store := dslog.NewLoggingStore(inner, logger)
		hits, err := store.SearchDense(context.Background(), []float32{1}, 5)

		require.NoError(t, err)
		assert.Len(t, hits, 1)
		assert.Empty(t, buf.String())
	})
}
