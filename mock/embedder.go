package mock

import (
	"context"

	"github.com/diagdex/diagdex"
)

var _ diagdex.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of diagdex.Embedder.
type Embedder struct {
	EmbedFn     func(ctx context.Context, texts []string) ([][]float32, error)
	DimensionFn func() int
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedFn(ctx, texts)
}

func (e *Embedder) Dimension() int {
	if e.DimensionFn != nil {
		return e.DimensionFn()
	}
	return 0
}
