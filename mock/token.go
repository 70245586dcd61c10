package mock

import (
	"context"

	"github.com/diagdex/diagdex"
)

var _ diagdex.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of diagdex.TokenCounter. Token
// counts are informational during ingestion, so a nil CountTokensFn
// reports zero tokens instead of panicking.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if tc.CountTokensFn == nil {
		return 0, nil
	}
	return tc.CountTokensFn(ctx, text)
}
