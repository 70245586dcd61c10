// Package mock provides function-field mock implementations of the
// diagdex domain interfaces for testing.
package mock

import (
	"context"

	"github.com/diagdex/diagdex"
)

var _ diagdex.Source = (*Source)(nil)

// Source is a mock implementation of diagdex.Source.
type Source struct {
	FetchFn func(ctx context.Context, sourceID string) (*diagdex.Document, error)
}

func (s *Source) Fetch(ctx context.Context, sourceID string) (*diagdex.Document, error) {
	return s.FetchFn(ctx, sourceID)
}
