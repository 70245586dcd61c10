package mock

import (
	"context"

	"github.com/diagdex/diagdex"
)

var _ diagdex.DescriptionCache = (*DescriptionCache)(nil)

// DescriptionCache is a mock implementation of diagdex.DescriptionCache.
type DescriptionCache struct {
	GetFn func(ctx context.Context, regionHash string) (*diagdex.Description, error)
	PutFn func(ctx context.Context, desc *diagdex.Description) error
}

func (c *DescriptionCache) Get(ctx context.Context, regionHash string) (*diagdex.Description, error) {
	return c.GetFn(ctx, regionHash)
}

func (c *DescriptionCache) Put(ctx context.Context, desc *diagdex.Description) error {
	return c.PutFn(ctx, desc)
}
