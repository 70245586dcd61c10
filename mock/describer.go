package mock

import (
	"context"

	"github.com/diagdex/diagdex"
)

var _ diagdex.Describer = (*Describer)(nil)

// Describer is a mock implementation of diagdex.Describer.
type Describer struct {
	DescribeFn func(ctx context.Context, region *diagdex.DiagramRegion) (*diagdex.Description, error)
}

func (d *Describer) Describe(ctx context.Context, region *diagdex.DiagramRegion) (*diagdex.Description, error) {
	return d.DescribeFn(ctx, region)
}
