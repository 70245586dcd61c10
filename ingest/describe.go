package ingest

import (
	"context"
	"time"

	"github.com/diagdex/diagdex"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Resolution is the outcome of resolving one region's description.
type Resolution struct {
	// Description is nil when the region fell back to raw text.
	Description *diagdex.Description

	Outcome diagdex.RegionOutcome

	// Err is set for RegionFailed (permanent describer errors). The
	// region still degrades to raw text; the error is reported, not
	// fatal to the document.
	Err error
}

// DescriptionResolver resolves diagram regions to descriptions through
// the shared cache, with retry, rate limiting and fallback. Concurrent
// requests for the same region hash are collapsed into one external
// call.
type DescriptionResolver struct {
	describer diagdex.Describer
	cache     diagdex.DescriptionCache
	delays    []time.Duration
	limiter   *rate.Limiter
	group     singleflight.Group
}

// NewDescriptionResolver creates a resolver. limiter may be nil to
// disable external-call pacing; delays nil selects
// DefaultRetryDelays.
func NewDescriptionResolver(describer diagdex.Describer, cache diagdex.DescriptionCache, limiter *rate.Limiter, delays []time.Duration) *DescriptionResolver {
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	return &DescriptionResolver{
		describer: describer,
		cache:     cache,
		delays:    delays,
		limiter:   limiter,
	}
}

// Resolve returns the region's description resolution. It never fails
// the caller: exhausted retries and permanent errors both degrade to
// raw text, reflected in the Outcome.
func (r *DescriptionResolver) Resolve(ctx context.Context, region *diagdex.DiagramRegion) Resolution {
	hash := region.Hash()

	if desc, err := r.cache.Get(ctx, hash); err == nil {
		return Resolution{Description: desc, Outcome: diagdex.RegionCached}
	}

	// Collapse concurrent fills for the same hash: one external call,
	// shared result.
	v, err, _ := r.group.Do(hash, func() (any, error) {
		// Another worker may have filled the cache while this call
		// waited on the flight group.
		if desc, err := r.cache.Get(ctx, hash); err == nil {
			return desc, nil
		}
		return r.describe(ctx, region)
	})
	if err != nil {
		if diagdex.IsTransient(err) {
			return Resolution{Outcome: diagdex.RegionFellBackToRaw}
		}
		return Resolution{Outcome: diagdex.RegionFailed, Err: err}
	}
	return Resolution{Description: v.(*diagdex.Description), Outcome: diagdex.RegionDescribed}
}

func (r *DescriptionResolver) describe(ctx context.Context, region *diagdex.DiagramRegion) (*diagdex.Description, error) {
	var desc *diagdex.Description
	err := retryTransient(ctx, r.delays, func(ctx context.Context) error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		desc, err = r.describer.Describe(ctx, region)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put(ctx, desc); err != nil {
		// A failed cache write costs a future external call, nothing
		// more.
		return desc, nil
	}
	return desc, nil
}
