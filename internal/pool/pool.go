// Package pool runs bulk work with a bounded number of operations in flight.
package pool

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Option configures Map.
type Option func(*options)

type options struct {
	stop func() bool
}

// WithStop installs a check that workers run before claiming each item.
// Once it reports true no new items are claimed; items already claimed
// run to completion.
func WithStop(stop func() bool) Option {
	return func(o *options) { o.stop = stop }
}

// Map calls fn for every item with at most limit calls in flight and returns
// the results in input order, regardless of completion order.
//
// limit workers pull the next unclaimed index from a shared counter until
// the items are exhausted, the stop check fires or ctx is done. Slots of
// items that were never claimed keep the zero value of R. The first error
// returned by fn stops further claiming and is returned once in-flight calls
// finish; workers that handle their own failures should return a nil error.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error), opts ...Option) ([]R, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	results := make([]R, len(items))
	var next atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	for range limit {
		eg.Go(func() error {
			for {
				if egCtx.Err() != nil {
					return nil
				}
				if o.stop != nil && o.stop() {
					return nil
				}
				i := int(next.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				r, err := fn(egCtx, items[i])
				if err != nil {
					return err
				}
				results[i] = r
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
