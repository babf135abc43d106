package engine

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/FitCheck/internal/model"
)

type bandResult struct {
	placement model.Placement
	found     bool
	err       error
}

// placeBanded splits the dx columns into one contiguous band per worker.
// The first hit of the lowest band that has one is exactly the first hit a
// sequential scan would return. Bands above a band with a hit give up early.
// A deadline only makes the outcome indeterminate when it interrupts a band
// below the winning one.
func (s *GridSearch) placeBanded(ctx context.Context, gr grid) (Outcome, error) {
	workers := s.Workers
	if workers > gr.columns {
		workers = gr.columns
	}
	bandSize := (gr.columns + workers - 1) / workers

	var tried atomic.Int64
	var lowestHit atomic.Int64
	lowestHit.Store(int64(workers))

	results := make([]bandResult, workers)
	var eg errgroup.Group
	for b := 0; b < workers; b++ {
		from := b * bandSize
		to := min(from+bandSize, gr.columns)
		if from >= to {
			continue
		}
		eg.Go(func() error {
			abandon := func() bool { return lowestHit.Load() < int64(b) }
			p, found, err := s.scan(ctx, gr, from, to, &tried, abandon)
			results[b] = bandResult{placement: p, found: found, err: err}
			if err != nil || !found {
				return nil
			}
			for {
				cur := lowestHit.Load()
				if int64(b) >= cur || lowestHit.CompareAndSwap(cur, int64(b)) {
					return nil
				}
			}
		})
	}
	_ = eg.Wait()

	for _, r := range results {
		if r.err != nil {
			return Outcome{PosesTried: tried.Load()}, r.err
		}
		if r.found {
			return Outcome{Placement: r.placement, Found: true, PosesTried: tried.Load()}, nil
		}
	}
	return Outcome{PosesTried: tried.Load()}, nil
}
