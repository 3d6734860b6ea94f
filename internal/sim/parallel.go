package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Factory builds an independent simulator for one ensemble member.
type Factory func(seed int64) (*Simulator, error)

// Ensemble runs independent simulations concurrently. Each member owns its
// ParticleSystem; nothing is shared between goroutines.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
	limit     int
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

// SetLimit bounds the number of members running at once; 0 means no limit.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Run executes every member for frames frames. The first failure cancels the
// remaining members.
func (e *Ensemble) Run(ctx context.Context, frames int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			seed := e.seedStart + int64(idx)
			s, err := e.factory(seed)
			if err != nil {
				return fmt.Errorf("ensemble member %d: %w", idx, err)
			}
			res, err := s.Run(gctx, frames)
			if err != nil {
				return fmt.Errorf("ensemble member %d: %w", idx, err)
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
