package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BuildFunc assembles an independent simulator for one ensemble member. Each
// call must return a Simulator that owns its own Design.
type BuildFunc func(seed int64) (*Simulator, error)

// Ensemble runs dispersed copies of a vehicle concurrently, one seed each.
type Ensemble struct {
	build     BuildFunc
	numRuns   int
	seedStart int64
	limit     int
}

func NewEnsemble(build BuildFunc, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart, limit: runtime.GOMAXPROCS(0)}
}

// SetConcurrency bounds the number of runs in flight.
func (e *Ensemble) SetConcurrency(n int) {
	if n > 0 {
		e.limit = n
	}
}

// Member is one ensemble run. A numeric fault ends only that member: Err
// holds the fault and Result the ticks flown before it.
type Member struct {
	Seed   int64
	Result *Result
	Err    error
}

// Faulted reports whether the member's run was aborted.
func (m Member) Faulted() bool { return m.Err != nil }

// Run executes every member with seeds seedStart..seedStart+numRuns-1. A
// build failure or cancellation stops the whole ensemble; per-tick faults
// are recorded on their member.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]Member, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	members := make([]Member, e.numRuns)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			seed := e.seedStart + int64(idx)
			s, err := e.build(seed)
			if err != nil {
				return fmt.Errorf("run %d (seed %d): %w", idx, seed, err)
			}
			cfgCopy := cfg
			cfgCopy.Seed = seed
			res, err := s.Run(gctx, cfgCopy)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("run %d (seed %d): %w", idx, seed, err)
			}
			members[idx] = Member{Seed: seed, Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return members, nil
}
