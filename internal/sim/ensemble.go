package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

// Setup produces the initial bodies, cube and metrics of one ensemble
// member from its seed.
type Setup func(seed int64) ([]*nbody.Body, geom.Cube, []Metric, error)

// Ensemble runs independent simulations with consecutive seeds. Each
// member gets its own Simulator and metric instances; they share nothing.
type Ensemble struct {
	cfg       Config
	opts      []Option
	numRuns   int
	seedStart int64
}

func NewEnsemble(cfg Config, numRuns int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{cfg: cfg, opts: opts, numRuns: numRuns, seedStart: seedStart}
}

// Run splits the configured workers between members so the ensemble as a
// whole does not oversubscribe the machine.
func (e *Ensemble) Run(ctx context.Context, setup Setup) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	cfg := e.cfg
	cfg.Workers = max(1, cfg.Workers/max(1, e.numRuns))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.cfg.Workers))
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			seed := e.seedStart + int64(i)
			bodies, cube, metrics, err := setup(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			s, err := New(cfg, e.opts...)
			if err != nil {
				return err
			}
			for _, m := range metrics {
				s.AddMetric(m)
			}
			res, err := s.Run(ctx, bodies, cube)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
