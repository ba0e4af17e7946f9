package sim

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

const (
	SolverTree   = "tree"
	SolverDirect = "direct"
	SolverGonum  = "gonum"
)

// Solver fills the force accumulator of every body held by an index.
type Solver interface {
	Name() string
	Accumulate(ctx context.Context, ix *nbody.Index) error
}

var solvers = map[string]func(workers int) Solver{
	SolverTree:   func(w int) Solver { return &TreeSolver{Workers: w} },
	SolverDirect: func(w int) Solver { return &DirectSolver{Workers: w} },
	SolverGonum:  func(w int) Solver { return &GonumSolver{Workers: w} },
}

func NewSolver(name string, workers int) (Solver, error) {
	f, ok := solvers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSolver, name)
	}
	return f(max(workers, 1)), nil
}

func SolverNames() []string {
	names := make([]string, 0, len(solvers))
	for n := range solvers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TreeSolver walks the octree once per body.
type TreeSolver struct {
	Workers int
}

func (s *TreeSolver) Name() string { return SolverTree }

func (s *TreeSolver) Accumulate(ctx context.Context, ix *nbody.Index) error {
	bodies := ix.Bodies()
	return parallelFor(ctx, len(bodies), s.Workers, func(lo, hi int) {
		for _, b := range bodies[lo:hi] {
			b.ResetForce()
			b.AccumulateForce(ix)
		}
	})
}

// DirectSolver sums every pair exactly.
type DirectSolver struct {
	Workers int
}

func (s *DirectSolver) Name() string { return SolverDirect }

func (s *DirectSolver) Accumulate(ctx context.Context, ix *nbody.Index) error {
	bodies := ix.Bodies()
	return parallelFor(ctx, len(bodies), s.Workers, func(lo, hi int) {
		for _, b := range bodies[lo:hi] {
			b.ResetForce()
			b.DirectForce(bodies)
		}
	})
}

// GonumSolver delegates to gonum's Barnes-Hut volume. It ignores the
// octree's structure and uses it only as the body list and for theta.
type GonumSolver struct {
	Workers int
}

func (s *GonumSolver) Name() string { return SolverGonum }

type particle struct {
	b *nbody.Body
}

func (p *particle) Coord3() r3.Vec {
	return r3.Vec{X: p.b.Position.X(), Y: p.b.Position.Y(), Z: p.b.Position.Z()}
}

func (p *particle) Mass() float64 { return p.b.Mass }

func (s *GonumSolver) Accumulate(ctx context.Context, ix *nbody.Index) error {
	bodies := ix.Bodies()
	ps := make([]barneshut.Particle3, len(bodies))
	for i, b := range bodies {
		ps[i] = &particle{b: b}
	}
	vol, err := barneshut.NewVolume(ps)
	if err != nil {
		return fmt.Errorf("build volume: %w", err)
	}

	// gonum approximates when edge/distance falls below its theta, the
	// reciprocal of the ratio used by the octree.
	theta := 1 / ix.Theta()
	return parallelFor(ctx, len(bodies), s.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f := vol.ForceOn(ps[i], theta, barneshut.Gravity3)
			bodies[i].Force = geom.Vec(f.X, f.Y, f.Z).Scale(nbody.G)
		}
	})
}
