package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/logger"
	"github.com/san-kum/gravsim/internal/nbody"
	"github.com/san-kum/gravsim/internal/sim"
)

type benchCase struct {
	solver string
	theta  float64
}

// benchSolvers times every solver on the same population and compares the
// forces of the first step against the exact pairwise sum.
func benchSolvers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.JSON)
	ctx := cmd.Context()

	bodies, cube, err := population(cfg, cfg.Seed)
	if err != nil {
		return err
	}

	base := cfg.Sim()
	base.Escape = sim.EscapeDrop
	base.Verify = false

	ref, err := firstForces(ctx, withSolver(base, benchCase{sim.SolverDirect, base.Theta}), bodies, cube)
	if err != nil {
		return err
	}

	cases := []benchCase{{sim.SolverDirect, base.Theta}}
	for _, th := range benchThetas {
		cases = append(cases, benchCase{sim.SolverTree, th}, benchCase{sim.SolverGonum, th})
	}

	fmt.Printf("benchmarking %s: %d bodies, %d steps, %d workers\n\n", cfg.Scenario, len(bodies), benchSteps, base.Workers)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tTHETA\tSTEPS\tTIME\tSTEPS/SEC\tMEAN ERR\tMAX ERR")

	for _, bc := range cases {
		c := withSolver(base, bc)
		f, err := firstForces(ctx, c, bodies, cube)
		if err != nil {
			return err
		}
		mean, worst := forceError(f, ref)

		elapsed, taken, err := timeSteps(ctx, c, bodies, cube)
		if err != nil {
			return err
		}
		rate := 0.0
		if elapsed > 0 {
			rate = float64(taken) / elapsed.Seconds()
		}
		fmt.Fprintf(w, "%s\t%g\t%d\t%v\t%.1f\t%.2e\t%.2e\n",
			bc.solver, bc.theta, taken, elapsed.Round(time.Microsecond), rate, mean, worst)
	}
	return w.Flush()
}

func withSolver(c sim.Config, bc benchCase) sim.Config {
	c.Solver = bc.solver
	c.Theta = bc.theta
	return c
}

func cloneBodies(bodies []*nbody.Body) []*nbody.Body {
	out := make([]*nbody.Body, len(bodies))
	for i, b := range bodies {
		out[i] = b.Clone()
	}
	return out
}

// firstForces indexes a copy of bodies and returns the force the solver
// of c computes on each of them, by identity.
func firstForces(ctx context.Context, c sim.Config, bodies []*nbody.Body, cube geom.Cube) (map[int64]geom.Vector, error) {
	s, err := sim.New(c)
	if err != nil {
		return nil, err
	}
	st, _, err := s.NewState(cloneBodies(bodies), cube)
	if err != nil {
		return nil, err
	}
	sv, err := sim.NewSolver(c.Solver, c.Workers)
	if err != nil {
		return nil, err
	}
	if err := sv.Accumulate(ctx, st.Index); err != nil {
		return nil, err
	}
	out := make(map[int64]geom.Vector, st.Index.Len())
	for _, b := range st.Bodies() {
		out[b.ID] = b.Force
	}
	return out, nil
}

// forceError returns the mean and maximum relative error of got against
// ref over the bodies present in both with a non-zero reference force.
func forceError(got, ref map[int64]geom.Vector) (mean, worst float64) {
	var n int
	for id, r := range ref {
		g, ok := got[id]
		if !ok || r.Len() == 0 {
			continue
		}
		e := g.Sub(r).Len() / r.Len()
		mean += e
		worst = max(worst, e)
		n++
	}
	if n > 0 {
		mean /= float64(n)
	}
	return mean, worst
}

func timeSteps(ctx context.Context, c sim.Config, bodies []*nbody.Body, cube geom.Cube) (time.Duration, int, error) {
	s, err := sim.New(c)
	if err != nil {
		return 0, 0, err
	}
	st, _, err := s.NewState(cloneBodies(bodies), cube)
	if err != nil {
		return 0, 0, err
	}
	stepper := s.Stepper(st)
	start := time.Now()
	taken := 0
	for ; taken < benchSteps; taken++ {
		next, _, err := stepper.Next(ctx)
		if err != nil {
			return 0, taken, err
		}
		if next.Index.Len() == 0 {
			taken++
			break
		}
	}
	return time.Since(start), taken, nil
}
