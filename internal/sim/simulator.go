package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

type Simulator struct {
	cfg       Config
	solver    Solver
	metrics   []Metric
	observers []Observer
	log       *slog.Logger
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// WithSolver overrides the solver named in the config.
func WithSolver(sv Solver) Option {
	return func(s *Simulator) { s.solver = sv }
}

func New(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:       cfg,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.solver == nil {
		sv, err := NewSolver(cfg.Solver, cfg.Workers)
		if err != nil {
			return nil, err
		}
		s.solver = sv
	}
	s.log = s.log.With("component", "sim", "solver", s.solver.Name())
	return s, nil
}

func (s *Simulator) Config() Config         { return s.cfg }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) newIndex(cube geom.Cube, capacity int) *nbody.Index {
	return nbody.NewIndex(cube,
		nbody.WithTheta(s.cfg.Theta),
		nbody.WithMaxDepth(s.cfg.MaxDepth),
		nbody.WithLogger(s.log),
		nbody.WithCapacity(capacity),
	)
}

// NewState validates bodies and indexes them over cube. Bodies starting
// outside the cube are subject to the escape policy; duplicate identities
// are always an error.
func (s *Simulator) NewState(bodies []*nbody.Body, cube geom.Cube) (*State, StepReport, error) {
	var rep StepReport
	seen := make(map[int64]struct{}, len(bodies))
	for _, b := range bodies {
		if err := b.Validate(); err != nil {
			return nil, rep, err
		}
		if _, ok := seen[b.ID]; ok {
			return nil, rep, &nbody.InsertError{BodyID: b.ID, Err: nbody.ErrDuplicateIdentity}
		}
		seen[b.ID] = struct{}{}
	}
	ix := s.newIndex(cube, len(bodies))
	if err := s.fill(ix, bodies, &rep); err != nil {
		return nil, rep, err
	}
	st := &State{Index: ix}
	rep.Bodies, rep.Merges = ix.Len(), ix.Merges()
	return st, rep, nil
}

// Step advances st by one step into a freshly allocated index. The bodies
// of st are moved in place, so st must not be used afterwards.
func (s *Simulator) Step(ctx context.Context, st *State) (*State, StepReport, error) {
	return s.step(ctx, st, s.newIndex(st.Index.Cube(), st.Index.Len()))
}

func (s *Simulator) step(ctx context.Context, st *State, next *nbody.Index) (*State, StepReport, error) {
	rep := StepReport{Step: st.Step + 1}
	fail := func(err error) (*State, StepReport, error) {
		return nil, rep, &StepError{Step: rep.Step, Time: st.Time, Err: err}
	}

	bodies := st.Bodies()
	if err := s.solver.Accumulate(ctx, st.Index); err != nil {
		return fail(err)
	}
	err := parallelFor(ctx, len(bodies), s.cfg.Workers, func(lo, hi int) {
		for _, b := range bodies[lo:hi] {
			b.Move(b.Force)
		}
	})
	if err != nil {
		return fail(err)
	}

	next.Reset(st.Index.Cube())
	if err := s.fill(next, bodies, &rep); err != nil {
		return fail(err)
	}
	if s.cfg.Verify {
		if err := next.Verify(1e-9); err != nil {
			return fail(err)
		}
	}

	rep.Bodies, rep.Merges = next.Len(), next.Merges()
	if rep.Merges > 0 {
		s.log.Debug("bodies fused", "step", rep.Step, "merges", rep.Merges)
	}
	return &State{Index: next, Step: rep.Step, Time: st.Time + s.cfg.Timescale}, rep, nil
}

func (s *Simulator) fill(ix *nbody.Index, bodies []*nbody.Body, rep *StepReport) error {
	for _, b := range bodies {
		err := ix.Insert(b)
		switch {
		case err == nil:
		case errors.Is(err, nbody.ErrOutOfBounds) && s.cfg.Escape == EscapeDrop:
			rep.Escaped = append(rep.Escaped, b.ID)
			s.log.Warn("body left the simulation cube",
				"body", b.ID,
				"step", rep.Step,
				"position", b.Position.String(),
			)
		default:
			return err
		}
	}
	return nil
}

// Run indexes bodies over cube and advances them cfg.Steps times.
func (s *Simulator) Run(ctx context.Context, bodies []*nbody.Body, cube geom.Cube) (*Result, error) {
	st, rep, err := s.NewState(bodies, cube)
	if err != nil {
		return nil, err
	}
	return s.RunFrom(ctx, st, rep)
}

// RunFrom advances an existing state cfg.Steps times.
func (s *Simulator) RunFrom(ctx context.Context, st *State, initial StepReport) (*Result, error) {
	result := &Result{
		Series:  make(map[string][]float64),
		Metrics: make(map[string]float64),
		Escaped: append([]int64(nil), initial.Escaped...),
		Merges:  initial.Merges,
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.observe(result, st, initial)
	result.Snapshots = append(result.Snapshots, Capture(st))
	s.log.Info("run started", "bodies", st.Index.Len(), "steps", s.cfg.Steps, "theta", s.cfg.Theta)

	p := s.Stepper(st)
	for i := 0; i < s.cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			result.Final = p.State()
			return result, ctx.Err()
		default:
		}

		next, rep, err := p.Next(ctx)
		if err != nil {
			result.Final = p.State()
			return result, err
		}
		st = next

		result.StepsTaken++
		result.Escaped = append(result.Escaped, rep.Escaped...)
		result.Merges += rep.Merges
		s.observe(result, st, rep)

		if s.cfg.SnapshotEvery > 0 && st.Step%s.cfg.SnapshotEvery == 0 {
			result.Snapshots = append(result.Snapshots, Capture(st))
		}
		if st.Index.Len() == 0 {
			s.log.Warn("every body escaped, stopping early", "step", st.Step)
			break
		}
	}

	if last := result.Snapshots[len(result.Snapshots)-1]; last.Step != st.Step {
		result.Snapshots = append(result.Snapshots, Capture(st))
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Final = st
	s.log.Info("run finished",
		"steps", result.StepsTaken,
		"bodies", st.Index.Len(),
		"escaped", len(result.Escaped),
		"merges", result.Merges,
	)
	return result, nil
}

func (s *Simulator) observe(result *Result, st *State, rep StepReport) {
	for _, m := range s.metrics {
		m.Observe(st, rep)
		result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
	}
	for _, obs := range s.observers {
		obs.OnStep(st, rep)
	}
}

// Stepper advances a state repeatedly, alternating two indexes so that
// each step reuses the arena of the state two steps back.
type Stepper struct {
	s     *Simulator
	st    *State
	spare *nbody.Index
}

func (s *Simulator) Stepper(st *State) *Stepper {
	return &Stepper{s: s, st: st, spare: s.newIndex(st.Index.Cube(), st.Index.Len())}
}

// State is the most recent state. It stays valid until the second call to
// Next after it was produced.
func (p *Stepper) State() *State { return p.st }

func (p *Stepper) Next(ctx context.Context) (*State, StepReport, error) {
	prev := p.st
	next, rep, err := p.s.step(ctx, prev, p.spare)
	if err != nil {
		return nil, rep, err
	}
	p.st, p.spare = next, prev.Index
	return next, rep, nil
}

// String describes the solver and its parameters.
func (s *Simulator) String() string {
	return fmt.Sprintf("%s solver, theta=%g, max depth=%d, %d workers",
		s.solver.Name(), s.cfg.Theta, s.cfg.MaxDepth, s.cfg.Workers)
}
