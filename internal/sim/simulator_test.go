package sim

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

const (
	au      = 1.5e11
	sunMass = 1.989e30
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Steps = 10
	cfg.Workers = 2
	cfg.SnapshotEvery = 0
	return cfg
}

func sunAndEarth(timescale float64) ([]*nbody.Body, geom.Cube) {
	cube := geom.CenteredCube(geom.Zero, 4*au)
	v := math.Sqrt(nbody.G * sunMass / au)
	return []*nbody.Body{
		nbody.NewBody(1, "sun", sunMass, 7e8, geom.Zero, geom.Zero, timescale),
		nbody.NewBody(2, "earth", 5.97e24, 6.4e6, geom.Vec(au, 0, 0), geom.Vec(0, v, 0), timescale),
	}, cube
}

func randomBodies(n int, cube geom.Cube, seed uint64) []*nbody.Body {
	rng := rand.New(rand.NewSource(seed))
	bodies := make([]*nbody.Body, n)
	for i := range bodies {
		p := cube.Corner.Add(geom.Vec(rng.Float64(), rng.Float64(), rng.Float64()).Scale(cube.Edge))
		bodies[i] = nbody.NewBody(int64(i+1), "", sunMass*(0.5+rng.Float64()), 1, p, geom.Zero, 100)
	}
	return bodies
}

type countingObserver struct {
	steps []int
}

func (o *countingObserver) OnStep(st *State, rep StepReport) {
	o.steps = append(o.steps, st.Step)
}

type bodyCount struct {
	last float64
}

func (m *bodyCount) Name() string                      { return "bodies" }
func (m *bodyCount) Observe(st *State, rep StepReport) { m.last = float64(st.Index.Len()) }
func (m *bodyCount) Value() float64                    { return m.last }
func (m *bodyCount) Reset()                            { m.last = 0 }

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("construction", func() {
		DescribeTable("rejects invalid configs",
			func(mod func(*Config)) {
				cfg := testConfig()
				mod(&cfg)
				_, err := New(cfg)
				Expect(err).To(MatchError(ErrInvalidConfig))
			},
			Entry("negative steps", func(c *Config) { c.Steps = -1 }),
			Entry("zero timescale", func(c *Config) { c.Timescale = 0 }),
			Entry("zero theta", func(c *Config) { c.Theta = 0 }),
			Entry("zero depth", func(c *Config) { c.MaxDepth = 0 }),
			Entry("no workers", func(c *Config) { c.Workers = 0 }),
			Entry("unknown escape policy", func(c *Config) { c.Escape = "bounce" }),
		)

		It("rejects unknown solvers", func() {
			cfg := testConfig()
			cfg.Solver = "fmm"
			_, err := New(cfg)
			Expect(err).To(MatchError(ErrUnknownSolver))
		})

		It("rejects invalid and duplicate bodies", func() {
			s, err := New(testConfig())
			Expect(err).NotTo(HaveOccurred())
			bodies, cube := sunAndEarth(100)

			bodies[1].Mass = 0
			_, _, err = s.NewState(bodies, cube)
			Expect(err).To(MatchError(nbody.ErrInvalidBody))

			bodies, _ = sunAndEarth(100)
			bodies[1].ID = bodies[0].ID
			bodies[1].Position = bodies[0].Position
			_, _, err = s.NewState(bodies, cube)
			Expect(err).To(MatchError(nbody.ErrDuplicateIdentity))
		})

		It("rejects a repeated identity placed far from the first", func() {
			s, err := New(testConfig())
			Expect(err).NotTo(HaveOccurred())

			bodies := []*nbody.Body{
				nbody.NewBody(1, "a", 10, 1, geom.Vec(100, 100, 100), geom.Zero, 1),
				nbody.NewBody(2, "b", 10, 1, geom.Vec(500, 100, 100), geom.Zero, 1),
				nbody.NewBody(1, "c", 10, 1, geom.Vec(900, 900, 900), geom.Zero, 1),
			}
			_, _, err = s.NewState(bodies, geom.NewCube(geom.Zero, 1000))
			Expect(err).To(MatchError(nbody.ErrDuplicateIdentity))
		})
	})

	Describe("a single step", func() {
		It("computes forces from the old positions before moving anything", func() {
			s, err := New(testConfig())
			Expect(err).NotTo(HaveOccurred())

			cube := geom.NewCube(geom.Zero, 1e6)
			a := nbody.NewBody(1, "a", 1e20, 1, geom.Vec(2e5, 5e5, 5e5), geom.Zero, 10)
			b := nbody.NewBody(2, "b", 3e20, 1, geom.Vec(8e5, 5e5, 5e5), geom.Zero, 10)
			st, _, err := s.NewState([]*nbody.Body{a, b}, cube)
			Expect(err).NotTo(HaveOccurred())

			next, rep, err := s.Step(ctx, st)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Step).To(Equal(1))
			Expect(rep.Bodies).To(Equal(2))
			Expect(next.Step).To(Equal(1))
			Expect(next.Time).To(BeNumerically("==", testConfig().Timescale))

			f := nbody.G * 1e20 * 3e20 / (6e5 * 6e5)
			va := f / 1e20 * 10
			vb := -f / 3e20 * 10
			Expect(a.Velocity.X()).To(BeNumerically("~", va, va*1e-12))
			Expect(b.Velocity.X()).To(BeNumerically("~", vb, -vb*1e-12))
			Expect(a.Position.X()).To(BeNumerically("~", 2e5+va*10, 1e-6))
			Expect(b.Position.X()).To(BeNumerically("~", 8e5+vb*10, 1e-6))
			Expect(next.Index.TotalMass()).To(Equal(4e20))
		})
	})

	Describe("a two-body orbit", func() {
		It("stays on a near-circular orbit for a year", func() {
			cfg := testConfig()
			cfg.Steps = 24 * 365
			cfg.Timescale = 3600
			cfg.Verify = true
			s, err := New(cfg)
			Expect(err).NotTo(HaveOccurred())

			bodies, cube := sunAndEarth(cfg.Timescale)
			res, err := s.Run(ctx, bodies, cube)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(cfg.Steps))
			Expect(res.Escaped).To(BeEmpty())

			var earth *nbody.Body
			for _, b := range res.Final.Bodies() {
				if b.ID == 2 {
					earth = b
				}
			}
			Expect(earth).NotTo(BeNil())
			r := earth.Position.Distance(bodies[0].Position)
			Expect(r).To(BeNumerically("~", au, 0.02*au))
		})
	})

	Describe("escape handling", func() {
		runaway := func() ([]*nbody.Body, geom.Cube) {
			bodies, cube := sunAndEarth(3600)
			bodies[1].Velocity = geom.Vec(1e9, 0, 0)
			return bodies, cube
		}

		It("drops bodies that leave the cube", func() {
			s, err := New(testConfig())
			Expect(err).NotTo(HaveOccurred())
			bodies, cube := runaway()

			res, err := s.Run(ctx, bodies, cube)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Escaped).To(ConsistOf(int64(2)))
			Expect(res.Final.Index.Len()).To(Equal(1))
			Expect(res.Final.Index.TotalMass()).To(Equal(sunMass))
		})

		It("fails the step under the fail policy", func() {
			cfg := testConfig()
			cfg.Escape = EscapeFail
			s, err := New(cfg)
			Expect(err).NotTo(HaveOccurred())
			bodies, cube := runaway()

			res, err := s.Run(ctx, bodies, cube)
			Expect(err).To(MatchError(nbody.ErrOutOfBounds))
			var se *StepError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(1))
			Expect(res.StepsTaken).To(Equal(0))
		})
	})

	Describe("depth cap", func() {
		It("fuses bodies that cannot be separated and reports it", func() {
			cfg := testConfig()
			cfg.MaxDepth = 3
			s, err := New(cfg)
			Expect(err).NotTo(HaveOccurred())

			cube := geom.NewCube(geom.Zero, 1e6)
			a := nbody.NewBody(1, "", 1e10, 1, geom.Vec(1000, 1000, 1000), geom.Vec(1, 0, 0), 1)
			b := nbody.NewBody(2, "", 1e10, 1, geom.Vec(1001, 1000, 1000), geom.Vec(-1, 0, 0), 1)
			res, err := s.Run(ctx, []*nbody.Body{a, b}, cube)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Merges).To(Equal(1))
			Expect(res.Final.Bodies()).To(HaveLen(1))
			Expect(res.Final.Bodies()[0].Mass).To(Equal(2e10))
		})
	})

	Describe("solvers", func() {
		It("agree when the tree never approximates", func() {
			cube := geom.NewCube(geom.Zero, 1e12)
			var forces [][]geom.Vector
			for _, name := range SolverNames() {
				sv, err := NewSolver(name, 3)
				Expect(err).NotTo(HaveOccurred())
				ix := nbody.NewIndex(cube, nbody.WithTheta(math.Inf(1)))
				for _, b := range randomBodies(200, cube, 9) {
					Expect(ix.Insert(b)).To(Succeed())
				}
				Expect(sv.Accumulate(ctx, ix)).To(Succeed())

				fs := make([]geom.Vector, ix.Len())
				for i, b := range ix.Bodies() {
					fs[i] = b.Force
				}
				forces = append(forces, fs)
			}
			for i := range forces[0] {
				ref := forces[0][i]
				for _, fs := range forces[1:] {
					Expect(fs[i].Sub(ref).Len()).To(BeNumerically("<=", 1e-9*ref.Len()))
				}
			}
		})

		It("keep tree trajectories within 5% of the exact sum over 10 steps", func() {
			cube := geom.NewCube(geom.Zero, 1e12)
			initial := randomBodies(1000, cube, 21)
			start := make(map[int64]geom.Vector, len(initial))
			for _, b := range initial {
				start[b.ID] = b.Position
			}

			final := func(solver string) map[int64]geom.Vector {
				cfg := testConfig()
				cfg.Solver = solver
				s, err := New(cfg)
				Expect(err).NotTo(HaveOccurred())
				bodies := make([]*nbody.Body, len(initial))
				for i, b := range initial {
					bodies[i] = b.Clone()
				}
				res, err := s.Run(ctx, bodies, cube)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.StepsTaken).To(Equal(10))
				out := make(map[int64]geom.Vector, res.Final.Index.Len())
				for _, b := range res.Final.Bodies() {
					out[b.ID] = b.Position
				}
				return out
			}
			tree, exact := final(SolverTree), final(SolverDirect)
			Expect(tree).To(HaveLen(len(exact)))

			var diff, total float64
			for id, p := range exact {
				moved := p.Sub(start[id])
				diff += tree[id].Sub(start[id]).Sub(moved).Len()
				total += moved.Len()
			}
			Expect(total).To(BeNumerically(">", 0))
			Expect(diff / total).To(BeNumerically("<", 0.05))
		})
	})

	Describe("runs", func() {
		It("notifies observers and metrics for every state", func() {
			cfg := testConfig()
			cfg.Steps = 12
			cfg.SnapshotEvery = 5
			s, err := New(cfg)
			Expect(err).NotTo(HaveOccurred())
			obs := &countingObserver{}
			s.AddObserver(obs)
			s.AddMetric(&bodyCount{})

			bodies, cube := sunAndEarth(100)
			res, err := s.Run(ctx, bodies, cube)
			Expect(err).NotTo(HaveOccurred())
			Expect(obs.steps).To(HaveLen(13))
			Expect(obs.steps[0]).To(Equal(0))
			Expect(res.Series["bodies"]).To(HaveLen(13))
			Expect(res.Metrics["bodies"]).To(Equal(2.0))

			var steps []int
			for _, snap := range res.Snapshots {
				steps = append(steps, snap.Step)
			}
			Expect(steps).To(Equal([]int{0, 5, 10, 12}))
		})

		It("stops when the context is canceled", func() {
			s, err := New(testConfig())
			Expect(err).NotTo(HaveOccurred())
			canceled, cancel := context.WithCancel(ctx)
			cancel()

			bodies, cube := sunAndEarth(100)
			res, err := s.Run(canceled, bodies, cube)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.StepsTaken).To(Equal(0))
			Expect(res.Final).NotTo(BeNil())
		})

		It("reuses index arenas between steps", func() {
			s, err := New(testConfig())
			Expect(err).NotTo(HaveOccurred())
			bodies, cube := sunAndEarth(100)
			st, _, err := s.NewState(bodies, cube)
			Expect(err).NotTo(HaveOccurred())

			p := s.Stepper(st)
			first, _, err := p.Next(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, _, err = p.Next(ctx)
			Expect(err).NotTo(HaveOccurred())
			third, _, err := p.Next(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(third.Index).To(BeIdenticalTo(first.Index))
			Expect(third.Step).To(Equal(3))
		})
	})

	Describe("Ensemble", func() {
		It("runs every seed independently", func() {
			cfg := testConfig()
			cfg.Workers = 4
			e := NewEnsemble(cfg, 3, 100)
			cube := geom.NewCube(geom.Zero, 1e12)

			results, err := e.Run(ctx, func(seed int64) ([]*nbody.Body, geom.Cube, []Metric, error) {
				return randomBodies(20, cube, uint64(seed)), cube, []Metric{&bodyCount{}}, nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for _, r := range results {
				Expect(r.StepsTaken).To(Equal(cfg.Steps))
				Expect(r.Metrics).To(HaveKey("bodies"))
			}
			Expect(results[0].Final.Bodies()[0].Position).NotTo(Equal(results[1].Final.Bodies()[0].Position))
		})

		It("reports setup failures with the seed", func() {
			e := NewEnsemble(testConfig(), 2, 7)
			_, err := e.Run(ctx, func(seed int64) ([]*nbody.Body, geom.Cube, []Metric, error) {
				return nil, geom.Cube{}, nil, errors.New("boom")
			})
			Expect(err).To(MatchError(ContainSubstring("seed")))
		})
	})
})
