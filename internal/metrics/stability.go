package metrics

import (
	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/sim"
)

// Momentum is the magnitude of the total linear momentum.
type Momentum struct {
	name  string
	value float64
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(st *sim.State, _ sim.StepReport) {
	var p geom.Vector
	for _, b := range st.Bodies() {
		p = p.Add(b.Momentum())
	}
	m.value = p.Len()
}

func (m *Momentum) Value() float64 { return m.value }
func (m *Momentum) Reset()         { m.value = 0 }

// Counter accumulates one integer field of every step report.
type Counter struct {
	name  string
	count func(sim.StepReport) int
	total int
}

func NewMerges() *Counter {
	return &Counter{name: "merges", count: func(r sim.StepReport) int { return r.Merges }}
}

func NewEscaped() *Counter {
	return &Counter{name: "escaped", count: func(r sim.StepReport) int { return len(r.Escaped) }}
}

func (c *Counter) Name() string { return c.name }

func (c *Counter) Observe(_ *sim.State, rep sim.StepReport) {
	c.total += c.count(rep)
}

func (c *Counter) Value() float64 { return float64(c.total) }
func (c *Counter) Reset()         { c.total = 0 }

// Stability is the fraction of observed states reached without losing a
// body to escape or fusion.
type Stability struct {
	name       string
	violations int
	samples    int
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(_ *sim.State, rep sim.StepReport) {
	s.samples++
	if len(rep.Escaped) > 0 || rep.Merges > 0 {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
