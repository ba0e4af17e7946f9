package sim

import (
	"fmt"
	"runtime"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

// State is the simulation at the end of a step. The index and the bodies
// it holds are only valid until the next step consumes them.
type State struct {
	Index *nbody.Index
	Step  int
	Time  float64 // simulated seconds since the start
}

func (s *State) Bodies() []*nbody.Body { return s.Index.Bodies() }

// StepReport summarizes what happened while building a state.
type StepReport struct {
	Step    int
	Bodies  int
	Merges  int
	Escaped []int64
}

type Metric interface {
	Name() string
	Observe(st *State, rep StepReport)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(st *State, rep StepReport)
}

// EscapePolicy decides what happens to a body that leaves the cube.
type EscapePolicy string

const (
	EscapeDrop EscapePolicy = "drop"
	EscapeFail EscapePolicy = "fail"
)

type Config struct {
	Steps         int
	Timescale     float64 // seconds per step, used for State.Time
	Theta         float64
	MaxDepth      int
	Solver        string
	Workers       int
	Escape        EscapePolicy
	SnapshotEvery int // 0 keeps only the first and last states
	Verify        bool
}

func DefaultConfig() Config {
	return Config{
		Steps:         1000,
		Timescale:     100,
		Theta:         nbody.DefaultTheta,
		MaxDepth:      nbody.DefaultMaxDepth,
		Solver:        SolverTree,
		Workers:       runtime.GOMAXPROCS(0),
		Escape:        EscapeDrop,
		SnapshotEvery: 10,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Steps < 0:
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, c.Steps)
	case !(c.Timescale > 0):
		return fmt.Errorf("%w: timescale must be positive, got %f", ErrInvalidConfig, c.Timescale)
	case !(c.Theta > 0):
		return fmt.Errorf("%w: theta must be positive, got %f", ErrInvalidConfig, c.Theta)
	case c.MaxDepth < 1:
		return fmt.Errorf("%w: max depth must be at least 1, got %d", ErrInvalidConfig, c.MaxDepth)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	case c.SnapshotEvery < 0:
		return fmt.Errorf("%w: snapshot interval must be non-negative, got %d", ErrInvalidConfig, c.SnapshotEvery)
	case c.Escape != EscapeDrop && c.Escape != EscapeFail:
		return fmt.Errorf("%w: escape policy %q", ErrInvalidConfig, c.Escape)
	}
	return nil
}

// BodyState is a copy of the observable part of a body.
type BodyState struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name,omitempty"`
	Mass     float64     `json:"mass"`
	Radius   float64     `json:"radius,omitempty"`
	Position geom.Vector `json:"position"`
	Velocity geom.Vector `json:"velocity"`
}

type Snapshot struct {
	Step   int         `json:"step"`
	Time   float64     `json:"time"`
	Bodies []BodyState `json:"bodies"`
}

// Capture copies every body of st.
func Capture(st *State) Snapshot {
	bodies := st.Bodies()
	snap := Snapshot{Step: st.Step, Time: st.Time, Bodies: make([]BodyState, len(bodies))}
	for i, b := range bodies {
		snap.Bodies[i] = BodyState{
			ID:       b.ID,
			Name:     b.Name,
			Mass:     b.Mass,
			Radius:   b.Radius,
			Position: b.Position,
			Velocity: b.Velocity,
		}
	}
	return snap
}

type Result struct {
	Snapshots  []Snapshot
	Series     map[string][]float64 // one value per observed state
	Metrics    map[string]float64
	StepsTaken int
	Escaped    []int64
	Merges     int
	Final      *State
}
