package scenario

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/rand"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

// Generator produces an initial population inside a cube. Identities are
// assigned sequentially from 1. The same generator always produces the
// same population for the same arguments.
type Generator interface {
	Generate(n int, cube geom.Cube) ([]*nbody.Body, error)
}

type Params struct {
	Seed      int64
	Timescale float64 // 0 selects the kind's default
}

func New(k Kind, p Params) (Generator, error) {
	d, err := DefaultsFor(k)
	if err != nil {
		return nil, err
	}
	if p.Timescale == 0 {
		p.Timescale = d.Timescale
	}
	if !(p.Timescale > 0) {
		return nil, fmt.Errorf("scenario: timescale must be positive, got %f", p.Timescale)
	}
	switch k {
	case SolarSystem:
		return &solarSystem{p}, nil
	case AsteroidBelt:
		return &asteroidBelt{p}, nil
	case Ring:
		return &ring{p}, nil
	case Cluster:
		return &cluster{p}, nil
	default:
		return &dispersedClusters{p}, nil
	}
}

// maxAttemptsPerBody bounds rejection sampling.
const maxAttemptsPerBody = 100

// population accumulates bodies, rejecting any that fall outside the cube.
type population struct {
	rng       *rand.Rand
	cube      geom.Cube
	timescale float64
	nextID    int64
	bodies    []*nbody.Body
}

func newPopulation(p Params, cube geom.Cube, capacity int) *population {
	return &population{
		rng:       rand.New(rand.NewSource(uint64(p.Seed))),
		cube:      cube,
		timescale: p.Timescale,
		nextID:    1,
		bodies:    make([]*nbody.Body, 0, capacity),
	}
}

func (pop *population) add(name string, mass, radius float64, pos, vel geom.Vector, c colorful.Color) bool {
	if !pop.cube.Contains(pos) {
		return false
	}
	b := nbody.NewBody(pop.nextID, name, mass, radius, pos, vel, pop.timescale)
	b.Color = c
	pop.nextID++
	pop.bodies = append(pop.bodies, b)
	return true
}

// fill calls next until it has added n bodies.
func (pop *population) fill(n int, next func() bool) error {
	for added, tries := 0, 0; added < n; tries++ {
		if tries >= maxAttemptsPerBody*n {
			return fmt.Errorf("%w: placed %d of %d in %v", ErrPlacement, added, n, pop.cube)
		}
		if next() {
			added++
		}
	}
	return nil
}

// tangential is the counter-clockwise direction, seen from +z, of a
// circular orbit in the xy plane around center through p.
func tangential(center, p geom.Vector) (geom.Vector, bool) {
	d := p.Sub(center)
	r := math.Hypot(d.X(), d.Y())
	if r == 0 {
		return geom.Zero, false
	}
	return geom.Vec(-d.Y()/r, d.X()/r, 0), true
}

func circularSpeed(centralMass, r float64) float64 {
	return math.Sqrt(nbody.G * centralMass / r)
}

// rockMass is the mass of a sphere of density 2000 kg/m^3.
func rockMass(radius float64) float64 {
	return 4.0 / 3.0 * math.Pi * math.Pow(radius, 3) * 2000
}
