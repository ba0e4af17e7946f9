package scenario

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

const (
	beltInner = 2.2 * AU
	beltOuter = 3.2 * AU
)

var sunColor = colorful.Color{R: 1, G: 0.9, B: 0.1}

// belt places n rocks at a uniform angle and distance between the belt
// radii with a thin normal spread in z. velocity maps a rock's position
// and angle to its initial velocity.
func belt(pop *population, n int, velocity func(pos geom.Vector, angle float64) geom.Vector) error {
	c := pop.cube.Center()
	rng := pop.rng
	return pop.fill(n, func() bool {
		angle := rng.Float64() * 2 * math.Pi
		dist := beltInner + rng.Float64()*(beltOuter-beltInner)
		pos := c.Add(geom.Vec(math.Cos(angle)*dist, math.Sin(angle)*dist, rng.NormFloat64()*1e4))
		radius := rng.Float64()*10e3 + 50
		shade := colorful.Hsv(30, 0.25, 0.45+0.4*rng.Float64())
		return pop.add("", rockMass(radius), radius, pos, velocity(pos, angle), shade)
	})
}

type asteroidBelt struct {
	p Params
}

func (g *asteroidBelt) Generate(n int, cube geom.Cube) ([]*nbody.Body, error) {
	pop := newPopulation(g.p, cube, n+1)
	c := cube.Center()
	if !pop.add("Sol", SolarMass, SolarRadius, c, geom.Zero, sunColor) {
		return nil, ErrPlacement
	}
	err := belt(pop, n, func(pos geom.Vector, _ float64) geom.Vector {
		dir, ok := tangential(c, pos)
		if !ok {
			return geom.Zero
		}
		return dir.Scale(circularSpeed(SolarMass, pos.Sub(c).Len()))
	})
	if err != nil {
		return nil, err
	}
	return pop.bodies, nil
}

const (
	ringSunMass = 2e31
	ringSpeed   = 29.8e3
)

// ring throws a belt around a sun ten times heavier than ours at a fixed
// speed whose direction mirrors the position angle, so the belt folds into
// spiral arms instead of orbiting.
type ring struct {
	p Params
}

func (g *ring) Generate(n int, cube geom.Cube) ([]*nbody.Body, error) {
	pop := newPopulation(g.p, cube, n+1)
	if !pop.add("Sol", ringSunMass, SolarRadius, cube.Center(), geom.Zero, sunColor) {
		return nil, ErrPlacement
	}
	err := belt(pop, n, func(_ geom.Vector, angle float64) geom.Vector {
		return geom.Vec(-math.Cos(angle), math.Sin(angle), 0).Scale(ringSpeed)
	})
	if err != nil {
		return nil, err
	}
	return pop.bodies, nil
}
