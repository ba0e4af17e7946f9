package scenario

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

var (
	holeColor = colorful.Color{R: 0.35, G: 0.1, B: 0.45}
	coolStar  = colorful.Color{R: 1, G: 0.45, B: 0.3}
	hotStar   = colorful.Color{R: 0.6, G: 0.75, B: 1}
)

// starCluster adds a black hole at the center of sub and n stars normally
// distributed around it, flattened in z, each on 0.6 of the circular
// speed around the hole with a normal z velocity.
func starCluster(pop *population, n int, sub geom.Cube) error {
	rng := pop.rng
	c := sub.Center()
	holeMass := SolarMass + SolarMass*float64(rng.Intn(1_000_000))*rng.Float64()
	if !pop.add("", holeMass, 0, c, geom.Zero, holeColor) {
		return fmt.Errorf("%w: cluster center %v", ErrPlacement, c)
	}

	sxy, sz := sub.Edge/8, sub.Edge/12
	return pop.fill(n, func() bool {
		pos := c.Add(geom.Vec(rng.NormFloat64()*sxy, rng.NormFloat64()*sxy, rng.NormFloat64()*sz))
		if !sub.Contains(pos) {
			return false
		}
		dir, ok := tangential(c, pos)
		if !ok {
			return false
		}
		rxy := math.Hypot(pos.X()-c.X(), pos.Y()-c.Y())
		vel := dir.Scale(0.6 * circularSpeed(holeMass, rxy)).Add(geom.Vec(0, 0, rng.NormFloat64()*1e5))

		m := math.Abs(rng.NormFloat64())*3*SolarMass + 0.06*SolarMass
		radius := SolarRadius * math.Cbrt(m/SolarMass)
		t := math.Min(1, m/(6*SolarMass))
		return pop.add("", m, radius, pos, vel, coolStar.BlendLuv(hotStar, t).Clamped())
	})
}

type cluster struct {
	p Params
}

func (g *cluster) Generate(n int, cube geom.Cube) ([]*nbody.Body, error) {
	pop := newPopulation(g.p, cube, n+1)
	if err := starCluster(pop, n, cube); err != nil {
		return nil, err
	}
	return pop.bodies, nil
}

// dispersedClusters splits n stars between several clusters, each in a
// random sub-cube between a tenth and half of the edge that lies wholly
// inside the cube.
type dispersedClusters struct {
	p Params
}

func (g *dispersedClusters) Generate(n int, cube geom.Cube) ([]*nbody.Body, error) {
	pop := newPopulation(g.p, cube, n+n/50+2)
	rng := pop.rng

	k := min(max(n, 1), 2+rng.Intn(max(1, n/100)))
	sizes := make([]int, k)
	for i := 0; i < n; i++ {
		sizes[rng.Intn(k)]++
	}

	for _, size := range sizes {
		edge := cube.Edge * (0.1 + 0.4*rng.Float64())
		room := cube.Edge - edge
		corner := cube.Corner.Add(geom.Vec(rng.Float64()*room, rng.Float64()*room, rng.Float64()*room))
		if err := starCluster(pop, size, geom.NewCube(corner, edge)); err != nil {
			return nil, err
		}
	}
	return pop.bodies, nil
}
