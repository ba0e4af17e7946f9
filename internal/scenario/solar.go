package scenario

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/gravsim/internal/geom"
	"github.com/san-kum/gravsim/internal/nbody"
)

type planet struct {
	name   string
	mass   float64
	radius float64
	x      float64 // distance along x from the sun
	vy     float64 // orbital speed along y
	color  colorful.Color
}

// Planets start on the x axis. Earth sits at perihelion; the others are
// placed opposite at aphelion and orbit in the same sense.
var planets = []planet{
	{"Mercury", 3.301e23, 2439.7e3, -46.0e9, -47.87e3, colorful.Color{R: 0.8, G: 0.2, B: 0.2}},
	{"Venus", 4.876e24, 6051.8e3, -107.0e9, -35e3, colorful.Color{R: 0.96, G: 0.5, B: 0.14}},
	{"Earth", 5.972e24, 6371e3, 148e9, 29.29e3, colorful.Color{R: 0.2, G: 0.4, B: 1}},
	{"Mars", 6.39e23, 3389.5e3, -205.0e9, -24.1e3, colorful.Color{R: 0.6, G: 0.1, B: 0.1}},
	{"Jupiter", 1.898e27, 69911e3, -741.0e9, -13.1e3, colorful.Color{R: 0.8, G: 0.8, B: 0.8}},
	{"Saturn", 5.683e26, 58232e3, -135.0e10, -9.6e3, colorful.Color{R: 0.5, G: 0.5, B: 0.5}},
	{"Uranus", 8.681e25, 25362e3, -275.0e10, -6.8e3, colorful.Color{R: 0.55, G: 0.8, B: 0.95}},
	{"Neptune", 1.024e26, 24622e3, -445.0e10, -5.4e3, colorful.Color{R: 0.1, G: 0.3, B: 0.7}},
}

type solarSystem struct {
	p Params
}

// Generate ignores n; the solar system always has nine bodies.
func (g *solarSystem) Generate(_ int, cube geom.Cube) ([]*nbody.Body, error) {
	pop := newPopulation(g.p, cube, len(planets)+1)
	c := cube.Center()
	if !pop.add("Sol", SolarMass, SolarRadius, c, geom.Zero, colorful.Color{R: 1, G: 0.9, B: 0.1}) {
		return nil, ErrPlacement
	}
	for _, pl := range planets {
		pos := c.Add(geom.Vec(pl.x, 0, 0))
		if !pop.add(pl.name, pl.mass, pl.radius, pos, geom.Vec(0, pl.vy, 0), pl.color) {
			return nil, ErrPlacement
		}
	}
	return pop.bodies, nil
}
