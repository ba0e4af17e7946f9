package scenario

import (
	"errors"
	"fmt"
	"sort"
)

// Astronomical constants in SI units.
const (
	AU          = 150e9
	LightYear   = 9.461e15
	SolarMass   = 1.989e30
	SolarRadius = 696340e3
)

var (
	ErrUnknownKind = errors.New("scenario: unknown kind")

	// ErrPlacement indicates the generator could not place every body
	// inside the cube, usually because the cube is too small for the kind.
	ErrPlacement = errors.New("scenario: cannot place bodies inside cube")
)

type Kind string

const (
	SolarSystem       Kind = "solar_system"
	AsteroidBelt      Kind = "asteroid_belt"
	Ring              Kind = "ring"
	Cluster           Kind = "cluster"
	DispersedClusters Kind = "dispersed_clusters"
)

// Defaults are the parameters a kind is tuned for.
type Defaults struct {
	Edge        float64 // m
	Timescale   float64 // s per step
	Bodies      int
	Description string
}

var defaults = map[Kind]Defaults{
	SolarSystem:       {Edge: 70 * AU, Timescale: 3 * 3600, Bodies: 9, Description: "the sun and its eight planets"},
	AsteroidBelt:      {Edge: 8 * AU, Timescale: 29600, Bodies: 1000, Description: "a sun with asteroids on circular orbits between 2.2 and 3.2 AU"},
	Ring:              {Edge: 8 * AU, Timescale: 59200, Bodies: 1000, Description: "a heavy sun with a belt thrown at a fixed speed"},
	Cluster:           {Edge: 2 * LightYear, Timescale: 1e8, Bodies: 2000, Description: "a black hole with normally distributed stars"},
	DispersedClusters: {Edge: 5 * LightYear, Timescale: 1e7, Bodies: 2000, Description: "several clusters at random offsets"},
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := defaults[k]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, s)
	}
	return k, nil
}

func DefaultsFor(k Kind) (Defaults, error) {
	d, ok := defaults[k]
	if !ok {
		return Defaults{}, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
	return d, nil
}

func Kinds() []Kind {
	kinds := make([]Kind, 0, len(defaults))
	for k := range defaults {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
