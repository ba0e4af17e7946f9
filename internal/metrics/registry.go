package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/gravsim/internal/sim"
)

var registry = map[string]func() sim.Metric{
	"kinetic_energy":   func() sim.Metric { return NewKineticEnergy() },
	"potential_energy": func() sim.Metric { return NewPotentialEnergy() },
	"energy_drift":     func() sim.Metric { return NewEnergyDrift() },
	"virial_ratio":     func() sim.Metric { return NewVirialRatio() },
	"momentum":         func() sim.Metric { return NewMomentum() },
	"merges":           func() sim.Metric { return NewMerges() },
	"escaped":          func() sim.Metric { return NewEscaped() },
	"stability":        func() sim.Metric { return NewStability() },
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName returns fresh instances of the named metrics.
func ByName(names ...string) ([]sim.Metric, error) {
	ms := make([]sim.Metric, 0, len(names))
	for _, n := range names {
		f, ok := registry[n]
		if !ok {
			return nil, fmt.Errorf("unknown metric: %s", n)
		}
		ms = append(ms, f())
	}
	return ms, nil
}

// All returns a fresh instance of every metric.
func All() []sim.Metric {
	ms, _ := ByName(Names()...)
	return ms
}
