package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/nbody"
	"github.com/san-kum/gravsim/internal/sim"
)

func kinetic(bodies []*nbody.Body) float64 {
	var k float64
	for _, b := range bodies {
		k += b.KineticEnergy()
	}
	return k
}

// potential sums -G m_i m_j / r_ij over every pair. Coincident pairs are
// skipped, matching the force law.
func potential(bodies []*nbody.Body) float64 {
	var u float64
	for i, a := range bodies {
		for _, b := range bodies[i+1:] {
			r := a.Position.Distance(b.Position)
			if r == 0 {
				continue
			}
			u -= nbody.G * a.Mass * b.Mass / r
		}
	}
	return u
}

type KineticEnergy struct {
	name  string
	value float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(st *sim.State, _ sim.StepReport) {
	e.value = kinetic(st.Bodies())
}

func (e *KineticEnergy) Value() float64 { return e.value }
func (e *KineticEnergy) Reset()         { e.value = 0 }

type PotentialEnergy struct {
	name  string
	value float64
}

func NewPotentialEnergy() *PotentialEnergy {
	return &PotentialEnergy{name: "potential_energy"}
}

func (e *PotentialEnergy) Name() string { return e.name }

func (e *PotentialEnergy) Observe(st *sim.State, _ sim.StepReport) {
	e.value = potential(st.Bodies())
}

func (e *PotentialEnergy) Value() float64 { return e.value }
func (e *PotentialEnergy) Reset()         { e.value = 0 }

// EnergyDrift tracks the largest relative deviation of total energy from
// the first observed state.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(st *sim.State, _ sim.StepReport) {
	bodies := st.Bodies()
	total := kinetic(bodies) + potential(bodies)
	e.samples++
	if e.samples == 1 {
		e.initialEnergy = total
		return
	}
	if e.initialEnergy == 0 {
		return
	}
	drift := math.Abs(total-e.initialEnergy) / math.Abs(e.initialEnergy)
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// VirialRatio is 2K/|U|; a self-gravitating system in equilibrium sits
// near 1.
type VirialRatio struct {
	name  string
	value float64
}

func NewVirialRatio() *VirialRatio {
	return &VirialRatio{name: "virial_ratio"}
}

func (v *VirialRatio) Name() string { return v.name }

func (v *VirialRatio) Observe(st *sim.State, _ sim.StepReport) {
	bodies := st.Bodies()
	u := potential(bodies)
	if u == 0 {
		v.value = 0
		return
	}
	v.value = 2 * kinetic(bodies) / math.Abs(u)
}

func (v *VirialRatio) Value() float64 { return v.value }
func (v *VirialRatio) Reset()         { v.value = 0 }
