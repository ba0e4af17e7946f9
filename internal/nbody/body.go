package nbody

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/gravsim/internal/geom"
)

// G is the gravitational constant in m^3 kg^-1 s^-2.
const G = 6.6743e-11

// Body is a gravitating point mass. Bodies are compared by ID, never by
// pointer or name.
type Body struct {
	ID        int64
	Name      string
	Mass      float64 // kg
	Radius    float64 // m, informational
	Position  geom.Vector
	Velocity  geom.Vector
	Force     geom.Vector // accumulated for the current step
	Timescale float64     // seconds advanced per Move
	Color     colorful.Color
}

// NewBody returns a body at rest in force terms.
func NewBody(id int64, name string, mass, radius float64, pos, vel geom.Vector, timescale float64) *Body {
	return &Body{
		ID:        id,
		Name:      name,
		Mass:      mass,
		Radius:    radius,
		Position:  pos,
		Velocity:  vel,
		Timescale: timescale,
	}
}

// Validate checks the physical preconditions every step relies on.
func (b *Body) Validate() error {
	switch {
	case !(b.Mass > 0) || math.IsInf(b.Mass, 0):
		return fmt.Errorf("%w: body %d mass %g", ErrInvalidBody, b.ID, b.Mass)
	case b.Radius < 0:
		return fmt.Errorf("%w: body %d radius %g", ErrInvalidBody, b.ID, b.Radius)
	case !(b.Timescale > 0):
		return fmt.Errorf("%w: body %d timescale %g", ErrInvalidBody, b.ID, b.Timescale)
	case !b.Position.IsFinite() || !b.Velocity.IsFinite():
		return fmt.Errorf("%w: body %d has non-finite position or velocity", ErrInvalidBody, b.ID)
	}
	return nil
}

func (b *Body) ResetForce() {
	b.Force = geom.Zero
}

// GravitationalForce is the exact Newtonian force other exerts on b.
func (b *Body) GravitationalForce(other *Body) geom.Vector {
	return b.forceFrom(other.Mass, other.Position)
}

// forceFrom is the force a point mass at p exerts on b, directed from b
// toward p. Coincident points exert nothing.
func (b *Body) forceFrom(mass float64, p geom.Vector) geom.Vector {
	d := p.Sub(b.Position)
	r2 := d.LenSqr()
	if r2 == 0 {
		return geom.Zero
	}
	dir, err := d.Normalize()
	if err != nil {
		return geom.Zero
	}
	return dir.Scale(G * b.Mass * mass / r2)
}

// Move advances b by one timescale under force f using semi-implicit
// Euler: velocity first, then position with the new velocity.
func (b *Body) Move(f geom.Vector) {
	acc := f.Scale(1 / b.Mass)
	b.Velocity = b.Velocity.Add(acc.Scale(b.Timescale))
	b.Position = b.Position.Add(b.Velocity.Scale(b.Timescale))
}

// KineticEnergy is m|v|^2/2.
func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.Mass * b.Velocity.LenSqr()
}

// Momentum is m*v.
func (b *Body) Momentum() geom.Vector {
	return b.Velocity.Scale(b.Mass)
}

// Clone returns a copy that shares nothing with b.
func (b *Body) Clone() *Body {
	c := *b
	return &c
}

func (b *Body) String() string {
	if b.Name != "" {
		return fmt.Sprintf("body %d (%s)", b.ID, b.Name)
	}
	return fmt.Sprintf("body %d", b.ID)
}
