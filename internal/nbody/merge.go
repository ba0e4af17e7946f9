package nbody

import "math"

// fuse collapses incoming into resident when they can no longer be
// separated by the index. The result keeps the resident's identity, name,
// position, timescale and color; mass is summed, velocity is the
// momentum-conserving average and the radius preserves total volume.
func fuse(resident, incoming *Body) *Body {
	m := resident.Mass + incoming.Mass
	f := resident.Clone()
	f.Mass = m
	f.Velocity = resident.Momentum().Add(incoming.Momentum()).Scale(1 / m)
	f.Radius = math.Cbrt(math.Pow(resident.Radius, 3) + math.Pow(incoming.Radius, 3))
	f.Force = resident.Force.Add(incoming.Force)
	return f
}
