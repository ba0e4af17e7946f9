package nbody

// AccumulateForce adds to b.Force the approximate gravitational force of
// every body held by ix. The caller resets the accumulator between steps.
func (b *Body) AccumulateForce(ix *Index) {
	if ix.Len() == 0 {
		return
	}
	ix.accumulate(0, b)
}

func (ix *Index) accumulate(h handle, b *Body) {
	n := &ix.nodes[h]
	if !n.split {
		if n.body == nil || n.body.ID == b.ID {
			return
		}
		b.Force = b.Force.Add(b.GravitationalForce(n.body))
		return
	}

	// A node enclosing b is always opened so that b never attracts itself
	// through an aggregate.
	ratio := n.com.Distance(b.Position) / n.cube.Edge
	if ratio > ix.theta && !n.contains(b.Position) {
		b.Force = b.Force.Add(b.forceFrom(n.mass, n.com))
		return
	}
	for _, c := range n.children {
		if c != none {
			ix.accumulate(c, b)
		}
	}
}

// DirectForce adds the exact pairwise force of every other body in bodies.
// It is the O(n^2) reference the tree approximation is measured against.
func (b *Body) DirectForce(bodies []*Body) {
	for _, o := range bodies {
		if o.ID == b.ID {
			continue
		}
		b.Force = b.Force.Add(b.GravitationalForce(o))
	}
}
