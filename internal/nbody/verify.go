package nbody

import (
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/geom"
)

// Verify recomputes every aggregate from the bodies below it and checks the
// structural rules of the tree: leaves hold at most one body inside their
// cube, children are half the parent's edge, no node is deeper than the
// cap, and every body is reachable exactly once. Aggregates are compared
// with a relative tolerance tol.
func (ix *Index) Verify(tol float64) error {
	seen := make(map[int64]bool, len(ix.bodies))
	if _, _, err := ix.verify(0, tol, seen); err != nil {
		return err
	}
	if len(seen) != len(ix.bodies) {
		return fmt.Errorf("%w: %d bodies reachable, %d held", ErrInvariant, len(seen), len(ix.bodies))
	}
	return nil
}

func (ix *Index) verify(h handle, tol float64, seen map[int64]bool) (float64, geom.Vector, error) {
	n := &ix.nodes[h]
	if n.depth > ix.maxDepth {
		return 0, geom.Zero, fmt.Errorf("%w: node at depth %d exceeds cap %d", ErrInvariant, n.depth, ix.maxDepth)
	}

	var mass float64
	var com geom.Vector
	if !n.split {
		if n.body != nil {
			b := n.body
			if !n.contains(b.Position) {
				return 0, geom.Zero, fmt.Errorf("%w: %v outside its leaf %v", ErrInvariant, b, n.cube)
			}
			if seen[b.ID] {
				return 0, geom.Zero, fmt.Errorf("%w: %v reachable twice", ErrInvariant, b)
			}
			if ix.bodies[n.slot] != b {
				return 0, geom.Zero, fmt.Errorf("%w: %v not at slot %d", ErrInvariant, b, n.slot)
			}
			seen[b.ID] = true
			mass, com = b.Mass, b.Position
		}
	} else {
		if n.body != nil {
			return 0, geom.Zero, fmt.Errorf("%w: internal node at depth %d holds a body", ErrInvariant, n.depth)
		}
		for o, c := range n.children {
			if c == none {
				continue
			}
			want := n.cube.Child(geom.Octant(o))
			if ix.nodes[c].cube != want {
				return 0, geom.Zero, fmt.Errorf("%w: child %d cube %v, expected %v", ErrInvariant, o, ix.nodes[c].cube, want)
			}
			m, cc, err := ix.verify(c, tol, seen)
			if err != nil {
				return 0, geom.Zero, err
			}
			mass, com = Combine(mass, com, m, cc)
		}
	}

	if !approxEqual(n.mass, mass, tol) {
		return 0, geom.Zero, fmt.Errorf("%w: node at depth %d mass %g, recomputed %g", ErrInvariant, n.depth, n.mass, mass)
	}
	for i := 0; i < 3; i++ {
		if !approxEqual(n.com[i], com[i], tol) && math.Abs(n.com[i]-com[i]) > tol*n.cube.Edge {
			return 0, geom.Zero, fmt.Errorf("%w: node at depth %d center of mass %v, recomputed %v", ErrInvariant, n.depth, n.com, com)
		}
	}
	return n.mass, n.com, nil
}

func approxEqual(a, b, tol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}
