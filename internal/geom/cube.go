package geom

import (
	"fmt"
	"math"
)

// Octant selects one of the eight child cubes of a split cube. Bit 0 is set
// when x >= center.x, bit 1 for y and bit 2 for z.
type Octant uint8

const NumOctants = 8

// Cube is an axis-aligned cube anchored at its minimum corner.
type Cube struct {
	Corner Vector
	Edge   float64
}

// NewCube normalizes a negative edge length to its absolute value.
func NewCube(corner Vector, edge float64) Cube {
	return Cube{Corner: corner, Edge: math.Abs(edge)}
}

// CenteredCube builds the cube of the given edge whose center is c.
func CenteredCube(c Vector, edge float64) Cube {
	edge = math.Abs(edge)
	h := edge / 2
	return Cube{Corner: Vec(c[0]-h, c[1]-h, c[2]-h), Edge: edge}
}

func (c Cube) Center() Vector {
	h := c.Edge / 2
	return Vec(c.Corner[0]+h, c.Corner[1]+h, c.Corner[2]+h)
}

// Max is the exclusive upper corner.
func (c Cube) Max() Vector {
	return Vec(c.Corner[0]+c.Edge, c.Corner[1]+c.Edge, c.Corner[2]+c.Edge)
}

// Contains reports whether corner <= p < corner+edge on all three axes.
// NaN coordinates are never contained.
func (c Cube) Contains(p Vector) bool {
	return InBounds(c.Corner, c.Max(), p)
}

// InBounds reports whether lo <= p < hi on all three axes.
func InBounds(lo, hi, p Vector) bool {
	for i := 0; i < 3; i++ {
		if !(p[i] >= lo[i] && p[i] < hi[i]) {
			return false
		}
	}
	return true
}

// ChildBound is the exclusive upper corner of octant o of a cube with the
// given center and upper corner. Upper octants inherit the parent's bound
// rather than adding half the edge again, so rounding cannot open a gap
// between the last child and the parent's face.
func ChildBound(center, hi Vector, o Octant) Vector {
	b := center
	for axis := 0; axis < 3; axis++ {
		if o&(1<<axis) != 0 {
			b[axis] = hi[axis]
		}
	}
	return b
}

// OctantOf classifies p relative to center.
func OctantOf(center, p Vector) Octant {
	var o Octant
	if p[0] >= center[0] {
		o |= 1
	}
	if p[1] >= center[1] {
		o |= 2
	}
	if p[2] >= center[2] {
		o |= 4
	}
	return o
}

// Octant classifies p relative to the cube's center.
func (c Cube) Octant(p Vector) Octant {
	return OctantOf(c.Center(), p)
}

// Child returns the sub-cube of half the edge for octant o. The child's
// corner is offset by half the edge along every axis whose bit is set.
func (c Cube) Child(o Octant) Cube {
	h := c.Edge / 2
	corner := c.Corner
	if o&1 != 0 {
		corner[0] += h
	}
	if o&2 != 0 {
		corner[1] += h
	}
	if o&4 != 0 {
		corner[2] += h
	}
	return Cube{Corner: corner, Edge: h}
}

func (c Cube) String() string {
	return fmt.Sprintf("cube{corner=%v edge=%g}", c.Corner, c.Edge)
}
