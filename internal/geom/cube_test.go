package geom

import (
	"math"
	"testing"
)

func TestCubeContains(t *testing.T) {
	c := NewCube(Vec(0, 0, 0), 1000)

	tests := []struct {
		name string
		p    Vector
		want bool
	}{
		{"origin corner", Vec(0, 0, 0), true},
		{"interior", Vec(500, 250, 999), true},
		{"just below upper face", Vec(999.999, 999.999, 999.999), true},
		{"upper x face", Vec(1000, 500, 500), false},
		{"upper z face", Vec(500, 500, 1000), false},
		{"below lower y face", Vec(500, -0.001, 500), false},
		{"far outside", Vec(-5000, 5000, 5000), false},
		{"NaN", Vec(math.NaN(), 500, 500), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v): expected %v, got %v", tt.p, tt.want, got)
			}
		})
	}
}

func TestNewCubeNegativeEdge(t *testing.T) {
	c := NewCube(Vec(1, 2, 3), -8)
	if c.Edge != 8 {
		t.Errorf("expected edge 8, got %f", c.Edge)
	}
	if c.Center() != Vec(5, 6, 7) {
		t.Errorf("expected center (5,6,7), got %v", c.Center())
	}
}

func TestCenteredCube(t *testing.T) {
	c := CenteredCube(Vec(0, 0, 0), 10)
	if c.Corner != Vec(-5, -5, -5) {
		t.Errorf("expected corner (-5,-5,-5), got %v", c.Corner)
	}
	if !c.Contains(Vec(0, 0, 0)) {
		t.Error("center should be contained")
	}
}

func TestOctantCodes(t *testing.T) {
	c := NewCube(Vec(0, 0, 0), 1000)

	tests := []struct {
		p    Vector
		want Octant
	}{
		{Vec(250, 250, 250), 0},
		{Vec(750, 250, 250), 1},
		{Vec(250, 750, 250), 2},
		{Vec(750, 750, 250), 3},
		{Vec(250, 250, 750), 4},
		{Vec(750, 250, 750), 5},
		{Vec(250, 750, 750), 6},
		{Vec(750, 750, 750), 7},
		{Vec(500, 500, 500), 7},
		{Vec(499.9, 500, 499.9), 2},
	}
	for _, tt := range tests {
		if got := c.Octant(tt.p); got != tt.want {
			t.Errorf("Octant(%v): expected %d, got %d", tt.p, tt.want, got)
		}
	}
}

func TestChildCubes(t *testing.T) {
	parent := NewCube(Vec(0, 0, 0), 1000)

	for o := Octant(0); o < NumOctants; o++ {
		child := parent.Child(o)
		if child.Edge != 500 {
			t.Errorf("octant %d: expected edge 500, got %f", o, child.Edge)
		}
		// every child center classifies back to its own octant
		if got := parent.Octant(child.Center()); got != o {
			t.Errorf("octant %d: child center classified as %d", o, got)
		}
		if !parent.Contains(child.Corner) {
			t.Errorf("octant %d: child corner %v outside parent", o, child.Corner)
		}
	}

	if c := parent.Child(5); c.Corner != Vec(500, 0, 500) {
		t.Errorf("expected octant 5 corner (500,0,500), got %v", c.Corner)
	}
}

func TestChildBoundSharesParentFaces(t *testing.T) {
	c, e := 0.43333333333333335, 0.7017142857142856
	parent := NewCube(Vec(c, c, c), e)
	center, hi := parent.Center(), parent.Max()

	if b := ChildBound(center, hi, 0); b != center {
		t.Errorf("octant 0: expected bound %v, got %v", center, b)
	}
	if b := ChildBound(center, hi, 7); b != hi {
		t.Errorf("octant 7: expected parent bound %v, got %v", hi, b)
	}
	if b := ChildBound(center, hi, 5); b != Vec(hi[0], center[1], hi[2]) {
		t.Errorf("octant 5: mixed bound wrong, got %v", b)
	}

	p := Vec(math.Nextafter(hi[0], 0), c, c)
	if !parent.Contains(p) {
		t.Fatalf("%v should be inside %v", p, parent)
	}
	o := parent.Octant(p)
	if !InBounds(parent.Child(o).Corner, ChildBound(center, hi, o), p) {
		t.Errorf("%v lost between parent and octant %d", p, o)
	}
	if InBounds(Vec(0, 0, 0), Vec(1, 1, 1), Vec(math.NaN(), 0, 0)) {
		t.Error("NaN must not be in bounds")
	}
}
