package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/geom"
)

// Projection selects which plane of the universe is drawn.
type Projection int

const (
	ProjectXY Projection = iota
	ProjectXZ
	ProjectYZ
	ProjectOrbit
)

func (p Projection) String() string {
	switch p {
	case ProjectXY:
		return "XY"
	case ProjectXZ:
		return "XZ"
	case ProjectYZ:
		return "YZ"
	default:
		return "ORBIT"
	}
}

func (p Projection) next() Projection { return (p + 1) % (ProjectOrbit + 1) }

const (
	minZoom = 0.25
	maxZoom = 64
)

// Camera maps positions inside a cube onto canvas dots. At zoom 1 the
// whole cube fits the shorter canvas side.
type Camera struct {
	Cube       geom.Cube
	Projection Projection
	Zoom       float64
	Yaw, Pitch float64
}

func NewCamera(cube geom.Cube) *Camera {
	return &Camera{Cube: cube, Zoom: 1, Pitch: -0.5}
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(maxZoom, c.Zoom*1.5) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(minZoom, c.Zoom/1.5) }
func (c *Camera) Rotate(yaw, pitch float64) {
	c.Yaw += yaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+pitch))
}

// plane returns the two screen axes of p relative to the cube centre.
func (c *Camera) plane(p geom.Vector) (float64, float64) {
	d := p.Sub(c.Cube.Center())
	switch c.Projection {
	case ProjectXZ:
		return d.X(), d.Z()
	case ProjectYZ:
		return d.Y(), d.Z()
	case ProjectOrbit:
		rot := mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DZ(c.Yaw))
		r := geom.Vector(rot.Mul3x1(mgl64.Vec3(d)))
		return r.X(), r.Y()
	default:
		return d.X(), d.Y()
	}
}

// Project returns the dot for p on a w x h dot canvas and whether it is
// on screen.
func (c *Camera) Project(p geom.Vector, w, h int) (int, int, bool) {
	u, v := c.plane(p)
	half := c.Cube.Edge / 2
	if c.Projection == ProjectOrbit {
		half *= math.Sqrt(3)
	}
	scale := float64(min(w, h)) / 2 * c.Zoom / half
	fx := float64(w)/2 + u*scale
	fy := float64(h)/2 - v*scale
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return 0, 0, false
	}
	x, y := int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}

var cubeEdges = [12][2]geom.Octant{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawBounds outlines the cube. Corner i is offset along the axes whose
// bit is set, the same coding the octree uses for octants.
func (c *Camera) DrawBounds(cv *Canvas, color string) {
	w, h := cv.Dots()
	var px, py [geom.NumOctants]int
	for o := geom.Octant(0); o < geom.NumOctants; o++ {
		corner := c.Cube.Corner
		for axis := 0; axis < 3; axis++ {
			if o&(1<<axis) != 0 {
				corner[axis] += c.Cube.Edge
			}
		}
		px[o], py[o], _ = c.Project(corner, w, h)
	}
	for _, e := range cubeEdges {
		cv.DrawLineColor(px[e[0]], py[e[0]], px[e[1]], py[e[1]], color)
	}
}
