package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateNormalize is returned when normalizing a zero-length vector.
var ErrDegenerateNormalize = errors.New("geom: cannot normalize zero-length vector")

// Vector is a point or direction in three-dimensional space, in meters.
type Vector mgl64.Vec3

// Zero is the origin.
var Zero = Vector{}

// Vec builds a Vector from its components.
func Vec(x, y, z float64) Vector {
	return Vector{x, y, z}
}

func (v Vector) X() float64 { return v[0] }
func (v Vector) Y() float64 { return v[1] }
func (v Vector) Z() float64 { return v[2] }

func (v Vector) Add(o Vector) Vector {
	return Vector(mgl64.Vec3(v).Add(mgl64.Vec3(o)))
}

func (v Vector) Sub(o Vector) Vector {
	return Vector(mgl64.Vec3(v).Sub(mgl64.Vec3(o)))
}

// Scale multiplies every component by f.
func (v Vector) Scale(f float64) Vector {
	return Vector(mgl64.Vec3(v).Mul(f))
}

func (v Vector) Dot(o Vector) float64 {
	return mgl64.Vec3(v).Dot(mgl64.Vec3(o))
}

func (v Vector) Cross(o Vector) Vector {
	return Vector(mgl64.Vec3(v).Cross(mgl64.Vec3(o)))
}

func (v Vector) Len() float64 {
	return mgl64.Vec3(v).Len()
}

func (v Vector) LenSqr() float64 {
	return mgl64.Vec3(v).LenSqr()
}

// Distance is the Euclidean distance between v and o.
func (v Vector) Distance(o Vector) float64 {
	return o.Sub(v).Len()
}

// DistanceSqr avoids the square root when only ordering matters.
func (v Vector) DistanceSqr(o Vector) float64 {
	return o.Sub(v).LenSqr()
}

// Normalize returns the unit vector pointing along v. Callers must handle
// ErrDegenerateNormalize for coincident points.
func (v Vector) Normalize() (Vector, error) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return Zero, ErrDegenerateNormalize
	}
	return v.Scale(1 / l), nil
}

// ApproxEqual compares componentwise within an absolute tolerance.
func (v Vector) ApproxEqual(o Vector, tol float64) bool {
	return mgl64.Vec3(v).ApproxEqualThreshold(mgl64.Vec3(o), tol)
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (v Vector) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}
