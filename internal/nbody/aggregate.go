package nbody

import "github.com/san-kum/gravsim/internal/geom"

// Combine merges two point masses into one. The center of mass is computed
// as a weighted sum divided by the total, component by component, so
// repeated combination reproduces the exact decimal sequence a reference
// calculation gives. Two massless inputs combine to zero mass at the origin.
func Combine(massA float64, comA geom.Vector, massB float64, comB geom.Vector) (float64, geom.Vector) {
	m := massA + massB
	if m == 0 {
		return 0, geom.Zero
	}
	var c geom.Vector
	for i := 0; i < 3; i++ {
		// explicit conversions keep the products from being fused
		wa := float64(comA[i] * massA)
		wb := float64(comB[i] * massB)
		c[i] = (wa + wb) / m
	}
	return m, c
}
