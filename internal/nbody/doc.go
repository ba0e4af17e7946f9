// Package nbody implements gravitating bodies and the Barnes-Hut octree
// index used to approximate the force acting on each of them.
//
//   - [Body]: a point mass with identity, position, velocity and a force
//     accumulator, advanced by semi-implicit Euler in [Body.Move]
//   - [Index]: an octree over a fixed cube whose every node carries the
//     total mass and center of mass of its subtree
//   - [Combine]: the mass-weighted merge used to maintain aggregates
//
// # Example
//
//	ix := nbody.NewIndex(geom.NewCube(geom.Zero, 1e12))
//	for _, b := range bodies {
//		if err := ix.Insert(b); err != nil {
//			return err
//		}
//	}
//	for _, b := range ix.Bodies() {
//		b.ResetForce()
//		b.AccumulateForce(ix)
//	}
//
// # Thread Safety
//
// Insert is single-writer. Once built, an Index may be traversed by any
// number of goroutines, each accumulating force into a distinct body.
package nbody
