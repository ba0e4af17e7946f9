// Package geom provides the three-dimensional vector and axis-aligned cube
// types used by the octree index and the simulation driver.
//
// Vectors are value types backed by mgl64.Vec3 and are safe to copy and
// compare with ==. A Cube is half-open: it contains a point when
// corner <= p < corner+edge on every axis, so points on a shared face
// between two sibling cubes belong to exactly one of them.
package geom
