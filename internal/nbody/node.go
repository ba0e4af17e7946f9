package nbody

import "github.com/san-kum/gravsim/internal/geom"

// Node is a read-only view of one octree node.
type Node struct {
	ix *Index
	h  handle
}

// Root returns the root node.
func (ix *Index) Root() Node {
	return Node{ix: ix, h: 0}
}

func (n Node) node() *node { return &n.ix.nodes[n.h] }

func (n Node) Cube() geom.Cube           { return n.node().cube }
func (n Node) Depth() int                { return n.node().depth }
func (n Node) TotalMass() float64        { return n.node().mass }
func (n Node) CenterOfMass() geom.Vector { return n.node().com }

// IsLeaf reports whether the node has never been split.
func (n Node) IsLeaf() bool { return !n.node().split }

// Body returns the leaf resident, or nil for empty leaves and internal
// nodes.
func (n Node) Body() *Body { return n.node().body }

// Child returns the child in octant o, if it exists.
func (n Node) Child(o geom.Octant) (Node, bool) {
	c := n.node().children[o]
	if c == none {
		return Node{}, false
	}
	return Node{ix: n.ix, h: c}, true
}

// Walk visits nodes depth first, parents before children. Returning false
// from fn skips the node's subtree.
func (ix *Index) Walk(fn func(Node) bool) {
	ix.walk(0, fn)
}

func (ix *Index) walk(h handle, fn func(Node) bool) {
	if !fn(Node{ix: ix, h: h}) {
		return
	}
	for _, c := range ix.nodes[h].children {
		if c != none {
			ix.walk(c, fn)
		}
	}
}
