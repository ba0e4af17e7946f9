package nbody

import (
	"log/slog"

	"github.com/san-kum/gravsim/internal/geom"
)

const (
	// DefaultTheta is the opening ratio: a subtree is approximated when the
	// distance to its center of mass divided by its edge exceeds theta.
	DefaultTheta = 1.0

	// DefaultMaxDepth bounds subdivision. An occupied leaf at this depth
	// absorbs further bodies instead of splitting.
	DefaultMaxDepth = 10
)

// handle addresses a node in the arena. The root lives at slot 0 and is
// never a child, so 0 doubles as the empty child slot.
type handle int32

const none handle = 0

type node struct {
	cube     geom.Cube
	center   geom.Vector
	hi       geom.Vector // exclusive upper bound, exact along inherited faces
	depth    int
	split    bool
	children [geom.NumOctants]handle

	body *Body // leaf resident, nil when empty or split
	slot int   // position of body in Index.bodies

	mass float64
	com  geom.Vector
}

// contains tests p against the node's half-open region. Children share
// their faces with the parent exactly, so a point routed down from a node
// that contains it is contained by the child.
func (n *node) contains(p geom.Vector) bool {
	return geom.InBounds(n.cube.Corner, n.hi, p)
}

// Index is a Barnes-Hut octree over a fixed cube. Nodes live in a single
// arena so that building and discarding an index each step costs a few
// slice operations rather than one allocation per node.
type Index struct {
	nodes    []node
	bodies   []*Body
	ids      map[int64]struct{}
	theta    float64
	maxDepth int
	merges   int
	log      *slog.Logger
}

type Option func(*Index)

func WithTheta(theta float64) Option {
	return func(ix *Index) { ix.theta = theta }
}

func WithMaxDepth(depth int) Option {
	return func(ix *Index) { ix.maxDepth = depth }
}

func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) { ix.log = l }
}

// WithCapacity preallocates for roughly n bodies.
func WithCapacity(n int) Option {
	return func(ix *Index) {
		ix.bodies = make([]*Body, 0, n)
		ix.nodes = make([]node, 0, 2*n+1)
	}
}

// NewIndex returns an empty index whose root leaf covers cube.
func NewIndex(cube geom.Cube, opts ...Option) *Index {
	ix := &Index{
		theta:    DefaultTheta,
		maxDepth: DefaultMaxDepth,
		ids:      make(map[int64]struct{}),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.Reset(cube)
	return ix
}

// Reset empties the index and re-roots it at cube, keeping the arena's
// capacity. Bodies previously returned by Bodies are not touched.
func (ix *Index) Reset(cube geom.Cube) {
	cube = geom.NewCube(cube.Corner, cube.Edge)
	clear(ix.bodies)
	clear(ix.ids)
	ix.bodies = ix.bodies[:0]
	ix.nodes = append(ix.nodes[:0], node{cube: cube, center: cube.Center(), hi: cube.Max()})
	ix.merges = 0
}

func (ix *Index) Cube() geom.Cube           { return ix.nodes[0].cube }
func (ix *Index) Theta() float64            { return ix.theta }
func (ix *Index) MaxDepth() int             { return ix.maxDepth }
func (ix *Index) Len() int                  { return len(ix.bodies) }
func (ix *Index) NodeCount() int            { return len(ix.nodes) }
func (ix *Index) TotalMass() float64        { return ix.nodes[0].mass }
func (ix *Index) CenterOfMass() geom.Vector { return ix.nodes[0].com }

// Merges counts depth-cap fusions since the last Reset.
func (ix *Index) Merges() int { return ix.merges }

// Bodies returns the bodies held by the index in insertion order. A fused
// body replaces its resident in place. The slice is owned by the index.
func (ix *Index) Bodies() []*Body { return ix.bodies }

// Depth is the deepest node level present.
func (ix *Index) Depth() int {
	d := 0
	for i := range ix.nodes {
		d = max(d, ix.nodes[i].depth)
	}
	return d
}

// pointMass is the contribution an insertion actually added to a subtree.
type pointMass struct {
	mass float64
	at   geom.Vector
}

// Insert places b in the index. On failure the index is left with every
// aggregate unchanged and the error is an *InsertError wrapping
// ErrOutOfBounds or ErrDuplicateIdentity.
func (ix *Index) Insert(b *Body) error {
	if _, ok := ix.ids[b.ID]; ok {
		return &InsertError{BodyID: b.ID, Err: ErrDuplicateIdentity}
	}
	_, err := ix.insert(0, b)
	return err
}

func (ix *Index) insert(h handle, b *Body) (pointMass, error) {
	n := &ix.nodes[h]
	if !n.contains(b.Position) {
		return pointMass{}, &InsertError{BodyID: b.ID, Depth: n.depth, Err: ErrOutOfBounds}
	}

	if !n.split {
		switch {
		case n.body == nil:
			n.body = b
			n.slot = len(ix.bodies)
			ix.bodies = append(ix.bodies, b)
			ix.ids[b.ID] = struct{}{}
			n.mass, n.com = b.Mass, b.Position
			return pointMass{b.Mass, b.Position}, nil
		case n.body.ID == b.ID:
			return pointMass{}, &InsertError{BodyID: b.ID, Depth: n.depth, Err: ErrDuplicateIdentity}
		case n.depth >= ix.maxDepth:
			return ix.absorb(h, b), nil
		}
		ix.split(h)
	}

	n = &ix.nodes[h]
	oct := geom.OctantOf(n.center, b.Position)
	child := n.children[oct]
	if child == none {
		child = ix.addChild(h, oct)
	}
	added, err := ix.insert(child, b)
	if err != nil {
		return pointMass{}, err
	}
	n = &ix.nodes[h]
	n.mass, n.com = Combine(n.mass, n.com, added.mass, added.at)
	return added, nil
}

// split turns an occupied leaf into an internal node by moving its
// resident into the matching child. The subtree still holds exactly the
// resident, so the node's aggregate is already correct.
func (ix *Index) split(h handle) {
	resident, slot := ix.nodes[h].body, ix.nodes[h].slot
	child := ix.addChild(h, geom.OctantOf(ix.nodes[h].center, resident.Position))

	c := &ix.nodes[child]
	c.body, c.slot = resident, slot
	c.mass, c.com = resident.Mass, resident.Position

	n := &ix.nodes[h]
	n.body = nil
	n.split = true
}

func (ix *Index) addChild(parent handle, oct geom.Octant) handle {
	p := ix.nodes[parent]
	cube := p.cube.Child(oct)
	h := handle(len(ix.nodes))
	ix.nodes = append(ix.nodes, node{
		cube:   cube,
		center: cube.Center(),
		hi:     geom.ChildBound(p.center, p.hi, oct),
		depth:  p.depth + 1,
	})
	ix.nodes[parent].children[oct] = h
	return h
}

// absorb fuses b into the resident of a leaf at the depth cap. The fused
// body sits at the resident's position, so that is where the added mass
// is accounted.
func (ix *Index) absorb(h handle, b *Body) pointMass {
	n := &ix.nodes[h]
	resident := n.body
	fused := fuse(resident, b)
	ix.bodies[n.slot] = fused
	n.body = fused
	n.mass += b.Mass
	ix.merges++
	ix.log.Debug("fused bodies at depth cap",
		"resident", resident.ID,
		"absorbed", b.ID,
		"depth", n.depth,
		"mass", fused.Mass,
	)
	return pointMass{b.Mass, n.com}
}
