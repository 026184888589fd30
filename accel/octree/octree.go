// Package octree implements the recursive 8-way subdivision accelerator
// described in spec.md §4.2, grounded on original_source's OctTree
// (original_source/src/Accelerators.cpp).
package octree

import (
	"sync"
	"time"
	"unsafe"

	"github.com/bojosos/Ray-traching-course/accel/accelopt"
	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/telemetry"
	"github.com/bojosos/Ray-traching-course/types"
)

// node is a single octree node. It is a leaf iff children[0] is nil.
type node struct {
	box        types.BBox
	children   [8]*node
	primitives []prim.Intersectable
}

func (n *node) isLeaf() bool {
	return n.children[0] == nil
}

// Octree is a spec.md §4.2 accelerator: recursive octant subdivision
// keyed on primitive/box overlap.
type Octree struct {
	opts accelopt.Options

	mu         sync.RWMutex
	primitives []prim.Intersectable
	root       *node
	built      bool

	maxDepth        int
	minPrimsPerNode int

	nodeCount         int
	leafCount         int
	maxDepthReached   int
	skippedDegenerate int
}

// New constructs an empty Octree.
func New(opts ...accelopt.Option) *Octree {
	return &Octree{opts: accelopt.Build("octree", opts...)}
}

// AddPrimitive implements accel.Accelerator.
func (o *Octree) AddPrimitive(p prim.Intersectable) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.built {
		return accelopt.ErrInvalidState
	}
	o.primitives = append(o.primitives, p)
	return nil
}

// Build implements accel.Accelerator.
func (o *Octree) Build(purpose prim.Purpose) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	params := accelopt.ParamsFor(accelopt.Octree, purpose)
	if o.opts.Params != nil {
		params = *o.opts.Params
	}
	o.maxDepth = params.MaxDepth
	o.minPrimsPerNode = params.MinPrimsPerNode

	start := time.Now()
	o.nodeCount, o.leafCount, o.maxDepthReached, o.skippedDegenerate = 0, 0, 0, 0

	root := &node{box: types.EmptyBBox()}
	root.primitives = o.primitives
	for _, p := range root.primitives {
		p.ExpandBox(&root.box)
	}
	o.nodeCount = 1
	o.build(root, 0)
	o.root = root
	o.built = true

	elapsed := time.Since(start)
	o.opts.Logger.Debugf(
		"octree build: %d primitives, %d nodes, %d leafs, depth %d, %s",
		len(o.primitives), o.nodeCount, o.leafCount, o.maxDepthReached, elapsed,
	)
	o.opts.Sink.ReportBuild(telemetry.BuildReport{
		Variant:           "octree",
		BuildTime:         elapsed,
		NodeCount:         o.nodeCount,
		LeafCount:         o.leafCount,
		MaxDepth:          o.maxDepthReached,
		PrimitiveCount:    len(o.primitives),
		SkippedDegenerate: o.skippedDegenerate,
		Bytes:             o.byteEstimate(),
	})
	return nil
}

// byteEstimate mirrors original_source's LOG_ACCEL_BUILD byte figure:
// node count times node size, plus the struct itself, plus one interface
// header per stored primitive reference.
func (o *Octree) byteEstimate() int64 {
	var oneNode node
	var onePrim prim.Intersectable
	return int64(o.nodeCount)*int64(unsafe.Sizeof(oneNode)) +
		int64(unsafe.Sizeof(*o)) +
		int64(len(o.primitives))*int64(unsafe.Sizeof(onePrim))
}

// build recursively subdivides n. Mirrors original_source's OctTree::build,
// including the "child received every parent primitive" degeneracy guard
// that forces an immediate leaf by recursing with depth = maxDepth+1.
func (o *Octree) build(n *node, depth int) {
	if depth > o.maxDepthReached {
		o.maxDepthReached = depth
	}
	if depth >= o.maxDepth || len(n.primitives) <= o.minPrimsPerNode {
		o.leafCount++
		return
	}

	var childBoxes [8]types.BBox
	n.box.OctSplit(&childBoxes)

	for c := 0; c < 8; c++ {
		child := &node{box: childBoxes[c]}
		for _, p := range n.primitives {
			if p.BoxIntersect(child.box) {
				child.primitives = append(child.primitives, p)
			}
		}
		n.children[c] = child
		o.nodeCount++

		nextDepth := depth + 1
		if len(child.primitives) == len(n.primitives) {
			nextDepth = o.maxDepth + 1
			o.skippedDegenerate++
			o.opts.Logger.Debugf("%s: %d primitives all overlap every octant", accelopt.ErrDegenerateGeometry, len(n.primitives))
		}
		o.build(child, nextDepth)
	}
	n.primitives = nil
}

// Intersect implements accel.Accelerator.
func (o *Octree) Intersect(ray types.Ray, tMin, tMax float32, hit *prim.Intersection) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.built {
		return false, accelopt.ErrInvalidState
	}
	if tMax <= tMin || o.root == nil {
		return false, nil
	}
	return intersectNode(o.root, ray, tMin, &tMax, hit), nil
}

// intersectNode recurses through the tree. Octree traversal has no
// child-ordering optimization: every surviving child is visited (spec.md
// §4.2 "octree prioritizes simplicity").
func intersectNode(n *node, ray types.Ray, tMin float32, tMax *float32, hit *prim.Intersection) bool {
	hasHit := false
	if n.isLeaf() {
		for _, p := range n.primitives {
			if p.Intersect(ray, tMin, *tMax, hit) {
				*tMax = hit.T
				hasHit = true
			}
		}
		return hasHit
	}
	for _, child := range n.children {
		if child.box.TestIntersect(ray) {
			if intersectNode(child, ray, tMin, tMax, hit) {
				hasHit = true
			}
		}
	}
	return hasHit
}

// IsBuilt implements accel.Accelerator.
func (o *Octree) IsBuilt() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.built
}
