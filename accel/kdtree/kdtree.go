// Package kdtree implements the full-SAH K-D tree accelerator described
// in spec.md §4.4: a sorted bound-edge sweep chooses the split with the
// lowest surface-area-heuristic cost on each recursion, with an
// empty-side bonus, axis retries and a bad-refine back-off. Grounded on
// original_source's KDTree (original_source/src/Accelerators.cpp), whose
// build loop is itself a direct transcription of the PBR Book's kd-tree
// construction algorithm.
package kdtree

import (
	"math"
	"sort"
	"sync"
	"time"
	"unsafe"

	"github.com/bojosos/Ray-traching-course/accel/accelopt"
	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/telemetry"
	"github.com/bojosos/Ray-traching-course/types"
)

// Debug enables the belowCount/aboveCount invariant check in build. Off
// by default: like original_source's assert, it is a build-time sanity
// check with a real (if tiny) per-node cost, not a correctness gate.
var Debug = false

// boundEdge is one endpoint of a primitive's extent along the axis
// currently being evaluated.
type boundEdge struct {
	t        float32
	primIdx  int
	starting bool
}

// KDTree is a spec.md §4.4 accelerator.
type KDTree struct {
	opts accelopt.Options

	mu         sync.RWMutex
	primitives []prim.Intersectable
	built      bool

	nodes   []node
	primIds []uint32
	bounds  types.BBox

	maxPrimsPerNode  int
	intersectionCost float32
	traversalCost    float32
	emptyBonus       float32

	nodeCount         int
	leafCount         int
	skippedDegenerate int
}

// New constructs an empty KDTree.
func New(opts ...accelopt.Option) *KDTree {
	return &KDTree{opts: accelopt.Build("kdtree", opts...)}
}

// AddPrimitive implements accel.Accelerator.
func (k *KDTree) AddPrimitive(p prim.Intersectable) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.built {
		return accelopt.ErrInvalidState
	}
	k.primitives = append(k.primitives, p)
	return nil
}

// IsBuilt implements accel.Accelerator.
func (k *KDTree) IsBuilt() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.built
}

// Build implements accel.Accelerator. See spec.md §4.4.
func (k *KDTree) Build(purpose prim.Purpose) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	params := accelopt.ParamsFor(accelopt.KDTree, purpose)
	if k.opts.Params != nil {
		params = *k.opts.Params
	}
	k.maxPrimsPerNode = params.MinPrimsPerNode
	k.intersectionCost = params.IntersectionCost
	k.traversalCost = params.TraversalCost
	k.emptyBonus = params.EmptyBonus

	start := time.Now()
	k.nodes = nil
	k.primIds = nil
	k.nodeCount, k.leafCount, k.skippedDegenerate = 0, 0, 0
	k.bounds = types.EmptyBBox()

	n := len(k.primitives)
	if n == 0 {
		k.built = true
		k.report(start)
		return nil
	}

	primBounds := make([]types.BBox, n)
	for i, p := range k.primitives {
		b := types.EmptyBBox()
		p.ExpandBox(&b)
		primBounds[i] = b
		k.bounds = k.bounds.Union(b)
	}

	maxDepth := int(math.Round(8 + 1.3*math.Log2(float64(n))))

	edges := [3][]boundEdge{
		make([]boundEdge, 2*n),
		make([]boundEdge, 2*n),
		make([]boundEdge, 2*n),
	}

	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i)
	}

	b := &builder{
		tree:       k,
		primBounds: primBounds,
		edges:      edges,
		maxDepth:   maxDepth,
		maxNodes:   params.MaxNodes,
	}
	if err := b.run(k.bounds, ids); err != nil {
		k.built = false
		return err
	}
	k.nodes = b.nodes
	k.primIds = b.primIds

	elapsed := time.Since(start)
	k.opts.Logger.Debugf(
		"kdtree build: %d primitives, %d nodes, %d leafs, max depth %d, %s",
		n, k.nodeCount, k.leafCount, maxDepth, elapsed,
	)
	k.built = true
	k.report(start)
	return nil
}

func (k *KDTree) report(start time.Time) {
	k.opts.Sink.ReportBuild(telemetry.BuildReport{
		Variant:           "kdtree",
		BuildTime:         time.Since(start),
		NodeCount:         k.nodeCount,
		LeafCount:         k.leafCount,
		PrimitiveCount:    len(k.primitives),
		SkippedDegenerate: k.skippedDegenerate,
		Bytes:             k.byteEstimate(),
	})
}

// byteEstimate mirrors original_source's LOG_ACCEL_BUILD byte figure:
// node count times the packed node size, plus the struct itself, plus
// one interface header per stored primitive reference.
func (k *KDTree) byteEstimate() int64 {
	var oneNode node
	var onePrim prim.Intersectable
	return int64(k.nodeCount)*int64(unsafe.Sizeof(oneNode)) +
		int64(unsafe.Sizeof(*k)) +
		int64(len(k.primitives))*int64(unsafe.Sizeof(onePrim))
}

// builder holds per-build scratch state so KDTree itself stays free of
// build-only fields between calls.
type builder struct {
	tree       *KDTree
	primBounds []types.BBox
	edges      [3][]boundEdge
	nodes      []node
	primIds    []uint32
	maxDepth   int
	maxNodes   int // 0 means unbounded
	nextFree   int
}

// errNodeCapExceeded is panicked from claim and recovered in run, turning
// a deep-recursion abort into an ordinary error return without threading
// an error value through every build call.
type errNodeCapExceeded struct{}

func (errNodeCapExceeded) Error() string { return "kdtree: node cap exceeded" }

// run drives the recursive build and converts a node-cap panic from
// claim into accelopt.ErrOutOfMemory, matching spec.md §7's "return,
// don't panic" contract for build-time allocation failure.
func (b *builder) run(bounds types.BBox, primIds []uint32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(errNodeCapExceeded); ok {
				err = accelopt.ErrOutOfMemory
				return
			}
			panic(r)
		}
	}()
	b.build(0, bounds, primIds, b.maxDepth, 0)
	return nil
}

// claim records that nodeIdx is about to be built, growing the node
// arena (starting at capacity 512, doubling from there) when it is
// full, matching original_source's alloc = max(2*allocated, 512)
// growth. b.maxNodes, when set, aborts the build the moment an index
// beyond it is claimed, independent of how much arena capacity happens
// to already be allocated.
func (b *builder) claim(nodeIdx int) {
	if b.maxNodes > 0 && nodeIdx >= b.maxNodes {
		panic(errNodeCapExceeded{})
	}
	if nodeIdx >= len(b.nodes) {
		newCap := len(b.nodes) * 2
		if newCap < 512 {
			newCap = 512
		}
		if newCap <= nodeIdx {
			newCap = nodeIdx + 1
		}
		grown := make([]node, newCap)
		copy(grown, b.nodes)
		b.nodes = grown
	}
	b.nextFree = nodeIdx + 1
}

// build recurses exactly as original_source's KDTree::build: pick the
// widest axis, sweep its sorted bound edges for the lowest-SAH-cost
// split, retry up to two more axes if none qualifies, and give up
// (forcing a leaf) when no axis has an in-range split, after three bad
// refines, or when the best split costs more than four times a leaf and
// the node holds fewer than 16 primitives.
func (b *builder) build(nodeIdx int, curBounds types.BBox, primIds []uint32, depthLeft int, badRefines int) {
	b.claim(nodeIdx)
	b.tree.nodeCount++
	primCount := len(primIds)

	if primCount <= b.tree.maxPrimsPerNode || depthLeft == 0 {
		b.tree.leafCount++
		b.nodes[nodeIdx].initLeaf(primIds, &b.primIds)
		return
	}

	bestAxis := -1
	bestOffset := -1
	bestCost := float32(math.Inf(1))
	oldCost := b.tree.intersectionCost * float32(primCount)
	area := curBounds.Area()
	if area <= 0 {
		// A zero-area bounds (collapsed to a line or a point) makes every
		// split equally useless; fall back to a leaf rather than divide by
		// zero.
		b.tree.leafCount++
		b.tree.skippedDegenerate++
		b.tree.opts.Logger.Debugf("%s: %d primitives in a zero-area bounds", accelopt.ErrDegenerateGeometry, primCount)
		b.nodes[nodeIdx].initLeaf(primIds, &b.primIds)
		return
	}
	invArea := 1 / area
	diag := curBounds.Max.Sub(curBounds.Min)

	axis := curBounds.MaxExtent()
	retries := 0

	var belowCount, aboveCount int

	for {
		edges := b.edges[axis]
		for i, pid := range primIds {
			pb := b.primBounds[pid]
			edges[2*i] = boundEdge{t: pb.Min[axis], primIdx: int(pid), starting: true}
			edges[2*i+1] = boundEdge{t: pb.Max[axis], primIdx: int(pid), starting: false}
		}
		active := edges[:2*primCount]
		sort.SliceStable(active, func(i, j int) bool {
			if active[i].t == active[j].t {
				return boolToInt(active[i].starting) < boolToInt(active[j].starting)
			}
			return active[i].t < active[j].t
		})

		belowCount, aboveCount = 0, primCount
		otherAxis1, otherAxis2 := (axis+1)%3, (axis+2)%3
		for i := range active {
			if !active[i].starting {
				aboveCount--
			}
			t := active[i].t
			if t > curBounds.Min[axis] && t < curBounds.Max[axis] {
				belowArea := 2 * (diag[otherAxis1]*diag[otherAxis2] + (t-curBounds.Min[axis])*(diag[otherAxis1]+diag[otherAxis2]))
				aboveArea := 2 * (diag[otherAxis1]*diag[otherAxis2] + (curBounds.Max[axis]-t)*(diag[otherAxis1]+diag[otherAxis2]))
				belowProb := belowArea * invArea
				aboveProb := aboveArea * invArea

				var bonus float32
				if aboveCount == 0 || belowCount == 0 {
					bonus = b.tree.emptyBonus
				}
				cost := b.tree.traversalCost + b.tree.intersectionCost*(1-bonus)*(belowProb*float32(belowCount)+aboveProb*float32(aboveCount))
				if cost < bestCost {
					bestCost = cost
					bestAxis = axis
					bestOffset = i
				}
			}
			if active[i].starting {
				belowCount++
			}
		}

		if bestAxis == -1 && retries < 2 {
			retries++
			axis = (axis + 1) % 3
			continue
		}
		break
	}

	if Debug {
		debugAssert(belowCount == primCount && aboveCount == 0)
	}

	if bestCost > oldCost {
		badRefines++
	}
	if (bestCost > 4*oldCost && primCount < 16) || bestAxis == -1 || badRefines == 3 {
		b.tree.leafCount++
		b.nodes[nodeIdx].initLeaf(primIds, &b.primIds)
		return
	}

	edges := b.edges[bestAxis][:2*primCount]
	below := make([]uint32, 0, primCount)
	above := make([]uint32, 0, primCount)
	for i := 0; i < bestOffset; i++ {
		if edges[i].starting {
			below = append(below, uint32(edges[i].primIdx))
		}
	}
	for i := bestOffset + 1; i < len(edges); i++ {
		if !edges[i].starting {
			above = append(above, uint32(edges[i].primIdx))
		}
	}

	tSplit := edges[bestOffset].t
	bounds0, bounds1 := curBounds, curBounds
	bounds0.Max[bestAxis] = tSplit
	bounds1.Min[bestAxis] = tSplit

	b.build(nodeIdx+1, bounds0, below, depthLeft-1, badRefines)

	aboveChild := b.nextFree
	b.nodes[nodeIdx].initInterior(uint8(bestAxis), uint32(aboveChild), tSplit)
	b.build(aboveChild, bounds1, above, depthLeft-1, badRefines)
}

func boolToInt(v bool) int {
	if v {
		return 0
	}
	return 1
}

func debugAssert(cond bool) {
	if !cond {
		panic("kdtree: belowCount/aboveCount invariant violated")
	}
}

// Intersect implements accel.Accelerator. Traversal descends the split
// plane the ray crosses first, pushing the far side onto an explicit
// stack only when the ray actually straddles the plane.
func (k *KDTree) Intersect(ray types.Ray, tMin, tMax float32, hit *prim.Intersection) (bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.built {
		return false, accelopt.ErrInvalidState
	}
	if len(k.nodes) == 0 {
		return false, nil
	}
	if _, _, ok := k.bounds.IntersectP(ray, tMin, tMax); !ok {
		return false, nil
	}

	invDir := ray.InvDir()

	// min/max track the closest-hit window across the whole traversal and
	// are only ever tightened by a primitive hit; tMin/tMax are the
	// per-segment split bookkeeping variables pushed and popped on the
	// stack below. Folding these into one pair lets a stack pop restore a
	// stale, pre-tightening tMax and re-widen the search past an
	// already-found closer hit.
	min, max := tMin, tMax

	type todoItem struct {
		nodeIdx    int
		tMin, tMax float32
	}
	var stack [64]todoItem
	sp := 0

	hasHit := false
	nodeIdx := 0

	for {
		if max < tMin {
			break
		}
		n := &k.nodes[nodeIdx]
		if !n.isLeaf() {
			axis := n.splitAxis()
			plane := (n.splitPos() - ray.Origin[axis]) * invDir[axis]

			var firstChild, secondChild int
			below := ray.Origin[axis] < n.splitPos() || (ray.Origin[axis] == n.splitPos() && ray.Dir[axis] <= 0)
			if below {
				firstChild = nodeIdx + 1
				secondChild = int(n.aboveChild())
			} else {
				firstChild = int(n.aboveChild())
				secondChild = nodeIdx + 1
			}

			switch {
			case plane > tMax || plane <= 0:
				nodeIdx = firstChild
			case plane < tMin:
				nodeIdx = secondChild
			default:
				stack[sp] = todoItem{nodeIdx: secondChild, tMin: plane, tMax: tMax}
				sp++
				nodeIdx = firstChild
				tMax = plane
			}
			continue
		}

		count := n.primCount()
		if count == 1 {
			p := k.primitives[n.onePrim()]
			if p.Intersect(ray, min, max, hit) {
				hasHit = true
				max = hit.T
			}
		} else {
			offset := n.primIdxOffset()
			for i := uint32(0); i < count; i++ {
				p := k.primitives[k.primIds[offset+i]]
				if p.Intersect(ray, min, max, hit) {
					hasHit = true
					max = hit.T
				}
			}
		}

		if sp == 0 {
			break
		}
		sp--
		nodeIdx = stack[sp].nodeIdx
		tMin = stack[sp].tMin
		tMax = stack[sp].tMax
	}

	return hasHit, nil
}
