// Package bvh implements the HLBVH-with-SAH-upper-tree accelerator
// described in spec.md §4.3: Morton-code clustering of primitive
// centroids into treelets, per-treelet emit, a surface-area-heuristic
// upper tree connecting the treelet roots, DFS flattening to a linear
// array and stack-based ordered traversal. Grounded line-for-line on
// original_source's BVHTree (original_source/src/Accelerators.cpp), with
// the Go idiom (arena/index ownership, functional options, a `builder`
// struct holding a logger and running stats) carried over from
// achilleasa-polaris's own SAH-scoring BVH builders
// (asset/compiler/bvh/bvh_builder.go, scene/compiler/bvh_builder.go).
package bvh

import (
	"sort"
	"sync"
	"time"
	"unsafe"

	"github.com/bojosos/Ray-traching-course/accel/accelopt"
	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/telemetry"
	"github.com/bojosos/Ray-traching-course/types"
)

const (
	mortonBits    = 21
	mortonScale   = 1 << mortonBits
	topBitsMask   = 0x7ff8000000000000 // top 12 bits (62..51) of a 63-bit code
	firstTreeBit  = 50
	bucketCount   = 12
	upperTravCost = 0.125
)

// primInfo is build-time per-primitive scratch: its index into the
// caller's primitive slice, its bounding box, and its centroid.
type primInfo struct {
	idx    int
	bounds types.BBox
	center types.Vec3
}

// mortonPrim is build-time scratch: a primitive index paired with its
// 63-bit Morton code.
type mortonPrim struct {
	primIdx int
	code    uint64
}

// buildNode is the transient, build-time-only BVH node (spec.md §3
// "BVH Build Node"). primitiveCount == 0 marks an interior node.
type buildNode struct {
	bounds          types.BBox
	children        [2]*buildNode
	splitAxis       uint8
	firstPrimOffset int32
	primitiveCount  int32
}

func (n *buildNode) initLeaf(first, count int32, bounds types.BBox) {
	n.firstPrimOffset = first
	n.primitiveCount = count
	n.bounds = bounds
}

func (n *buildNode) initInterior(axis uint8, c0, c1 *buildNode) {
	n.bounds = c0.bounds.Union(c1.bounds)
	n.splitAxis = axis
	n.primitiveCount = 0
	n.children[0], n.children[1] = c0, c1
}

// arena is a bump allocator for buildNode: capacity is fixed up front
// (2x the treelet's primitive count, per spec.md §3 "Treelet"), so
// pointers into it stay valid for the arena's lifetime.
type arena struct {
	nodes []buildNode
}

func newArena(capacity int) *arena {
	return &arena{nodes: make([]buildNode, 0, capacity)}
}

func (a *arena) alloc() *buildNode {
	a.nodes = append(a.nodes, buildNode{})
	return &a.nodes[len(a.nodes)-1]
}

// LinearNode is the flattened, query-time BVH record (spec.md §3
// "BVH Linear Node"). Leaf iff PrimitiveCount > 0.
type LinearNode struct {
	Bounds             types.BBox
	PrimitivesOffset   int32 // valid when PrimitiveCount > 0
	SecondChildOffset  int32 // valid when PrimitiveCount == 0
	PrimitiveCount     uint16
	Axis               uint8
}

// BVH is a spec.md §4.3 accelerator.
type BVH struct {
	opts accelopt.Options

	mu         sync.RWMutex
	primitives []prim.Intersectable
	built      bool

	nodes        []LinearNode
	orderedPrims []prim.Intersectable

	maxPrimsPerNode  int32
	intersectionCost float32
	traversalCost    float32

	stats stats
}

type stats struct {
	nodeCount         int
	leafCount         int
	skippedDegenerate int
}

// New constructs an empty BVH.
func New(opts ...accelopt.Option) *BVH {
	return &BVH{opts: accelopt.Build("bvh", opts...)}
}

// AddPrimitive implements accel.Accelerator.
func (t *BVH) AddPrimitive(p prim.Intersectable) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.built {
		return accelopt.ErrInvalidState
	}
	t.primitives = append(t.primitives, p)
	return nil
}

// IsBuilt implements accel.Accelerator.
func (t *BVH) IsBuilt() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.built
}

// Build implements accel.Accelerator. See spec.md §4.3 phases A-F.
func (t *BVH) Build(purpose prim.Purpose) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	params := accelopt.ParamsFor(accelopt.BVH, purpose)
	if t.opts.Params != nil {
		params = *t.opts.Params
	}
	t.maxPrimsPerNode = int32(maxInt(1, params.MinPrimsPerNode))
	t.intersectionCost = params.IntersectionCost
	t.traversalCost = params.TraversalCost
	t.stats = stats{}

	start := time.Now()

	if len(t.primitives) == 0 {
		t.nodes = nil
		t.orderedPrims = nil
		t.built = true
		t.report(start)
		return nil
	}

	// Phase A: per-primitive bounds and centroids.
	infos := make([]primInfo, len(t.primitives))
	centroidBounds := types.EmptyBBox()
	for i, p := range t.primitives {
		b := types.EmptyBBox()
		p.ExpandBox(&b)
		center := b.Min.Add(b.Max).Mul(0.5)
		infos[i] = primInfo{idx: i, bounds: b, center: center}
		centroidBounds = centroidBounds.Add(center)
	}

	// Phase B: Morton codes.
	mortonPrims := make([]mortonPrim, len(infos))
	for i, info := range infos {
		offset := centroidBounds.Offset(info.center)
		x := clampMorton(offset[0] * mortonScale)
		y := clampMorton(offset[1] * mortonScale)
		z := clampMorton(offset[2] * mortonScale)
		mortonPrims[i] = mortonPrim{primIdx: info.idx, code: encodeMorton3(x, y, z)}
	}
	sort.SliceStable(mortonPrims, func(i, j int) bool {
		return mortonPrims[i].code < mortonPrims[j].code
	})

	// Phase C: cluster into treelets on the top 12 Morton bits.
	type treeletRange struct{ start, count int }
	var ranges []treeletRange
	rangeStart := 0
	for end := 1; end < len(mortonPrims); end++ {
		if (mortonPrims[rangeStart].code & topBitsMask) != (mortonPrims[end].code & topBitsMask) {
			ranges = append(ranges, treeletRange{rangeStart, end - rangeStart})
			rangeStart = end
		}
	}
	ranges = append(ranges, treeletRange{rangeStart, len(mortonPrims) - rangeStart})

	// Phase D: emit each treelet.
	t.orderedPrims = make([]prim.Intersectable, len(t.primitives))
	orderedOffset := 0
	roots := make([]*buildNode, len(ranges))
	for i, r := range ranges {
		ar := newArena(2 * r.count)
		roots[i] = t.emitTreelet(ar, mortonPrims[r.start:r.start+r.count], infos, &orderedOffset, firstTreeBit)
	}

	// Phase E: SAH upper tree over the treelet roots.
	root := t.connectTreelets(roots)

	// Phase F: flatten to the query-time linear array.
	t.nodes = make([]LinearNode, 0, t.stats.nodeCount)
	t.flatten(root)
	t.built = true

	elapsed := time.Since(start)
	t.opts.Logger.Debugf(
		"bvh build: %d primitives, %d treelets, %d nodes, %d leafs, %s",
		len(t.primitives), len(ranges), t.stats.nodeCount, t.stats.leafCount, elapsed,
	)
	t.report(start)
	return nil
}

func (t *BVH) report(start time.Time) {
	t.opts.Sink.ReportBuild(telemetry.BuildReport{
		Variant:           "bvh",
		BuildTime:         time.Since(start),
		NodeCount:         t.stats.nodeCount,
		LeafCount:         t.stats.leafCount,
		PrimitiveCount:    len(t.primitives),
		SkippedDegenerate: t.stats.skippedDegenerate,
		Bytes:             t.byteEstimate(),
	})
}

// byteEstimate mirrors original_source's LOG_ACCEL_BUILD byte figure:
// node count times the flattened LinearNode size, plus the struct
// itself, plus one interface header per ordered primitive reference.
func (t *BVH) byteEstimate() int64 {
	var oneNode LinearNode
	var onePrim prim.Intersectable
	return int64(t.stats.nodeCount)*int64(unsafe.Sizeof(oneNode)) +
		int64(unsafe.Sizeof(*t)) +
		int64(len(t.orderedPrims))*int64(unsafe.Sizeof(onePrim))
}

// emitTreelet recursively splits on descending Morton bits (spec.md §4.3
// Phase D), binary-searching for the 0->1 transition on the current bit.
func (t *BVH) emitTreelet(ar *arena, morton []mortonPrim, infos []primInfo, orderedOffset *int, bitIndex int) *buildNode {
	primitiveCount := int32(len(morton))
	if bitIndex == -1 || primitiveCount < t.maxPrimsPerNode {
		n := ar.alloc()
		t.stats.nodeCount++
		t.stats.leafCount++
		firstOffset := int32(*orderedOffset)
		bounds := types.EmptyBBox()
		for i, mp := range morton {
			t.orderedPrims[int(firstOffset)+i] = t.primitives[mp.primIdx]
			bounds = bounds.Union(infos[mp.primIdx].bounds)
		}
		*orderedOffset += len(morton)
		n.initLeaf(firstOffset, primitiveCount, bounds)
		return n
	}

	mask := uint64(1) << uint(bitIndex)
	if (morton[0].code & mask) == (morton[len(morton)-1].code & mask) {
		return t.emitTreelet(ar, morton, infos, orderedOffset, bitIndex-1)
	}

	lo, hi := 0, len(morton)-1
	for lo+1 != hi {
		mid := (lo + hi) / 2
		if (morton[lo].code & mask) == (morton[mid].code & mask) {
			lo = mid
		} else {
			hi = mid
		}
	}
	splitOffset := hi

	n := ar.alloc()
	t.stats.nodeCount++
	left := t.emitTreelet(ar, morton[:splitOffset], infos, orderedOffset, bitIndex-1)
	right := t.emitTreelet(ar, morton[splitOffset:], infos, orderedOffset, bitIndex-1)
	n.initInterior(uint8(bitIndex%3), left, right)
	return n
}

// connectTreelets builds the SAH upper tree over the treelet roots
// (spec.md §4.3 Phase E). Uses the corrected bucket-accumulation form
// (count1 over buckets strictly above the split) — see DESIGN.md's Open
// Question decisions for the original's off-by-one.
func (t *BVH) connectTreelets(roots []*buildNode) *buildNode {
	if len(roots) == 1 {
		return roots[0]
	}
	t.stats.nodeCount++

	bounds := types.EmptyBBox()
	centroidBounds := types.EmptyBBox()
	for _, r := range roots {
		bounds = bounds.Union(r.bounds)
		centroidBounds = centroidBounds.Add(r.bounds.Min.Add(r.bounds.Max).Mul(0.5))
	}

	dim := centroidBounds.MaxExtent()
	extent := centroidBounds.Max[dim] - centroidBounds.Min[dim]
	if extent <= 0 {
		t.stats.skippedDegenerate++
		t.opts.Logger.Debugf("%s: %d treelet roots share a centroid, forcing bucket 0", accelopt.ErrDegenerateGeometry, len(roots))
	}

	type bucket struct {
		count  int
		bounds types.BBox
	}
	var buckets [bucketCount]bucket
	for i := range buckets {
		buckets[i].bounds = types.EmptyBBox()
	}
	bucketOf := func(r *buildNode) int {
		if extent <= 0 {
			return 0
		}
		centroid := (r.bounds.Min[dim] + r.bounds.Max[dim]) * 0.5
		b := int(bucketCount * (centroid - centroidBounds.Min[dim]) / extent)
		if b >= bucketCount {
			b = bucketCount - 1
		}
		if b < 0 {
			b = 0
		}
		return b
	}
	for _, r := range roots {
		b := bucketOf(r)
		buckets[b].count++
		buckets[b].bounds = buckets[b].bounds.Union(r.bounds)
	}

	bestCost := float32(-1)
	bestSplit := 0
	totalArea := bounds.Area()
	for i := 0; i < bucketCount-1; i++ {
		b0, b1 := types.EmptyBBox(), types.EmptyBBox()
		count0, count1 := 0, 0
		for j := 0; j <= i; j++ {
			b0 = b0.Union(buckets[j].bounds)
			count0 += buckets[j].count
		}
		for j := i + 1; j < bucketCount; j++ {
			b1 = b1.Union(buckets[j].bounds)
			count1 += buckets[j].count
		}
		var cost float32
		if totalArea > 0 {
			cost = upperTravCost + t.intersectionCost*(float32(count0)*b0.Area()+float32(count1)*b1.Area())/totalArea
		} else {
			cost = upperTravCost
		}
		if bestCost < 0 || cost < bestCost {
			bestCost = cost
			bestSplit = i
		}
	}

	mid := partitionRoots(roots, func(r *buildNode) bool { return bucketOf(r) <= bestSplit })
	// Guard against a degenerate partition (every root landed in the same
	// bucket): fall back to a median split so recursion still terminates.
	if mid == 0 || mid == len(roots) {
		mid = len(roots) / 2
	}

	n := &buildNode{}
	left := t.connectTreelets(roots[:mid])
	right := t.connectTreelets(roots[mid:])
	n.initInterior(uint8(dim), left, right)
	return n
}

// partitionRoots reorders roots in place so every element for which
// keep returns true comes first, and returns the partition point.
func partitionRoots(roots []*buildNode, keep func(*buildNode) bool) int {
	i := 0
	for j := 0; j < len(roots); j++ {
		if keep(roots[j]) {
			roots[i], roots[j] = roots[j], roots[i]
			i++
		}
	}
	return i
}

// flatten walks the build tree in pre-order (DFS), appending LinearNode
// records. Matches spec.md §4.3 Phase F: the first child of an interior
// node always lives at self+1.
func (t *BVH) flatten(n *buildNode) int {
	myIndex := len(t.nodes)
	t.nodes = append(t.nodes, LinearNode{Bounds: n.bounds})
	if n.primitiveCount > 0 {
		t.nodes[myIndex].PrimitivesOffset = n.firstPrimOffset
		t.nodes[myIndex].PrimitiveCount = uint16(n.primitiveCount)
		return myIndex
	}
	t.nodes[myIndex].Axis = n.splitAxis
	t.flatten(n.children[0])
	t.nodes[myIndex].SecondChildOffset = int32(t.flatten(n.children[1]))
	return myIndex
}

// Intersect implements accel.Accelerator. Traversal uses an explicit
// stack of at most 64 node indices and visits the near child first,
// determined by the ray direction's sign on the node's split axis
// (spec.md §4.3 traversal).
func (t *BVH) Intersect(ray types.Ray, tMin, tMax float32, hit *prim.Intersection) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.built {
		return false, accelopt.ErrInvalidState
	}
	if tMax <= tMin || len(t.nodes) == 0 {
		return false, nil
	}

	invDir := ray.InvDir()
	var negDir [3]bool
	for i := 0; i < 3; i++ {
		negDir[i] = invDir[i] < 0
	}

	var stack [64]int32
	sp := 0
	current := int32(0)
	hasHit := false

	for {
		node := &t.nodes[current]
		if _, _, ok := node.Bounds.IntersectP(ray, tMin, tMax); ok {
			if node.PrimitiveCount > 0 {
				for i := 0; i < int(node.PrimitiveCount); i++ {
					p := t.orderedPrims[int(node.PrimitivesOffset)+i]
					if p.Intersect(ray, tMin, tMax, hit) {
						hasHit = true
						tMax = hit.T
					}
				}
				if sp == 0 {
					break
				}
				sp--
				current = stack[sp]
			} else {
				if negDir[node.Axis] {
					stack[sp] = current + 1
					sp++
					current = node.SecondChildOffset
				} else {
					stack[sp] = node.SecondChildOffset
					sp++
					current++
				}
			}
		} else {
			if sp == 0 {
				break
			}
			sp--
			current = stack[sp]
		}
	}
	return hasHit, nil
}

func clampMorton(v float32) uint32 {
	if v < 0 {
		return 0
	}
	if v > mortonScale-1 {
		return mortonScale - 1
	}
	return uint32(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
