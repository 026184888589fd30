package kdtree_test

import (
	"testing"

	"github.com/bojosos/Ray-traching-course/accel/accelopt"
	"github.com/bojosos/Ray-traching-course/accel/kdtree"
	"github.com/bojosos/Ray-traching-course/bench"
	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/types"
)

func buildKDTree(t *testing.T, prims []prim.Intersectable, purpose prim.Purpose) *kdtree.KDTree {
	t.Helper()
	tree := kdtree.New()
	for _, p := range prims {
		if err := tree.AddPrimitive(p); err != nil {
			t.Fatalf("AddPrimitive: %v", err)
		}
	}
	if err := tree.Build(purpose); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !tree.IsBuilt() {
		t.Fatal("IsBuilt() = false after Build")
	}
	return tree
}

func TestKDTreeEmptyScene(t *testing.T) {
	tree := buildKDTree(t, bench.EmptyScene(), prim.Mesh)
	var hit prim.Intersection
	ok, err := tree.Intersect(types.NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1)), 0, 1e30, &hit)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if ok {
		t.Fatal("expected no hit against an empty scene")
	}
}

func TestKDTreeIntersectBeforeBuild(t *testing.T) {
	tree := kdtree.New()
	var hit prim.Intersection
	if _, err := tree.Intersect(types.NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1)), 0, 1e30, &hit); err == nil {
		t.Fatal("expected ErrInvalidState before Build")
	}
}

func TestKDTreeAddPrimitiveAfterBuild(t *testing.T) {
	tree := buildKDTree(t, bench.SingleSphere(), prim.Instances)
	if err := tree.AddPrimitive(bench.Sphere{Radius: 1}); err == nil {
		t.Fatal("expected ErrInvalidState after Build")
	}
}

func TestKDTreeSingleSphereHit(t *testing.T) {
	tree := buildKDTree(t, bench.SingleSphere(), prim.Instances)
	var hit prim.Intersection
	ok, err := tree.Intersect(types.NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1)), 0, 1e30, &hit)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit against the unit sphere")
	}
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	prims := bench.RandomSpheres(250, 99, 20, 0.2, 1.2)
	tree := buildKDTree(t, prims, prim.Mesh)

	rays := bench.RandomRays(300, 13, 25)
	results := bench.ParallelFuzz(tree, rays, 0, 1e30, 4)

	for i, ray := range rays {
		wantHit, want := bench.BruteForce(prims, ray, 0, 1e30)
		got := results[i]
		if got.Hit != wantHit {
			t.Fatalf("hit mismatch for ray %d: got %v want %v", i, got.Hit, wantHit)
		}
		if wantHit && absF32(got.Intersection.T-want.T) > 1e-2 {
			t.Fatalf("T mismatch for ray %d: got %v want %v", i, got.Intersection.T, want.T)
		}
	}
}

// TestKDTreeCoplanarSceneDoesNotDivideByZero builds over a scene flattened
// onto the z=0 plane, giving every node a thin near-planar bounding box
// along z, and checks build and query still complete without dividing by
// zero or propagating NaN split costs.
func TestKDTreeCoplanarSceneDoesNotDivideByZero(t *testing.T) {
	prims := bench.CoplanarSlab(120, 17, 12, 0.25)
	tree := buildKDTree(t, prims, prim.Mesh)
	rays := bench.RandomRays(80, 23, 15)
	for _, ray := range rays {
		var hit prim.Intersection
		if _, err := tree.Intersect(ray, 0, 1e30, &hit); err != nil {
			t.Fatalf("Intersect: %v", err)
		}
	}
}

func TestKDTreeClusteredCentroidsDoesNotPanic(t *testing.T) {
	prims := bench.ClusteredCentroids(64)
	tree := buildKDTree(t, prims, prim.Mesh)
	var hit prim.Intersection
	tree.Intersect(types.NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1)), 0, 1e30, &hit)
}

// TestKDTreeOutOfMemoryCap exercises the injectable node allocation cap:
// a MaxNodes far too small for the primitive count must abort the build
// with ErrOutOfMemory and leave the tree unbuilt, rather than panicking
// or silently truncating the tree.
func TestKDTreeOutOfMemoryCap(t *testing.T) {
	tree := kdtree.New(accelopt.WithParams(accelopt.Params{
		MinPrimsPerNode: 1,
		MaxNodes:        2,
	}))
	for _, p := range bench.RandomSpheres(200, 41, 20, 0.2, 1) {
		if err := tree.AddPrimitive(p); err != nil {
			t.Fatalf("AddPrimitive: %v", err)
		}
	}
	if err := tree.Build(prim.Mesh); err != accelopt.ErrOutOfMemory {
		t.Fatalf("Build: got %v, want ErrOutOfMemory", err)
	}
	if tree.IsBuilt() {
		t.Fatal("IsBuilt() = true after an aborted build")
	}
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
