package accel_test

import (
	"testing"

	"github.com/bojosos/Ray-traching-course/accel"
	"github.com/bojosos/Ray-traching-course/bench"
	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/types"
)

var allKinds = []accel.Kind{accel.Octree, accel.BVH, accel.KDTree}

func buildAccel(t *testing.T, kind accel.Kind, prims []prim.Intersectable, purpose prim.Purpose) accel.Accelerator {
	t.Helper()
	acc, err := accel.New(kind)
	if err != nil {
		t.Fatalf("New(%v): %v", kind, err)
	}
	for _, p := range prims {
		if err := acc.AddPrimitive(p); err != nil {
			t.Fatalf("AddPrimitive: %v", err)
		}
	}
	if err := acc.Build(purpose); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return acc
}

func absDiff(a, b float32) float32 {
	if a < b {
		return b - a
	}
	return a - b
}

// TestScenarioS1SingleSphere is spec.md §8's S1: a unit sphere at the
// origin, queried head-on from (0,0,5). The ray covers 4 units before
// reaching the sphere's near pole.
func TestScenarioS1SingleSphere(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			acc := buildAccel(t, kind, bench.SingleSphere(), prim.Instances)
			ray := types.NewRay(types.XYZ(0, 0, 5), types.XYZ(0, 0, -1))
			var hit prim.Intersection
			ok, err := acc.Intersect(ray, 0, 1e30, &hit)
			if err != nil {
				t.Fatalf("Intersect: %v", err)
			}
			if !ok {
				t.Fatal("expected a hit")
			}
			if absDiff(hit.T, 4.0) > 1e-3 {
				t.Fatalf("t = %v, want ~4.0", hit.T)
			}
		})
	}
}

// cubeCornerSpheres builds spec.md §8's S2/S3 scene: eight spheres
// centered at the corners of the ±1 cube, each tagged with its own
// corner so a test can identify exactly which sphere was hit.
func cubeCornerSpheres(radius float32) []prim.Intersectable {
	var out []prim.Intersectable
	for _, x := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, z := range []float32{-1, 1} {
				corner := types.XYZ(x, y, z)
				out = append(out, bench.Sphere{Center: corner, Radius: radius, Material: corner})
			}
		}
	}
	return out
}

// TestScenarioS2CubeCornerNearestHit is spec.md §8's S2: querying the
// ±1-corner-sphere cube from (2,2,2) along -(1,1,1)/√3 must report the
// nearest corner, (1,1,1), not any of the farther seven.
func TestScenarioS2CubeCornerNearestHit(t *testing.T) {
	prims := cubeCornerSpheres(0.4)
	dir := types.XYZ(-1, -1, -1).Normalize()
	ray := types.NewRay(types.XYZ(2, 2, 2), dir)
	want := types.XYZ(1, 1, 1)

	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			acc := buildAccel(t, kind, prims, prim.Mesh)
			var hit prim.Intersection
			ok, err := acc.Intersect(ray, 0, 1e30, &hit)
			if err != nil {
				t.Fatalf("Intersect: %v", err)
			}
			if !ok {
				t.Fatal("expected a hit")
			}
			got, ok := hit.Material.(types.Vec3)
			if !ok || got != want {
				t.Fatalf("nearest hit corner = %v, want %v", hit.Material, want)
			}
		})
	}
}

// TestScenarioS3Miss is spec.md §8's S3: the same cube-corner scene as
// S2, queried from well outside its bounds along a direction that never
// crosses any corner sphere.
func TestScenarioS3Miss(t *testing.T) {
	prims := cubeCornerSpheres(0.4)
	ray := types.NewRay(types.XYZ(10, 10, 10), types.XYZ(1, 0, 0))

	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			acc := buildAccel(t, kind, prims, prim.Mesh)
			var hit prim.Intersection
			ok, err := acc.Intersect(ray, 0, 1e30, &hit)
			if err != nil {
				t.Fatalf("Intersect: %v", err)
			}
			if ok {
				t.Fatalf("expected a miss, got a hit at t=%v", hit.T)
			}
		})
	}
}

// TestScenarioS4GrazingRayIsAMiss is spec.md §8's S4: a ray exactly
// tangent to a unit sphere at the origin (o=(2,1,0), d=(-1,0,0)) must be
// reported as a miss, both at the primitive level and through every
// accelerator.
func TestScenarioS4GrazingRayIsAMiss(t *testing.T) {
	sphere := bench.Sphere{Center: types.XYZ(0, 0, 0), Radius: 1}
	ray := types.NewRay(types.XYZ(2, 1, 0), types.XYZ(-1, 0, 0))

	var hit prim.Intersection
	if sphere.Intersect(ray, 0, 1e30, &hit) {
		t.Fatalf("bench.Sphere: expected a tangent-miss, got a hit at t=%v", hit.T)
	}

	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			acc := buildAccel(t, kind, []prim.Intersectable{sphere}, prim.Instances)
			var hit prim.Intersection
			ok, err := acc.Intersect(ray, 0, 1e30, &hit)
			if err != nil {
				t.Fatalf("Intersect: %v", err)
			}
			if ok {
				t.Fatalf("expected a tangent-miss, got a hit at t=%v", hit.T)
			}
		})
	}
}

// TestScenarioS5LargeSceneAgreement is spec.md §8's S5: 10,000 uniformly
// placed radius-0.3 spheres in [-50,50]³ queried by 5,000 random rays,
// asserting every accelerator agrees with brute force to within 1e-4 of
// t. Skipped under -short since it is the one scenario whose literal
// scale makes brute-force cross-checking expensive.
func TestScenarioS5LargeSceneAgreement(t *testing.T) {
	if testing.Short() {
		t.Skip("S5 brute-force cross-check at 10k primitives / 5k rays is slow; skipping under -short")
	}

	prims := bench.RandomSpheres(10000, 5, 50, 0.3, 0.3)
	rays := bench.RandomRays(5000, 6, 50)

	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			acc := buildAccel(t, kind, prims, prim.Mesh)
			results := bench.ParallelFuzz(acc, rays, 0, 1e30, 0)
			for i, ray := range rays {
				wantHit, want := bench.BruteForce(prims, ray, 0, 1e30)
				got := results[i]
				if got.Err != nil {
					t.Fatalf("Intersect: %v", got.Err)
				}
				if got.Hit != wantHit {
					t.Fatalf("ray %d: hit=%v, want %v", i, got.Hit, wantHit)
				}
				if wantHit && absDiff(got.Intersection.T, want.T) > 1e-4 {
					t.Fatalf("ray %d: t=%v, want %v", i, got.Intersection.T, want.T)
				}
			}
		})
	}
}

// TestScenarioS6EmptyBuild is spec.md §8's S6: building over zero
// primitives leaves the accelerator built (IsBuilt() is true because
// Build was called) but every query immediately reports a miss.
func TestScenarioS6EmptyBuild(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			acc := buildAccel(t, kind, bench.EmptyScene(), prim.Mesh)
			if !acc.IsBuilt() {
				t.Fatal("IsBuilt() = false after Build over zero primitives")
			}
			var hit prim.Intersection
			ok, err := acc.Intersect(types.NewRay(types.XYZ(0, 0, 5), types.XYZ(0, 0, -1)), 0, 1e30, &hit)
			if err != nil {
				t.Fatalf("Intersect: %v", err)
			}
			if ok {
				t.Fatal("expected a miss against an empty build")
			}
		})
	}
}
