package bench

import (
	"math/rand"

	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/types"
)

// EmptyScene returns no primitives, exercising the zero-primitive build
// path every accelerator must handle without panicking.
func EmptyScene() []prim.Intersectable {
	return nil
}

// SingleSphere returns a single unit sphere at the origin.
func SingleSphere() []prim.Intersectable {
	return []prim.Intersectable{Sphere{Center: types.XYZ(0, 0, 0), Radius: 1}}
}

// ClusteredCentroids returns spheres whose centers all coincide (only
// their radii differ), forcing the zero-extent degenerate case in
// centroid-bounds-based Morton scaling: every primitive gets the same
// Morton code, so a BVH build puts them all in a single treelet.
func ClusteredCentroids(n int) []prim.Intersectable {
	out := make([]prim.Intersectable, n)
	for i := 0; i < n; i++ {
		out[i] = Sphere{Center: types.XYZ(0, 0, 0), Radius: float32(i+1) * 0.1}
	}
	return out
}

// AxisAlignedGrid returns a regular n x n x n grid of small spheres,
// spaced so neighboring cells never overlap. Useful for exercising
// octree/BVH/K-D subdivision against a scene with well separated,
// evenly distributed primitives.
func AxisAlignedGrid(n int) []prim.Intersectable {
	const spacing = 2.0
	const radius = 0.3
	out := make([]prim.Intersectable, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				center := types.XYZ(float32(x)*spacing, float32(y)*spacing, float32(z)*spacing)
				out = append(out, Sphere{Center: center, Radius: radius})
			}
		}
	}
	return out
}

// RandomSpheres returns n spheres with centers uniformly distributed in
// [-extent, extent]^3 and radii in [minRadius, maxRadius], generated
// from a seeded RNG so callers get deterministic, reproducible scenes.
func RandomSpheres(n int, seed int64, extent, minRadius, maxRadius float32) []prim.Intersectable {
	rng := rand.New(rand.NewSource(seed))
	out := make([]prim.Intersectable, n)
	for i := 0; i < n; i++ {
		center := types.XYZ(
			(rng.Float32()*2-1)*extent,
			(rng.Float32()*2-1)*extent,
			(rng.Float32()*2-1)*extent,
		)
		radius := minRadius + rng.Float32()*(maxRadius-minRadius)
		out[i] = Sphere{Center: center, Radius: radius}
	}
	return out
}

// CoplanarSlab returns spheres whose centers all lie in the z=0 plane,
// giving the centroid bounds zero extent along z while the scene bounds
// are only 2*radius thick there. Exercises BBox.Offset, BBox.Area and
// BBox.MaxExtent on flat and thin boxes.
func CoplanarSlab(n int, seed int64, extent, radius float32) []prim.Intersectable {
	rng := rand.New(rand.NewSource(seed))
	out := make([]prim.Intersectable, n)
	for i := 0; i < n; i++ {
		center := types.XYZ(
			(rng.Float32()*2-1)*extent,
			(rng.Float32()*2-1)*extent,
			0,
		)
		out[i] = Sphere{Center: center, Radius: radius}
	}
	return out
}
