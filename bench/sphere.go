// Package bench provides synthetic scenes and a parallel query harness
// used to test and compare accel.Accelerator implementations. Its Sphere
// fixture and cross-accelerator fuzz driver are grounded on
// other_examples/sandeepkv93-concurrency-in-golang__parallelraytracer.go's
// Sphere.Hit and worker-pool patterns, generalized to the
// prim.Intersectable contract.
package bench

import (
	"math"

	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/types"
)

// Sphere is a minimal prim.Intersectable used by tests and the bench
// scenes. Material is opaque and only round-tripped, never interpreted.
type Sphere struct {
	Center   types.Vec3
	Radius   float32
	Material prim.MaterialRef
}

// ExpandBox implements prim.Intersectable.
func (s Sphere) ExpandBox(box *types.BBox) {
	r := types.XYZ(s.Radius, s.Radius, s.Radius)
	*box = box.Add(s.Center.Sub(r)).Add(s.Center.Add(r))
}

// BoxIntersect implements prim.Intersectable via the closest-point
// clamp test: the sphere overlaps box iff the closest point on box to
// the sphere's center is within Radius of it.
func (s Sphere) BoxIntersect(box types.BBox) bool {
	var distSq float32
	for axis := 0; axis < 3; axis++ {
		v := s.Center[axis]
		if v < box.Min[axis] {
			d := box.Min[axis] - v
			distSq += d * d
		} else if v > box.Max[axis] {
			d := v - box.Max[axis]
			distSq += d * d
		}
	}
	return distSq <= s.Radius*s.Radius
}

// Intersect implements prim.Intersectable via the standard ray/sphere
// quadratic.
func (s Sphere) Intersect(ray types.Ray, tMin, tMax float32, hit *prim.Intersection) bool {
	oc := ray.Origin.Sub(s.Center)
	a := ray.Dir.Dot(ray.Dir)
	halfB := oc.Dot(ray.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant <= 0 {
		return false
	}
	sqrtD := float32(math.Sqrt(float64(discriminant)))

	root := (-halfB - sqrtD) / a
	if root <= tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root <= tMin || root > tMax {
			return false
		}
	}

	point := ray.At(root)
	hit.T = root
	hit.Point = point
	hit.Normal = point.Sub(s.Center).Mul(1 / s.Radius)
	hit.Material = s.Material
	return true
}
