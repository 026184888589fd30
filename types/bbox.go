package types

import "math"

// BBox is an axis-aligned bounding box. The empty box has Min set to
// +math.MaxFloat32 and Max set to -math.MaxFloat32 in every component
// (finite stand-ins for +Inf/-Inf), so that Add is a no-op identity for
// union.
type BBox struct {
	Min, Max Vec3
}

// EmptyBBox returns a BBox in its empty (inverted) state.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Add grows the box to also cover p.
func (b BBox) Add(p Vec3) BBox {
	return BBox{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Union grows the box to also cover other.
func (b BBox) Union(other BBox) BBox {
	return BBox{Min: MinVec3(b.Min, other.Min), Max: MaxVec3(b.Max, other.Max)}
}

// Area returns the surface area of the box. Zero for an empty box or one
// collapsed to a line or a point; a flat box (zero extent on one axis
// only) has a positive area.
func (b BBox) Area() float32 {
	d := b.Max.Sub(b.Min)
	if d[0] < 0 || d[1] < 0 || d[2] < 0 {
		return 0
	}
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[0]*d[2])
}

// MaxExtent returns the axis (0=x, 1=y, 2=z) along which the box has its
// largest extent. Ties are broken toward the lower-index axis.
func (b BBox) MaxExtent() int {
	d := b.Max.Sub(b.Min)
	axis := 0
	if d[1] > d[axis] {
		axis = 1
	}
	if d[2] > d[axis] {
		axis = 2
	}
	return axis
}

// Offset returns p expressed as a fraction of the box's extent along each
// axis, in [0,1]^3 for points inside the box. Along an axis whose extent
// is not positive (an empty or flat box) no division is done and the
// component is p minus Min, unnormalized.
func (b BBox) Offset(p Vec3) Vec3 {
	o := p.Sub(b.Min)
	d := b.Max.Sub(b.Min)
	for i := 0; i < 3; i++ {
		if d[i] > 0 {
			o[i] /= d[i]
		}
	}
	return o
}

// OctSplit subdivides the box at its midpoint into 8 child octants,
// written into out in fixed corner order: bit 0 of the index selects the
// X half, bit 1 the Y half, bit 2 the Z half (0 = lower half, 1 = upper
// half along that axis).
func (b BBox) OctSplit(out *[8]BBox) {
	mid := b.Min.Add(b.Max).Mul(0.5)
	for c := 0; c < 8; c++ {
		child := BBox{}
		for axis := 0; axis < 3; axis++ {
			if c&(1<<uint(axis)) == 0 {
				child.Min[axis] = b.Min[axis]
				child.Max[axis] = mid[axis]
			} else {
				child.Min[axis] = mid[axis]
				child.Max[axis] = b.Max[axis]
			}
		}
		out[c] = child
	}
}

// TestIntersect reports whether ray overlaps the box, via the standard
// slab test. Rays parallel to an axis produce +/-Inf reciprocal
// directions, which IEEE-754 arithmetic already resolves correctly, so
// no special-casing is required here.
func (b BBox) TestIntersect(ray Ray) bool {
	_, _, hit := b.IntersectP(ray, 0, float32(math.Inf(1)))
	return hit
}

// IntersectP performs the slab test and additionally returns the interval
// [tNear, tFar] over which the ray lies inside the box, clipped to the
// caller-supplied [tMin, tMax] range.
func (b BBox) IntersectP(ray Ray, tMin, tMax float32) (tNear, tFar float32, hit bool) {
	invDir := ray.InvDir()
	tNear, tFar = tMin, tMax
	for axis := 0; axis < 3; axis++ {
		t0 := (b.Min[axis] - ray.Origin[axis]) * invDir[axis]
		t1 := (b.Max[axis] - ray.Origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return tNear, tFar, false
		}
	}
	return tNear, tFar, true
}
