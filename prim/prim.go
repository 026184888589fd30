// Package prim defines the capability contract accelerators use to talk to
// externally-owned scene geometry (see spec.md §2.2 "Primitive Interface"
// and §6 "External Interfaces"). The core never constructs primitives; it
// only calls back into them.
package prim

import "github.com/bojosos/Ray-traching-course/types"

// MaterialRef is an opaque handle to whatever material system the
// renderer uses. The acceleration core never looks inside it.
type MaterialRef interface{}

// Intersection is the result of a successful ray/primitive hit. The core
// treats every field except T as opaque payload owned by the primitive
// that populated it.
type Intersection struct {
	T        float32
	Point    types.Vec3
	Normal   types.Vec3
	Material MaterialRef
}

// Intersectable is the capability every scene primitive must expose to be
// usable with an accelerator. Concrete primitive types (triangles,
// spheres, instancers, ...) live outside this module.
type Intersectable interface {
	// ExpandBox grows box to also cover this primitive.
	ExpandBox(box *types.BBox)

	// BoxIntersect reports whether this primitive overlaps box. A
	// conservative overestimate (reporting overlap when there isn't one)
	// is permitted; a false negative is not.
	BoxIntersect(box types.BBox) bool

	// Intersect tests this primitive against ray over the open-closed
	// interval (tMin, tMax]. On a hit it populates hit and returns true;
	// hit.T must hold the hit distance.
	Intersect(ray types.Ray, tMin, tMax float32, hit *Intersection) bool
}

// Purpose hints how an accelerator should tune its build parameters (see
// spec.md §4.1's per-purpose parameter table).
type Purpose int

const (
	// Instances is used for top-level scenes made of relatively few,
	// possibly large, per-instance-transformed objects.
	Instances Purpose = iota
	// Mesh is used for the (often triangle-heavy) geometry inside a
	// single mesh instance.
	Mesh
)

// String implements fmt.Stringer for log messages.
func (p Purpose) String() string {
	switch p {
	case Instances:
		return "instances"
	case Mesh:
		return "mesh"
	default:
		return "unknown"
	}
}
