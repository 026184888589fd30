package accel

import (
	"github.com/bojosos/Ray-traching-course/accel/bvh"
	"github.com/bojosos/Ray-traching-course/accel/kdtree"
	"github.com/bojosos/Ray-traching-course/accel/octree"
)

// New constructs a fresh, empty accelerator of the requested kind. It
// returns ErrUnknownKind for a kind outside {Octree, BVH, KDTree} rather
// than silently defaulting — see DESIGN.md's Open Question decisions for
// why this departs from original_source's makeAccelerator, which falls
// through to an Octree on an unrecognized enum value.
func New(kind Kind, opts ...Option) (Accelerator, error) {
	switch kind {
	case Octree:
		return octree.New(opts...), nil
	case BVH:
		return bvh.New(opts...), nil
	case KDTree:
		return kdtree.New(opts...), nil
	default:
		return nil, ErrUnknownKind
	}
}

// MustNew behaves like New but preserves original_source's tolerant
// fallback: an unrecognized kind silently builds an Octree instead of
// returning an error. Present for callers that specifically want parity
// with the original C++ factory's behavior (spec.md §9 Open Question 3).
func MustNew(kind Kind, opts ...Option) Accelerator {
	acc, err := New(kind, opts...)
	if err != nil {
		return octree.New(opts...)
	}
	return acc
}
