// Package accel defines the shared ray/scene intersection accelerator
// contract (see spec.md §4.1) and a factory for the three concrete
// implementations under accel/octree, accel/bvh and accel/kdtree.
package accel

import (
	"github.com/bojosos/Ray-traching-course/accel/accelopt"
	"github.com/bojosos/Ray-traching-course/log"
	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/telemetry"
	"github.com/bojosos/Ray-traching-course/types"
)

// Accelerator is the contract every spatial index implements.
type Accelerator interface {
	// AddPrimitive appends p to the working set. Returns
	// ErrInvalidState if called after Build.
	AddPrimitive(p prim.Intersectable) error

	// Build (re)builds the tree from the current working set, tuned for
	// purpose. Idempotent-destructive: calling it again discards any
	// prior tree.
	Build(purpose prim.Purpose) error

	// Intersect reports whether any primitive is hit within
	// (tMin, tMax]. On a hit, hit.T holds the closest distance and hit
	// holds that primitive's surface data. Safe for concurrent use by
	// multiple goroutines passing distinct hit pointers, once Build has
	// returned. Returns ErrInvalidState if called before Build.
	Intersect(ray types.Ray, tMin, tMax float32, hit *prim.Intersection) (bool, error)

	// IsBuilt reports whether the most recent Build call completed
	// successfully. A Build that returns an error leaves it false.
	IsBuilt() bool
}

// Kind identifies which concrete accelerator to build.
type Kind = accelopt.Kind

const (
	Octree = accelopt.Octree
	BVH    = accelopt.BVH
	KDTree = accelopt.KDTree
)

// Params tunes accelerator construction; see ParamsFor for the spec.md
// §4.1 per-purpose defaults.
type Params = accelopt.Params

// ParamsFor returns the default build parameters for kind tuned for
// purpose.
func ParamsFor(kind Kind, purpose prim.Purpose) Params {
	return accelopt.ParamsFor(kind, purpose)
}

// Option mutates accelerator construction options.
type Option = accelopt.Option

// WithLogger overrides the logger an accelerator uses for build
// diagnostics.
func WithLogger(l log.Logger) Option {
	return accelopt.WithLogger(l)
}

// WithSink overrides the telemetry sink an accelerator reports build
// stats to.
func WithSink(s telemetry.Sink) Option {
	return accelopt.WithSink(s)
}

// WithParams overrides the default per-purpose build parameters.
func WithParams(p Params) Option {
	return accelopt.WithParams(p)
}
