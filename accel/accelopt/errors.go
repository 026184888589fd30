package accelopt

import "errors"

// Sentinel errors shared by accel and its three concrete implementations.
// They live here (rather than in accel) so that accel/octree, accel/bvh
// and accel/kdtree can return exactly the same error values accel
// re-exports, without creating an import cycle back to accel.
var (
	// ErrInvalidState is returned when Intersect is called before Build,
	// or AddPrimitive is called after Build.
	ErrInvalidState = errors.New("accel: invalid state")

	// ErrOutOfMemory is returned when a build-time scratch arena cannot
	// grow. The build aborts and the accelerator is left unbuilt.
	ErrOutOfMemory = errors.New("accel: out of memory during build")

	// ErrUnknownKind is returned by New for a Kind outside
	// {Octree, BVH, KDTree}.
	ErrUnknownKind = errors.New("accel: unknown accelerator kind")

	// ErrDegenerateGeometry is never returned to a caller; a degenerate
	// split (zero-area K-D node bounds, every octree child inheriting every
	// parent primitive, coinciding BVH treelet-root centroids) is silently
	// tolerated: the octree and K-D builds fall back to a leaf, the BVH
	// upper tree to a median split of the treelet roots. It
	// exists so build code has one shared value to log against, and its
	// occurrences are counted in telemetry.BuildReport.SkippedDegenerate.
	ErrDegenerateGeometry = errors.New("accel: degenerate geometry, forcing leaf")
)
