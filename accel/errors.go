package accel

import "github.com/bojosos/Ray-traching-course/accel/accelopt"

// Sentinel errors returned by accelerators. Modeled on the teacher's
// renderer/errors.go var-block-of-sentinels style. Defined in accelopt
// and re-exported here so accel/octree, accel/bvh and accel/kdtree can
// return the exact same values without importing accel.
var (
	ErrInvalidState       = accelopt.ErrInvalidState
	ErrOutOfMemory        = accelopt.ErrOutOfMemory
	ErrUnknownKind        = accelopt.ErrUnknownKind
	ErrDegenerateGeometry = accelopt.ErrDegenerateGeometry
)
