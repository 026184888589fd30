// Package accelopt holds the option/parameter types shared by accel and
// its three concrete implementations (accel/octree, accel/bvh,
// accel/kdtree). It exists purely to break the import cycle that would
// otherwise result from accel importing its subpackages while also
// wanting to define the Option type those subpackages accept.
package accelopt

import (
	"github.com/bojosos/Ray-traching-course/log"
	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/bojosos/Ray-traching-course/telemetry"
)

// Kind identifies which concrete accelerator to build.
type Kind int

const (
	Octree Kind = iota
	BVH
	KDTree
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Octree:
		return "octree"
	case BVH:
		return "bvh"
	case KDTree:
		return "kdtree"
	default:
		return "unknown"
	}
}

// Params tunes accelerator construction, per spec.md §4.1's per-purpose
// parameter table.
type Params struct {
	MaxDepth         int
	MinPrimsPerNode  int
	IntersectionCost float32
	TraversalCost    float32
	EmptyBonus       float32

	// MaxNodes caps the number of build-time tree nodes a K-D build may
	// allocate. Zero (the default) means unbounded. Exists purely as an
	// injectable allocation cap for callers that need a hard bound on
	// build memory; exceeding it aborts the build with ErrOutOfMemory.
	MaxNodes int
}

// ParamsFor returns the default build parameters for kind tuned for
// purpose.
func ParamsFor(kind Kind, purpose prim.Purpose) Params {
	switch kind {
	case Octree:
		if purpose == prim.Instances {
			return Params{MaxDepth: 5, MinPrimsPerNode: 4}
		}
		return Params{MaxDepth: 35, MinPrimsPerNode: 20}
	case BVH:
		if purpose == prim.Instances {
			return Params{MinPrimsPerNode: 1, IntersectionCost: 2.0, TraversalCost: 0.125}
		}
		return Params{MinPrimsPerNode: 4, IntersectionCost: 1.0, TraversalCost: 0.125}
	case KDTree:
		if purpose == prim.Instances {
			return Params{MinPrimsPerNode: 1, IntersectionCost: 160.0, TraversalCost: 1.0, EmptyBonus: 0.5}
		}
		return Params{MinPrimsPerNode: 4, IntersectionCost: 80.0, TraversalCost: 1.0, EmptyBonus: 0.5}
	default:
		return Params{}
	}
}

// Options bundles the constructor-time overrides every accelerator
// package accepts, following the teacher's functional-options style seen
// throughout its cmd/*.go flag wiring.
type Options struct {
	Logger log.Logger
	Sink   telemetry.Sink
	Params *Params // nil means "use ParamsFor's default at Build time"
}

// Option mutates an Options value.
type Option func(*Options)

// WithLogger overrides the logger an accelerator uses for build
// diagnostics.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithSink overrides the telemetry sink an accelerator reports build
// stats to.
func WithSink(s telemetry.Sink) Option {
	return func(o *Options) { o.Sink = s }
}

// WithParams overrides the default per-purpose build parameters.
func WithParams(p Params) Option {
	return func(o *Options) { o.Params = &p }
}

// Build applies opts on top of sane defaults (a named logger and
// telemetry.NopSink).
func Build(loggerName string, opts ...Option) Options {
	o := Options{
		Logger: log.New(loggerName),
		Sink:   telemetry.NopSink{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
