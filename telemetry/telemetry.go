// Package telemetry defines an injectable sink for accelerator build
// reports (see spec.md §6 "Telemetry" and §9's explicit call to avoid
// singletons). It replaces original_source/src/RenderLog.h's
// process-wide Module<RenderLog> singleton and LOG_ACCEL_BUILD macro with
// a plain interface passed in at construction time.
package telemetry

import "time"

// BuildReport summarizes one accelerator Build call.
type BuildReport struct {
	Variant           string
	BuildTime         time.Duration
	NodeCount         int
	LeafCount         int
	MaxDepth          int
	PrimitiveCount    int
	SkippedDegenerate int
	Bytes             int64
}

// Sink receives build reports. Implementations must be safe to call from
// a single build goroutine; the core never calls a Sink concurrently for
// the same accelerator instance.
type Sink interface {
	ReportBuild(r BuildReport)
}

// NopSink discards every report. It is the default when no sink is
// supplied.
type NopSink struct{}

// ReportBuild implements Sink.
func (NopSink) ReportBuild(BuildReport) {}

// CollectingSink accumulates every report it receives, useful for tests.
type CollectingSink struct {
	Reports []BuildReport
}

// ReportBuild implements Sink.
func (s *CollectingSink) ReportBuild(r BuildReport) {
	s.Reports = append(s.Reports, r)
}
