package telemetry_test

import (
	"testing"
	"time"

	"github.com/bojosos/Ray-traching-course/telemetry"
)

func TestNopSinkDiscardsReports(t *testing.T) {
	var sink telemetry.NopSink
	sink.ReportBuild(telemetry.BuildReport{Variant: "octree", NodeCount: 42})
}

func TestCollectingSinkAccumulatesInOrder(t *testing.T) {
	sink := &telemetry.CollectingSink{}
	reports := []telemetry.BuildReport{
		{Variant: "octree", NodeCount: 1, BuildTime: time.Millisecond},
		{Variant: "bvh", NodeCount: 2, BuildTime: 2 * time.Millisecond},
		{Variant: "kdtree", NodeCount: 3, BuildTime: 3 * time.Millisecond},
	}
	for _, r := range reports {
		sink.ReportBuild(r)
	}
	if len(sink.Reports) != len(reports) {
		t.Fatalf("got %d reports, want %d", len(sink.Reports), len(reports))
	}
	for i, r := range reports {
		if sink.Reports[i] != r {
			t.Fatalf("report %d = %+v, want %+v", i, sink.Reports[i], r)
		}
	}
}
