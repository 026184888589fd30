// Package accelbench provides the accelbench CLI command: build a
// synthetic scene, run it through all three accel.Accelerator kinds and
// print a timing comparison. Grounded on
// achilleasa-polaris/cmd/render.go's urfave/cli command shape and its
// tablewriter-rendered stats table (displayFrameStats).
package accelbench

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bojosos/Ray-traching-course/accel"
	"github.com/bojosos/Ray-traching-course/bench"
	"github.com/bojosos/Ray-traching-course/log"
	"github.com/bojosos/Ray-traching-course/prim"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

var logger = log.New("accelbench")

// Flags is the accelbench command's flag set.
var Flags = []cli.Flag{
	cli.StringFlag{
		Name:  "variant",
		Value: "all",
		Usage: "accelerator to run: octree, bvh, kdtree or all",
	},
	cli.IntFlag{
		Name:  "n",
		Value: 5000,
		Usage: "number of synthetic primitives",
	},
	cli.IntFlag{
		Name:  "rays",
		Value: 20000,
		Usage: "number of query rays to fire after building",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "RNG seed for the synthetic scene and rays",
	},
	cli.StringFlag{
		Name:  "purpose",
		Value: "mesh",
		Usage: "build parameter profile: instances or mesh",
	},
	cli.IntFlag{
		Name:  "workers",
		Value: 0,
		Usage: "query worker goroutines (0 = runtime.NumCPU())",
	},
}

// Run is the accelbench command's Action.
func Run(ctx *cli.Context) error {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	purpose := prim.Mesh
	if ctx.String("purpose") == "instances" {
		purpose = prim.Instances
	}

	kinds, err := parseVariant(ctx.String("variant"))
	if err != nil {
		return err
	}

	prims := bench.RandomSpheres(ctx.Int("n"), ctx.Int64("seed"), 50, 0.1, 2.0)
	rays := bench.RandomRays(ctx.Int("rays"), ctx.Int64("seed")+1, 55)

	type row struct {
		kind      accel.Kind
		buildTime time.Duration
		queryTime time.Duration
		hits      int
	}
	var rows []row

	for _, kind := range kinds {
		acc, err := accel.New(kind)
		if err != nil {
			return err
		}
		for _, p := range prims {
			if err := acc.AddPrimitive(p); err != nil {
				return err
			}
		}

		buildStart := time.Now()
		if err := acc.Build(purpose); err != nil {
			return err
		}
		buildTime := time.Since(buildStart)

		queryStart := time.Now()
		results := bench.ParallelFuzz(acc, rays, 0, 1e30, ctx.Int("workers"))
		queryTime := time.Since(queryStart)

		hits := 0
		for _, r := range results {
			if r.Hit {
				hits++
			}
		}

		logger.Infof("%s: build %s, query %s, %d/%d hits", kind, buildTime, queryTime, hits, len(rays))
		rows = append(rows, row{kind: kind, buildTime: buildTime, queryTime: queryTime, hits: hits})
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Accelerator", "Primitives", "Build time", "Query time", "Hits"})
	for _, r := range rows {
		table.Append([]string{
			r.kind.String(),
			fmt.Sprintf("%d", len(prims)),
			r.buildTime.String(),
			r.queryTime.String(),
			fmt.Sprintf("%d/%d", r.hits, len(rays)),
		})
	}
	table.Render()
	logger.Noticef("accelerator comparison\n%s", buf.String())

	return nil
}

func parseVariant(v string) ([]accel.Kind, error) {
	switch v {
	case "all":
		return []accel.Kind{accel.Octree, accel.BVH, accel.KDTree}, nil
	case "octree":
		return []accel.Kind{accel.Octree}, nil
	case "bvh":
		return []accel.Kind{accel.BVH}, nil
	case "kdtree":
		return []accel.Kind{accel.KDTree}, nil
	default:
		return nil, fmt.Errorf("accelbench: unknown variant %q", v)
	}
}
