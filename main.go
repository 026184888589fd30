package main

import (
	"os"

	"github.com/bojosos/Ray-traching-course/cmd/accelbench"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "accelbench"
	app.Usage = "build and compare ray/scene intersection accelerators"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "build a synthetic scene and compare accelerator variants",
			Description: `
Build a synthetic scene of random spheres, run it through one or all of
the octree, BVH and K-D tree accelerators, and print a build/query time
comparison table.`,
			Flags:  accelbench.Flags,
			Action: accelbench.Run,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
