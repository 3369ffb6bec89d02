package main

import (
	"fmt"
	"os"

	"github.com/df07/go-global-illumination/cmd"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "gi"
	app.Usage = "render scenes with radiosity, photon mapping and ray tracing"
	app.Version = "0.1.0"
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
			Name:  "render",
			Usage: "render a still frame",
			Description: `
Render a scene with the block-parallel ray tracer. Indirect light comes from
the ambient term, Monte Carlo diffuse bounces, the photon map (--gather) or a
radiosity solution (--radiosity-iterations).`,
			ArgsUsage: "scene_file.obj",
			Flags:     append(cmd.SceneFlags(), cmd.RenderFlags()...),
			Action:    cmd.RenderFrame,
		},
		{
			Name:  "radiosity",
			Usage: "solve progressive radiosity and report convergence",
			Description: `
Shoot power from the patch with the most undistributed energy until the
remaining power falls under the threshold. With --out the solution is
rendered to an image.`,
			ArgsUsage: "scene_file.obj",
			Flags:     append(cmd.SceneFlags(), cmd.RadiosityFlags()...),
			Action:    cmd.SolveRadiosity,
		},
		{
			Name:      "photons",
			Usage:     "trace photons and report the photon map",
			ArgsUsage: "scene_file.obj",
			Flags:     cmd.SceneFlags(),
			Action:    cmd.TracePhotons,
		},
		{
			Name:      "progressive",
			Usage:     "render coarse to fine, one pass at a time",
			ArgsUsage: "scene_file.obj",
			Flags:     append(cmd.SceneFlags(), cmd.ProgressiveFlags()...),
			Action:    cmd.RenderProgressive,
		},
		{
			Name:   "serve",
			Usage:  "serve renders over HTTP",
			Flags:  cmd.ServeFlags(),
			Action: cmd.Serve,
		},
		{
			Name:   "info",
			Usage:  "print the host CPU and memory",
			Action: cmd.HostInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
