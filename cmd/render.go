package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/df07/go-global-illumination/pkg/photonmap"
	"github.com/df07/go-global-illumination/pkg/radiosity"
	"github.com/df07/go-global-illumination/pkg/renderer"
	"github.com/df07/go-global-illumination/pkg/scene"
	"github.com/urfave/cli"
)

// RenderFlags are the render command's own flags
func RenderFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Value: "frame.png",
			Usage: "image file for the rendered frame (.png or .ppm)",
		},
		cli.IntFlag{
			Name:  "radiosity-iterations",
			Usage: "shoot this many radiosity iterations and shade diffuse surfaces from the solution",
		},
		cli.IntFlag{
			Name:  "subdivide",
			Usage: "subdivide the radiosity patches this many times before solving",
		},
	}
}

// RenderFrame renders a still frame with the block-parallel renderer.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	if sc.Params.NumWorkers == 0 {
		if host, err := getHostInfo(); err == nil {
			logger.Infof("rendering on %s (%d cores, %d GB)", host.CPU, host.Cores, host.TotalRAMGB)
		}
	}

	rt := buildTracer(sc, ctx.Int("radiosity-iterations"), ctx.Int("subdivide"))

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := renderer.RenderToFile(runCtx, rt, ctx.String("out"), progress())
	if err != nil {
		return err
	}

	logger.Noticef("frame statistics\n%s", stats.Table())
	return nil
}

// buildTracer prepares the estimators the parameters ask for: a photon map
// when gathering is on and a radiosity solution when iterations > 0
func buildTracer(sc *scene.Scene, iterations, subdivisions int) *renderer.RayTracer {
	var pm *photonmap.PhotonMap
	if sc.Params.GatherIndirect {
		pm = photonmap.New(sc)
		displayPhotonStats(pm.TracePhotons(), pm)
	}

	rt := renderer.NewRayTracer(sc, pm)
	if iterations > 0 {
		rad := radiosity.New(sc)
		for i := 0; i < subdivisions; i++ {
			rad.Subdivide()
		}
		history := runRadiosity(rad, iterations, 0, iterations)
		displayRadiosityStats(rad, history)
		rt.SetRadiosity(rad)
	}
	return rt
}
