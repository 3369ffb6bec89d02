package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/loaders"
	"github.com/df07/go-global-illumination/pkg/renderer"
	"github.com/urfave/cli"
)

// ProgressiveFlags are the progressive command's own flags
func ProgressiveFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "passes",
			Usage: "stop after this many passes, 0 runs until full resolution",
		},
		cli.StringFlag{
			Name:  "out, o",
			Value: "progressive.png",
			Usage: "image file for the last completed pass",
		},
	}
}

// RenderProgressive draws the image coarse to fine and writes the last
// completed pass.
func RenderProgressive(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	rt := buildTracer(sc, 0, 0)
	drawer := renderer.NewProgressiveDrawer(rt, core.NewSeededSampler(sc.Params.Seed), progress())
	drawer.MaxPasses = ctx.Int("passes")

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	last, err := drainPasses(runCtx, drawer)
	if err != nil && !(errors.Is(err, context.Canceled) && last != nil) {
		return err
	}
	if last == nil {
		return errors.New("no pass completed")
	}

	if err := loaders.SaveImage(last.Image, ctx.String("out")); err != nil {
		return err
	}
	logger.Noticef("wrote pass %d (%dx%d cells) to %s", last.Generation, last.DivsX, last.DivsY, ctx.String("out"))
	return nil
}

// drainPasses reads passes until the drawer stops and returns the last one
func drainPasses(ctx context.Context, drawer *renderer.ProgressiveDrawer) (*renderer.PassResult, error) {
	passChan, errChan := drawer.RenderProgressive(ctx)

	var last *renderer.PassResult
	for pass := range passChan {
		result := pass
		last = &result
		logger.Infof("pass %d: %dx%d cells in %v", pass.Generation, pass.DivsX, pass.DivsY, pass.Duration)
	}
	return last, <-errChan
}
