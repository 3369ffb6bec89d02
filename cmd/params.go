package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/scene"
	"github.com/urfave/cli"
)

// SceneFlags returns the flags shared by every command that loads a scene.
// Defaults mirror scene.DefaultParams.
func SceneFlags() []cli.Flag {
	d := scene.DefaultParams()
	return []cli.Flag{
		cli.IntFlag{Name: "width", Value: d.Width, Usage: "image width"},
		cli.IntFlag{Name: "height", Value: d.Height, Usage: "image height"},
		cli.IntFlag{Name: "bounces", Value: d.NumBounces, Usage: "maximum reflection and diffuse bounce depth"},
		cli.IntFlag{Name: "shadow-samples", Value: d.NumShadowSamples, Usage: "0: no shadows, 1: hard shadows, >1: soft shadows"},
		cli.IntFlag{Name: "antialias", Value: d.NumAntialiasSamples, Usage: "samples per pixel, rounded down to a square grid"},
		cli.IntFlag{Name: "glossy-samples", Value: d.NumGlossySamples, Usage: "reflection rays averaged on rough materials"},
		cli.StringFlag{Name: "ambient", Value: "0,0,0", Usage: "ambient light as r,g,b"},
		cli.BoolFlag{Name: "backfacing", Usage: "let quads accept hits from behind"},
		cli.IntFlag{Name: "block-size", Value: d.BlockSize, Usage: "tile edge length for parallel rendering"},
		cli.IntFlag{Name: "workers", Value: d.NumWorkers, Usage: "render workers, 0 selects the CPU count"},
		cli.Int64Flag{Name: "seed", Value: d.Seed, Usage: "base seed for the random streams"},
		cli.IntFlag{Name: "progressive-divs", Value: d.ProgressiveDivs, Usage: "cells along the shorter side in the first progressive pass"},
		cli.IntFlag{Name: "photons", Value: d.NumPhotonsToShoot, Usage: "photons emitted per trace"},
		cli.IntFlag{Name: "collect", Value: d.NumPhotonsToCollect, Usage: "photons gathered per indirect estimate"},
		cli.BoolFlag{Name: "gather", Usage: "estimate indirect light from the photon map"},
		cli.Float64Flag{Name: "gather-radius", Value: d.GatherRadius, Usage: "initial photon gather radius"},
		cli.IntFlag{Name: "photon-bounces", Value: d.MaxPhotonBounces, Usage: "maximum photon path length"},
		cli.IntFlag{Name: "form-factor-samples", Value: d.NumFormFactorSamples, Usage: "visibility samples per patch pair"},
		cli.IntFlag{Name: "sphere-horiz", Value: d.SphereHoriz, Usage: "sphere rasterization around the equator (even)"},
		cli.IntFlag{Name: "sphere-vert", Value: d.SphereVert, Usage: "sphere rasterization pole to pole"},
		cli.IntFlag{Name: "cylinder-ring", Value: d.CylinderRing, Usage: "cylinder ring rasterization steps"},
	}
}

// ParamsFromContext maps the scene flags onto render parameters
func ParamsFromContext(ctx *cli.Context) (scene.Params, error) {
	ambient, err := parseColor(ctx.String("ambient"))
	if err != nil {
		return scene.Params{}, fmt.Errorf("ambient: %w", err)
	}

	p := scene.Params{
		Width:                ctx.Int("width"),
		Height:               ctx.Int("height"),
		NumFormFactorSamples: ctx.Int("form-factor-samples"),
		SphereHoriz:          ctx.Int("sphere-horiz"),
		SphereVert:           ctx.Int("sphere-vert"),
		CylinderRing:         ctx.Int("cylinder-ring"),
		NumBounces:           ctx.Int("bounces"),
		NumShadowSamples:     ctx.Int("shadow-samples"),
		NumAntialiasSamples:  ctx.Int("antialias"),
		NumGlossySamples:     ctx.Int("glossy-samples"),
		AmbientLight:         ambient,
		IntersectBackfacing:  ctx.Bool("backfacing"),
		BlockSize:            ctx.Int("block-size"),
		NumWorkers:           ctx.Int("workers"),
		Seed:                 ctx.Int64("seed"),
		ProgressiveDivs:      ctx.Int("progressive-divs"),
		NumPhotonsToShoot:    ctx.Int("photons"),
		NumPhotonsToCollect:  ctx.Int("collect"),
		GatherIndirect:       ctx.Bool("gather"),
		GatherRadius:         ctx.Float64("gather-radius"),
		MaxPhotonBounces:     ctx.Int("photon-bounces"),
	}
	if err := p.Validate(); err != nil {
		return scene.Params{}, err
	}
	return p, nil
}

// parseColor reads "r,g,b" or a single grey level
func parseColor(s string) (core.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 1 && len(parts) != 3 {
		return core.Vec3{}, fmt.Errorf("expected r,g,b; got %q", s)
	}

	vals := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return core.Vec3{}, err
		}
		vals[i] = v
	}
	if len(vals) == 1 {
		return core.NewVec3(vals[0], vals[0], vals[0]), nil
	}
	return core.NewVec3(vals[0], vals[1], vals[2]), nil
}

// loadScene parses the scene file named by the first command argument
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	params, err := ParamsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return scene.Load(ctx.Args().First(), params)
}
