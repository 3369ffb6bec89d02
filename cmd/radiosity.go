package cmd

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/df07/go-global-illumination/pkg/radiosity"
	"github.com/df07/go-global-illumination/pkg/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// RadiosityFlags are the radiosity command's own flags
func RadiosityFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "iterations, n",
			Value: 100,
			Usage: "maximum shooting iterations",
		},
		cli.Float64Flag{
			Name:  "threshold",
			Value: 0.01,
			Usage: "stop once the undistributed power drops below this fraction of the initial power",
		},
		cli.IntFlag{
			Name:  "subdivide",
			Usage: "subdivide the patches this many times before solving",
		},
		cli.IntFlag{
			Name:  "report",
			Value: 10,
			Usage: "log convergence every this many iterations",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "optional image file rendered from the solution",
		},
	}
}

// convergenceRow is one line of the radiosity convergence table
type convergenceRow struct {
	Iteration     int
	Shooter       int
	Undistributed float64
	Fraction      float64
	Elapsed       time.Duration
}

// SolveRadiosity runs progressive radiosity on a scene and reports how the
// undistributed power converges.
func SolveRadiosity(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	rad := radiosity.New(sc)
	for i := 0; i < ctx.Int("subdivide"); i++ {
		rad.Subdivide()
	}
	logger.Noticef("solving radiosity over %d patches", rad.NumFaces())

	history := runRadiosity(rad, ctx.Int("iterations"), ctx.Float64("threshold"), ctx.Int("report"))
	displayRadiosityStats(rad, history)

	out := ctx.String("out")
	if out == "" {
		return nil
	}
	rt := renderer.NewRayTracer(sc, nil)
	rt.SetRadiosity(rad)
	stats, err := renderer.RenderToFile(context.Background(), rt, out, progress())
	if err != nil {
		return err
	}
	logger.Noticef("frame statistics\n%s", stats.Table())
	return nil
}

// runRadiosity shoots up to maxIterations times, stopping early once the
// undistributed power falls to threshold times its initial value. A row is
// recorded every reportEvery iterations and for the last iteration.
func runRadiosity(rad *radiosity.Radiosity, maxIterations int, threshold float64, reportEvery int) []convergenceRow {
	if reportEvery < 1 {
		reportEvery = 1
	}

	initial := rad.TotalUndistributed()
	start := time.Now()
	var rows []convergenceRow
	for i := 1; i <= maxIterations; i++ {
		shooter := rad.MaxUndistributedPatch()
		total := rad.Iterate()

		fraction := 0.0
		if initial > 0 {
			fraction = total / initial
		}
		last := i == maxIterations || fraction <= threshold
		if i%reportEvery == 0 || last {
			rows = append(rows, convergenceRow{
				Iteration:     i,
				Shooter:       shooter,
				Undistributed: total,
				Fraction:      fraction,
				Elapsed:       time.Since(start),
			})
		}
		if last {
			break
		}
	}
	return rows
}

func displayRadiosityStats(rad *radiosity.Radiosity, rows []convergenceRow) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Iteration", "Shooter", "Undistributed", "% of initial", "Elapsed"})
	for _, row := range rows {
		table.Append([]string{
			fmt.Sprintf("%d", row.Iteration),
			fmt.Sprintf("%d", row.Shooter),
			fmt.Sprintf("%.4g", row.Undistributed),
			fmt.Sprintf("%02.2f %%", 100*row.Fraction),
			row.Elapsed.String(),
		})
	}
	table.SetFooter([]string{"", "PATCHES", fmt.Sprintf("%d", rad.NumFaces()), "AREA", fmt.Sprintf("%.4g", rad.TotalArea())})

	table.Render()
	logger.Noticef("radiosity convergence\n%s", buf.String())
}
