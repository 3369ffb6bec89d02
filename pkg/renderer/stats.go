package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/loaders"
	"github.com/olekukonko/tablewriter"
)

// RenderStats contains statistics about a render-to-file run
type RenderStats struct {
	Width, Height int
	Tiles         []TileStats
	NumWorkers    int
	TotalPixels   int           // Pixels rendered
	TotalSamples  int           // Primary rays traced
	Duration      time.Duration // Wall time from first task to last result
}

// TileStats records the work done for a single tile
type TileStats struct {
	TileID   int
	Worker   int
	Pixels   int
	Samples  int
	Duration time.Duration
}

// AverageSamples returns primary rays per pixel
func (s RenderStats) AverageSamples() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.TotalSamples) / float64(s.TotalPixels)
}

// Table renders a per-worker summary
func (s RenderStats) Table() string {
	type workerTotals struct {
		tiles, pixels int
		busy          time.Duration
	}
	totals := make([]workerTotals, s.NumWorkers)
	for _, t := range s.Tiles {
		if t.Worker < 0 || t.Worker >= len(totals) {
			continue
		}
		totals[t.Worker].tiles++
		totals[t.Worker].pixels += t.Pixels
		totals[t.Worker].busy += t.Duration
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Tiles", "Pixels", "% of frame", "Busy time"})
	for i, w := range totals {
		percent := 0.0
		if s.TotalPixels > 0 {
			percent = 100 * float64(w.pixels) / float64(s.TotalPixels)
		}
		table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", w.tiles),
			fmt.Sprintf("%d", w.pixels),
			fmt.Sprintf("%02.1f %%", percent),
			w.busy.String(),
		})
	}
	table.SetFooter([]string{"", fmt.Sprintf("%d", len(s.Tiles)), fmt.Sprintf("%dx%d", s.Width, s.Height), "TOTAL", s.Duration.String()})
	table.Render()
	return buf.String()
}

// AverageLuminance returns the mean luminance of the display
// values of img, in [0,1]
func AverageLuminance(img *loaders.ImageData) float64 {
	if len(img.Pixels) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range img.Pixels {
		total += core.NewVec3(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255).Luminance()
	}
	return total / float64(len(img.Pixels))
}
