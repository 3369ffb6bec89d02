package renderer

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-global-illumination/pkg/loaders"
)

func TestAverageLuminance(t *testing.T) {
	// red, green, blue and black: the luminance weights sum to one
	img := loaders.NewImageData(2, 2)
	img.Set(0, 0, loaders.Color{R: 255})
	img.Set(1, 0, loaders.Color{G: 255})
	img.Set(0, 1, loaders.Color{B: 255})

	avgLum := AverageLuminance(img)
	if math.Abs(avgLum-0.25) > 1e-9 {
		t.Errorf("Expected average luminance 0.25, got %f", avgLum)
	}
}

func TestAverageLuminance_White(t *testing.T) {
	img := loaders.NewImageData(1, 1)
	img.Set(0, 0, loaders.Color{R: 255, G: 255, B: 255})

	avgLum := AverageLuminance(img)
	if math.Abs(avgLum-1) > 1e-9 {
		t.Errorf("Expected average luminance 1, got %f", avgLum)
	}
}

func TestRenderStats_Table(t *testing.T) {
	stats := RenderStats{
		Width:      4,
		Height:     2,
		NumWorkers: 2,
		Tiles: []TileStats{
			{TileID: 0, Worker: 0, Pixels: 4, Samples: 4, Duration: time.Millisecond},
			{TileID: 1, Worker: 1, Pixels: 4, Samples: 16, Duration: time.Millisecond},
		},
		TotalPixels:  8,
		TotalSamples: 20,
		Duration:     2 * time.Millisecond,
	}

	if math.Abs(stats.AverageSamples()-2.5) > 1e-9 {
		t.Errorf("Expected 2.5 samples per pixel, got %v", stats.AverageSamples())
	}

	table := stats.Table()
	for _, want := range []string{"Worker", "50.0 %", "TOTAL", "4x2"} {
		if !strings.Contains(table, want) {
			t.Errorf("Expected table to contain %q, got\n%s", want, table)
		}
	}
}
