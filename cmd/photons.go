package cmd

import (
	"bytes"
	"fmt"

	"github.com/df07/go-global-illumination/pkg/photonmap"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// TracePhotons shoots photons into a scene and reports how they were
// stored in the k-d tree.
func TracePhotons(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	pm := photonmap.New(sc)
	displayPhotonStats(pm.TracePhotons(), pm)
	return nil
}

func displayPhotonStats(stats photonmap.TraceStats, pm *photonmap.PhotonMap) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Light", "Photons emitted", "% of total"})
	for i, n := range stats.PerLight {
		share := 0.0
		if stats.Emitted > 0 {
			share = 100 * float64(n) / float64(stats.Emitted)
		}
		table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%02.1f %%", share),
		})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%d", stats.Emitted), stats.Duration.String()})
	table.Render()

	if tree := pm.Tree(); tree != nil {
		ts := tree.GetStats()
		buf.WriteString(fmt.Sprintf("\nstored %d photons in %d nodes (%d leaves)\n", ts.TotalPhotons, ts.TotalNodes, ts.LeafNodes))
		buf.WriteString(fmt.Sprintf("max depth %d, avg leaf depth %.1f, max leaf load %d, avg leaf load %.1f\n", ts.MaxDepth, ts.AvgLeafDepth, ts.MaxLeafLoad, ts.AvgLeafLoad))
		for bounce, n := range ts.BounceHisto {
			if n > 0 {
				buf.WriteString(fmt.Sprintf("  bounce %d: %d\n", bounce, n))
			}
		}
	}
	logger.Noticef("photon statistics\n%s", buf.String())
}
