package kdtree

// Stats summarizes the shape of a photon index
type Stats struct {
	TotalNodes   int
	LeafNodes    int
	MaxDepth     int
	AvgLeafDepth float64
	TotalPhotons int
	MaxLeafLoad  int     // Most photons in a single leaf
	AvgLeafLoad  float64 // Mean photons per leaf
	BounceHisto  []int   // Stored photons per bounce count
}

// GetStats walks the tree and gathers node and photon statistics
func (t *KDTree) GetStats() Stats {
	stats := Stats{}
	t.Walk(func(node *KDTree) {
		stats.TotalNodes++
		if node.Depth > stats.MaxDepth {
			stats.MaxDepth = node.Depth
		}
		if !node.IsLeaf() {
			return
		}

		stats.LeafNodes++
		stats.AvgLeafDepth += float64(node.Depth)
		stats.TotalPhotons += len(node.photons)
		if len(node.photons) > stats.MaxLeafLoad {
			stats.MaxLeafLoad = len(node.photons)
		}
		for _, p := range node.photons {
			for len(stats.BounceHisto) <= p.Bounce {
				stats.BounceHisto = append(stats.BounceHisto, 0)
			}
			stats.BounceHisto[p.Bounce]++
		}
	})

	if stats.LeafNodes > 0 {
		stats.AvgLeafDepth /= float64(stats.LeafNodes)
		stats.AvgLeafLoad = float64(stats.TotalPhotons) / float64(stats.LeafNodes)
	}
	return stats
}
