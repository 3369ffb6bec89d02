package photonmap

import (
	"github.com/df07/go-global-illumination/pkg/buffers"
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/kdtree"
)

var kdTreeColor = core.NewVec3(1, 1, 0)

// TriCount returns the triangles needed for direction segments and the
// k-d tree wireframe
func (pm *PhotonMap) TriCount() int {
	if pm.tree == nil {
		return 0
	}
	count := 0
	if pm.RenderKDTree {
		count += pm.tree.NumBoxes() * buffers.TrianglesPerWireBox
	}
	if pm.RenderDirections {
		count += pm.tree.NumPhotons() * buffers.TrianglesPerBox
	}
	return count
}

// PointCount returns one point per stored photon when photons are shown
func (pm *PhotonMap) PointCount() int {
	if !pm.RenderPhotons || pm.tree == nil {
		return 0
	}
	return pm.tree.NumPhotons()
}

// PackMesh appends the enabled photon visualizations. Photon colors are
// scaled by the emitted count so they stay visible as the count grows.
func (pm *PhotonMap) PackMesh(b *buffers.Buffer) {
	if pm.tree == nil {
		return
	}
	scale := float64(pm.scene.Params.NumPhotonsToShoot)

	pm.tree.Walk(func(node *kdtree.KDTree) {
		if !node.IsLeaf() {
			return
		}
		for _, p := range node.Photons() {
			color := p.Energy.Multiply(scale)
			if pm.RenderPhotons {
				b.AddPoint(p.Position, color)
			}
			if pm.RenderDirections {
				tail := p.Position.Subtract(p.DirectionFrom.Multiply(0.5))
				b.AddSegment(p.Position, tail, color, 0.01)
			}
		}
		if pm.RenderKDTree {
			box := node.BoundingBox
			b.AddWireBox(box, kdTreeColor, 0.01*box.Size().Length())
		}
	})
}
