package kdtree

import (
	"math/rand"
	"testing"

	"github.com/df07/go-global-illumination/pkg/core"
)

func unitBox() core.AABB {
	return core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1))
}

func randomPhotons(n int, seed int64, box core.AABB) []Photon {
	random := rand.New(rand.NewSource(seed))
	size := box.Size()
	photons := make([]Photon, n)
	for i := range photons {
		pos := core.NewVec3(
			box.Min.X+random.Float64()*size.X,
			box.Min.Y+random.Float64()*size.Y,
			box.Min.Z+random.Float64()*size.Z,
		)
		photons[i] = NewPhoton(pos, core.NewVec3(0, -1, 0), core.NewVec3(1, 1, 1), i%3)
	}
	return photons
}

func TestAddPhoton_NoSplitBelowThreshold(t *testing.T) {
	tree := New(unitBox())
	for _, p := range randomPhotons(MaxPhotonsBeforeSplit, 1, unitBox()) {
		tree.AddPhoton(p)
	}
	if !tree.IsLeaf() {
		t.Error("Expected leaf at exactly the split threshold")
	}
	if tree.NumPhotons() != MaxPhotonsBeforeSplit {
		t.Errorf("Expected %d photons, got %d", MaxPhotonsBeforeSplit, tree.NumPhotons())
	}
}

func TestAddPhoton_Invariants(t *testing.T) {
	tests := []struct {
		name string
		box  core.AABB
		n    int
	}{
		{"unit cube", unitBox(), 5000},
		{"flat slab", core.NewAABB(core.NewVec3(-2, 0, -2), core.NewVec3(2, 0.01, 2)), 3000},
		{"long bar", core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(10, 1, 1)), 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := New(tt.box.Expand(core.Epsilon))
			for _, p := range randomPhotons(tt.n, 7, tt.box) {
				tree.AddPhoton(p)
			}

			if got := tree.NumPhotons(); got != tt.n {
				t.Errorf("Expected %d photons, got %d", tt.n, got)
			}
			if tree.IsLeaf() {
				t.Fatal("Expected tree to split")
			}

			tree.Walk(func(node *KDTree) {
				if node.IsLeaf() {
					if len(node.Photons()) > MaxPhotonsBeforeSplit && node.Depth < MaxDepth {
						t.Errorf("Leaf at depth %d holds %d photons", node.Depth, len(node.Photons()))
					}
					for _, p := range node.Photons() {
						if !node.PhotonInCell(p) {
							t.Errorf("Photon %v outside leaf %v", p.Position, node.BoundingBox)
						}
					}
				} else if len(node.Photons()) != 0 {
					t.Errorf("Internal node at depth %d holds photons", node.Depth)
				}
			})
		})
	}
}

func TestSplit_LongestAxisMidpoint(t *testing.T) {
	box := core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(4, 1, 2))
	tree := New(box)
	for _, p := range randomPhotons(MaxPhotonsBeforeSplit+1, 3, box) {
		tree.AddPhoton(p)
	}
	if tree.IsLeaf() {
		t.Fatal("Expected split after exceeding threshold")
	}

	c1, c2 := tree.Children()
	if c1.BoundingBox.Max.X != 2 || c2.BoundingBox.Min.X != 2 {
		t.Errorf("Expected split at x=2, got %v and %v", c1.BoundingBox, c2.BoundingBox)
	}
	if c1.Depth != 1 || c2.Depth != 1 {
		t.Errorf("Expected child depth 1, got %d and %d", c1.Depth, c2.Depth)
	}
}

func TestAddPhoton_MaxDepth(t *testing.T) {
	tree := New(unitBox())
	p := NewPhoton(core.NewVec3(0.3, 0.3, 0.3), core.NewVec3(0, -1, 0), core.NewVec3(1, 1, 1), 1)
	for i := 0; i < 3*MaxPhotonsBeforeSplit; i++ {
		tree.AddPhoton(p)
	}
	stats := tree.GetStats()
	if stats.MaxDepth != MaxDepth {
		t.Errorf("Expected max depth %d, got %d", MaxDepth, stats.MaxDepth)
	}
	if stats.TotalPhotons != 3*MaxPhotonsBeforeSplit {
		t.Errorf("Expected %d photons, got %d", 3*MaxPhotonsBeforeSplit, stats.TotalPhotons)
	}
	if stats.MaxLeafLoad != 3*MaxPhotonsBeforeSplit {
		t.Errorf("Expected all photons in one leaf, got max load %d", stats.MaxLeafLoad)
	}
}

func TestAddPhoton_OutsidePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for photon outside the tree")
		}
	}()
	tree := New(unitBox())
	tree.AddPhoton(NewPhoton(core.NewVec3(2, 0, 0), core.Vec3{}, core.Vec3{}, 0))
}

func TestCollectPhotonsInBox(t *testing.T) {
	tree := New(unitBox())
	photons := randomPhotons(4000, 11, unitBox())
	for _, p := range photons {
		tree.AddPhoton(p)
	}

	query := core.NewAABB(core.NewVec3(0.2, 0.2, 0.2), core.NewVec3(0.4, 0.5, 0.3))
	collected := tree.CollectPhotonsInBox(query, nil)

	// Superset: every photon strictly inside the query must be returned
	inside := 0
	found := make(map[core.Vec3]bool, len(collected))
	for _, p := range collected {
		found[p.Position] = true
	}
	for _, p := range photons {
		if query.Contains(p.Position, 0) {
			inside++
			if !found[p.Position] {
				t.Errorf("Photon %v inside query box was not collected", p.Position)
			}
		}
	}
	if inside == 0 {
		t.Fatal("Expected some photons inside the query box")
	}
	if len(collected) >= len(photons) {
		t.Errorf("Expected pruning, collected %d of %d", len(collected), len(photons))
	}

	outside := core.NewAABB(core.NewVec3(5, 5, 5), core.NewVec3(6, 6, 6))
	if got := tree.CollectPhotonsInBox(outside, nil); len(got) != 0 {
		t.Errorf("Expected no photons for disjoint box, got %d", len(got))
	}
}

func TestGetStats(t *testing.T) {
	tree := New(unitBox())
	for _, p := range randomPhotons(1000, 5, unitBox()) {
		tree.AddPhoton(p)
	}
	stats := tree.GetStats()

	if stats.TotalPhotons != 1000 {
		t.Errorf("Expected 1000 photons, got %d", stats.TotalPhotons)
	}
	if stats.LeafNodes != tree.NumBoxes() {
		t.Errorf("Expected %d leaves, got %d", tree.NumBoxes(), stats.LeafNodes)
	}
	// a full binary tree has one fewer internal node than leaves
	if stats.TotalNodes != 2*stats.LeafNodes-1 {
		t.Errorf("Expected %d nodes, got %d", 2*stats.LeafNodes-1, stats.TotalNodes)
	}
	sum := 0
	for _, n := range stats.BounceHisto {
		sum += n
	}
	if sum != 1000 {
		t.Errorf("Expected bounce histogram total 1000, got %d", sum)
	}
}
