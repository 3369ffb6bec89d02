package core

import (
	"testing"
)

// unitBoxes returns n unit cubes laid out along +x
func unitBoxes(n int) []AABB {
	boxes := make([]AABB, n)
	for i := range boxes {
		boxes[i] = NewAABB(NewVec3(float64(i), 0, 0), NewVec3(float64(i)+1, 1, 1))
	}
	return boxes
}

// entryTest reports a hit at the t where a ray from x=-1 along +x enters box i
func entryTest(calls *int) func(item int, tMax float64) (float64, bool) {
	return func(item int, tMax float64) (float64, bool) {
		*calls++
		t := float64(item + 1)
		if t < tMax {
			return t, true
		}
		return 0, false
	}
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	stats := NewBVH(unitBoxes(leafThreshold)).getStats()
	if stats.totalNodes != 1 || stats.leafNodes != 1 {
		t.Errorf("Expected a single leaf for %d items, got %d nodes and %d leaves", leafThreshold, stats.totalNodes, stats.leafNodes)
	}

	stats = NewBVH(unitBoxes(leafThreshold + 1)).getStats()
	if stats.totalNodes == 1 {
		t.Errorf("Expected split for %d items, but got single node", leafThreshold+1)
	}
	if stats.leafNodes < 2 {
		t.Errorf("Expected at least 2 leaf nodes after split, got %d", stats.leafNodes)
	}
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(nil)
	if bvh.Root != nil {
		t.Error("Expected nil root for empty BVH")
	}

	calls := 0
	ray := NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0))
	if bvh.Hit(ray, 0, 1000, entryTest(&calls)) {
		t.Error("Expected no hit for empty BVH")
	}
	if calls != 0 {
		t.Errorf("Expected no item tests, got %d", calls)
	}
}

func TestBVH_ClosestHitPrunes(t *testing.T) {
	bvh := NewBVH(unitBoxes(20))
	ray := NewRay(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0))

	calls := 0
	closest := 1000.0
	found := bvh.Hit(ray, 0, closest, func(item int, tMax float64) (float64, bool) {
		t, ok := entryTest(&calls)(item, tMax)
		if ok {
			closest = t
		}
		return t, ok
	})
	if !found {
		t.Fatal("Expected a hit")
	}
	if closest != 1 {
		t.Errorf("Expected closest t=1, got %v", closest)
	}
	if calls > leafThreshold {
		t.Errorf("Expected boxes behind the first hit to be skipped, got %d tests", calls)
	}
}

func TestBVH_MissSkipsItems(t *testing.T) {
	bvh := NewBVH(unitBoxes(20))
	calls := 0
	ray := NewRay(NewVec3(5, 2, 0.5), NewVec3(0, 1, 0))
	if bvh.Hit(ray, 0, 1000, entryTest(&calls)) {
		t.Error("Expected a miss")
	}
	if calls != 0 {
		t.Errorf("Expected no item tests, got %d", calls)
	}
}

func TestBVH_StatsCollection(t *testing.T) {
	stats := NewBVH(unitBoxes(20)).getStats()
	if stats.totalItems != 20 {
		t.Errorf("Expected 20 items in leaves, got %d", stats.totalItems)
	}
	if stats.maxDepth < 1 {
		t.Errorf("Expected depth of at least 1, got %d", stats.maxDepth)
	}
	if stats.totalNodes != 2*stats.leafNodes-1 {
		t.Errorf("Expected a full binary tree, got %d nodes and %d leaves", stats.totalNodes, stats.leafNodes)
	}
}

func TestBVH_IdenticalBoundingBoxes(t *testing.T) {
	boxes := make([]AABB, 12)
	for i := range boxes {
		boxes[i] = NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	}
	bvh := NewBVH(boxes)

	tested := make(map[int]bool)
	ray := NewRay(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0))
	bvh.Hit(ray, 0, 1000, func(item int, tMax float64) (float64, bool) {
		tested[item] = true
		return 0, false
	})
	if len(tested) != len(boxes) {
		t.Errorf("Expected every overlapping item tested, got %d", len(tested))
	}
}
