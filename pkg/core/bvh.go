package core

import (
	"sort"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Items       []int // Item indices for leaf nodes (nil for internal nodes)
}

// BVH is a Bounding Volume Hierarchy over caller-owned items. Items are
// identified by their index in the boxes passed to NewBVH, so the same
// hierarchy can index mesh faces and implicit primitives alike.
type BVH struct {
	Root *BVHNode
}

// NewBVH constructs a BVH over one bounding box per item
func NewBVH(boxes []AABB) *BVH {
	if len(boxes) == 0 {
		return &BVH{Root: nil}
	}

	items := make([]int, len(boxes))
	for i := range items {
		items[i] = i
	}
	return &BVH{
		Root: buildBVH(boxes, items, 0),
	}
}

// Leaf threshold: if we have this many or fewer items, store them in a leaf node
const leafThreshold = 8

// buildBVH recursively builds the BVH with a median split along the longest axis
func buildBVH(boxes []AABB, items []int, depth int) *BVHNode {
	boundingBox := boxes[items[0]]
	for _, item := range items[1:] {
		boundingBox = boundingBox.Union(boxes[item])
	}

	if len(items) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Items:       items,
		}
	}

	axis := boundingBox.LongestAxis()
	sort.Slice(items, func(i, j int) bool {
		return boxes[items[i]].Center().Axis(axis) < boxes[items[j]].Center().Axis(axis)
	})

	mid := len(items) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(boxes, items[:mid], depth+1),
		Right:       buildBVH(boxes, items[mid:], depth+1),
	}
}

// Hit walks the nodes whose boxes the ray enters within [tMin, tMax] and
// calls test on their items. test reports whether the item was hit and at
// which t; a hit shrinks tMax for the rest of the walk.
func (bvh *BVH) Hit(ray Ray, tMin, tMax float64, test func(item int, tMax float64) (float64, bool)) bool {
	if bvh.Root == nil {
		return false
	}
	_, found := bvh.hitNode(bvh.Root, ray, tMin, tMax, test)
	return found
}

// hitNode returns the closest t found below node
func (bvh *BVH) hitNode(node *BVHNode, ray Ray, tMin, tMax float64, test func(int, float64) (float64, bool)) (float64, bool) {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return tMax, false
	}

	hitAnything := false
	if node.Items != nil {
		for _, item := range node.Items {
			if t, isHit := test(item, tMax); isHit {
				hitAnything = true
				tMax = t
			}
		}
		return tMax, hitAnything
	}

	for _, child := range [2]*BVHNode{node.Left, node.Right} {
		if child == nil {
			continue
		}
		if t, isHit := bvh.hitNode(child, ray, tMin, tMax, test); isHit {
			hitAnything = true
			tMax = t
		}
	}
	return tMax, hitAnything
}

// getStats returns statistics about the BVH structure
func (bvh *BVH) getStats() bvhStats {
	if bvh.Root == nil {
		return bvhStats{}
	}

	stats := bvhStats{}
	bvh.collectStats(bvh.Root, 0, &stats)

	if stats.leafNodes > 0 {
		stats.avgDepth = stats.avgDepth / float64(stats.leafNodes)
	}

	return stats
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes int
	leafNodes  int
	maxDepth   int
	avgDepth   float64
	totalItems int
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++

	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}

	if node.Items != nil {
		stats.leafNodes++
		stats.totalItems += len(node.Items)
		stats.avgDepth += float64(depth)
		return
	}
	if node.Left != nil {
		bvh.collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		bvh.collectStats(node.Right, depth+1, stats)
	}
}
