package kdtree

import (
	"fmt"

	"github.com/df07/go-global-illumination/pkg/core"
)

const (
	// MaxPhotonsBeforeSplit is the leaf capacity that triggers a split
	MaxPhotonsBeforeSplit = 100
	// MaxDepth stops splitting regardless of leaf size
	MaxDepth = 15
)

// KDTree is a node of the photon index. A node is a leaf iff it has no
// children; only leaves store photons.
type KDTree struct {
	BoundingBox core.AABB
	Depth       int

	child1, child2 *KDTree
	splitAxis      int
	splitValue     float64
	photons        []Photon
}

// New creates an empty leaf spanning bbox
func New(bbox core.AABB) *KDTree {
	return newNode(bbox, 0)
}

func newNode(bbox core.AABB, depth int) *KDTree {
	return &KDTree{BoundingBox: bbox, Depth: depth}
}

// IsLeaf reports whether the node stores photons directly
func (t *KDTree) IsLeaf() bool {
	return t.child1 == nil
}

// Children returns the two halves of an internal node
func (t *KDTree) Children() (*KDTree, *KDTree) {
	if t.IsLeaf() {
		panic("kdtree: Children called on a leaf")
	}
	return t.child1, t.child2
}

// Photons returns the photons stored at a leaf
func (t *KDTree) Photons() []Photon {
	return t.photons
}

// PhotonInCell reports whether p lies within the node box, up to core.Epsilon
func (t *KDTree) PhotonInCell(p Photon) bool {
	return t.BoundingBox.Contains(p.Position, core.Epsilon)
}

// AddPhoton stores p in the leaf containing it, splitting leaves that
// exceed MaxPhotonsBeforeSplit. A photon outside the node box panics.
func (t *KDTree) AddPhoton(p Photon) {
	if !t.PhotonInCell(p) {
		panic(fmt.Sprintf("kdtree: photon at %v outside cell %v", p.Position, t.BoundingBox))
	}

	node := t
	for !node.IsLeaf() {
		if p.Position.Axis(node.splitAxis) < node.splitValue {
			node = node.child1
		} else {
			node = node.child2
		}
	}

	node.photons = append(node.photons, p)
	if len(node.photons) > MaxPhotonsBeforeSplit && node.Depth < MaxDepth {
		node.split()
	}
}

// split cuts the node at the midpoint of its longest axis and
// redistributes its photons into the two new leaves
func (t *KDTree) split() {
	box := t.BoundingBox
	axis := box.LongestAxis()
	value := box.Min.Axis(axis) + box.Size().Axis(axis)/2

	t.splitAxis = axis
	t.splitValue = value
	t.child1 = newNode(core.NewAABB(box.Min, box.Max.WithAxis(axis, value)), t.Depth+1)
	t.child2 = newNode(core.NewAABB(box.Min.WithAxis(axis, value), box.Max), t.Depth+1)

	photons := t.photons
	t.photons = nil
	for _, p := range photons {
		t.AddPhoton(p)
	}
}

// CollectPhotonsInBox appends the photons of every leaf overlapping box to
// dst. The result may include photons outside box; callers filter as needed.
func (t *KDTree) CollectPhotonsInBox(box core.AABB, dst []Photon) []Photon {
	todo := []*KDTree{t}
	for len(todo) > 0 {
		node := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		if !node.BoundingBox.Overlaps(box) {
			continue
		}
		if node.IsLeaf() {
			dst = append(dst, node.photons...)
		} else {
			todo = append(todo, node.child1, node.child2)
		}
	}
	return dst
}

// Walk visits every node depth first, parents before children
func (t *KDTree) Walk(visit func(node *KDTree)) {
	todo := []*KDTree{t}
	for len(todo) > 0 {
		node := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		visit(node)
		if !node.IsLeaf() {
			todo = append(todo, node.child2, node.child1)
		}
	}
}

// NumPhotons returns the number of photons stored under the node
func (t *KDTree) NumPhotons() int {
	count := 0
	t.Walk(func(node *KDTree) {
		count += len(node.photons)
	})
	return count
}

// NumBoxes returns the number of leaves under the node
func (t *KDTree) NumBoxes() int {
	count := 0
	t.Walk(func(node *KDTree) {
		if node.IsLeaf() {
			count++
		}
	})
	return count
}
