package renderer

import (
	"github.com/df07/go-global-illumination/pkg/buffers"
	"github.com/df07/go-global-illumination/pkg/core"
)

// SegmentKind classifies a recorded ray segment
type SegmentKind int

const (
	SegmentMain SegmentKind = iota
	SegmentShadow
	SegmentReflected
	SegmentBounce
)

var segmentColors = [...]core.Vec3{
	SegmentMain:      core.NewVec3(0.7, 0.7, 0.7),
	SegmentShadow:    core.NewVec3(0.1, 0.9, 0.1),
	SegmentReflected: core.NewVec3(0.9, 0.1, 0.1),
	SegmentBounce:    core.NewVec3(0.1, 0.1, 0.9),
}

const segmentWidth = 0.01

// Segment is one traced ray from its origin to its closest hit (or to
// the light sample for shadow rays)
type Segment struct {
	Kind       SegmentKind
	Start, End core.Vec3
}

// RayTree records the rays traced for a single visualized pixel
type RayTree struct {
	segments []Segment
}

// Add records a segment along ray between parameters t0 and t1
func (t *RayTree) Add(kind SegmentKind, ray core.Ray, t0, t1 float64) {
	if t == nil {
		return
	}
	t.segments = append(t.segments, Segment{Kind: kind, Start: ray.At(t0), End: ray.At(t1)})
}

// Segments returns the recorded segments in trace order
func (t *RayTree) Segments() []Segment {
	return t.segments
}

// Clear drops every recorded segment
func (t *RayTree) Clear() {
	t.segments = t.segments[:0]
}

// TriCount returns twelve triangles per segment
func (t *RayTree) TriCount() int { return len(t.segments) * buffers.TrianglesPerBox }

// PointCount is always zero
func (t *RayTree) PointCount() int { return 0 }

// PackMesh draws every segment as a thin box colored by kind
func (t *RayTree) PackMesh(b *buffers.Buffer) {
	for _, s := range t.segments {
		b.AddSegment(s.Start, s.End, segmentColors[s.Kind], segmentWidth)
	}
}
