// Package buffers packs scene visualizations into flat GPU-friendly vertex
// lists. Each record uses 4-component float32 vectors so a display layer
// can upload them without conversion.
package buffers

import (
	"fmt"

	"github.com/df07/go-global-illumination/pkg/core"
	"golang.org/x/image/math/f32"
)

// Vertex is a packed position, normal and color. Wire carries the wireframe
// color; its W component is 1 at triangle edges and 0 at the interior
// vertex, so an interpolated value close to 1 marks an edge.
type Vertex struct {
	Position f32.Vec4
	Normal   f32.Vec4
	Color    f32.Vec4
	Wire     f32.Vec4
}

// Buffer holds packed triangles (three vertices each) and points
type Buffer struct {
	Triangles []Vertex
	Points    []Vertex
}

// Packer is implemented by every subsystem that can visualize itself
type Packer interface {
	TriCount() int
	PointCount() int
	PackMesh(b *Buffer)
}

// New allocates a buffer with room for the given element counts
func New(triCount, pointCount int) *Buffer {
	return &Buffer{
		Triangles: make([]Vertex, 0, 3*triCount),
		Points:    make([]Vertex, 0, pointCount),
	}
}

// Pack sizes a buffer from the packers' counts, fills it, and verifies
// each packer produced exactly what it announced.
func Pack(packers ...Packer) (*Buffer, error) {
	tris, points := 0, 0
	for _, p := range packers {
		tris += p.TriCount()
		points += p.PointCount()
	}

	b := New(tris, points)
	for _, p := range packers {
		startTris, startPoints := b.TriCount(), b.PointCount()
		p.PackMesh(b)
		if got := b.TriCount() - startTris; got != p.TriCount() {
			return nil, fmt.Errorf("%T packed %d triangles; announced %d", p, got, p.TriCount())
		}
		if got := b.PointCount() - startPoints; got != p.PointCount() {
			return nil, fmt.Errorf("%T packed %d points; announced %d", p, got, p.PointCount())
		}
	}
	return b, nil
}

// TriCount returns the number of packed triangles
func (b *Buffer) TriCount() int {
	return len(b.Triangles) / 3
}

// PointCount returns the number of packed points
func (b *Buffer) PointCount() int {
	return len(b.Points)
}

// Reset empties the buffer, keeping its storage
func (b *Buffer) Reset() {
	b.Triangles = b.Triangles[:0]
	b.Points = b.Points[:0]
}

func point(v core.Vec3) f32.Vec4 {
	return f32.Vec4{float32(v.X), float32(v.Y), float32(v.Z), 1}
}

func direction(v core.Vec3) f32.Vec4 {
	return f32.Vec4{float32(v.X), float32(v.Y), float32(v.Z), 0}
}

func color(c core.Vec3) f32.Vec4 {
	return f32.Vec4{float32(c.X), float32(c.Y), float32(c.Z), 1}
}

func wire(c core.Vec3, edge float32) f32.Vec4 {
	return f32.Vec4{float32(c.X), float32(c.Y), float32(c.Z), edge}
}

// AddPoint appends a single colored point
func (b *Buffer) AddPoint(pos, c core.Vec3) {
	b.Points = append(b.Points, Vertex{Position: point(pos), Color: color(c)})
}

// AddTriangle appends a flat colored triangle
func (b *Buffer) AddTriangle(p0, p1, p2, normal, c core.Vec3) {
	n, col := direction(normal), color(c)
	b.Triangles = append(b.Triangles,
		Vertex{Position: point(p0), Normal: n, Color: col},
		Vertex{Position: point(p1), Normal: n, Color: col},
		Vertex{Position: point(p2), Normal: n, Color: col},
	)
}

// AddQuad appends quad abcd as triangles abc and acd
func (b *Buffer) AddQuad(p0, p1, p2, p3, normal, c core.Vec3) {
	b.AddTriangle(p0, p1, p2, normal, c)
	b.AddTriangle(p0, p2, p3, normal, c)
}

// AddWireFrameTriangle appends triangle abc split into three triangles that
// meet at its center. Corner colors are interpolated toward the average at
// the center, and every outer corner is flagged as a wireframe edge.
func (b *Buffer) AddWireFrameTriangle(pa, pb, pc, na, nb, nc, wireColor, ca, cb, cc core.Vec3) {
	center := pa.Add(pb).Add(pc).Divide(3)
	centerNormal := na.Add(nb).Add(nc).Normalize()
	centerColor := ca.Add(cb).Add(cc).Divide(3)

	corners := [3]struct{ p, n, c core.Vec3 }{{pa, na, ca}, {pb, nb, cb}, {pc, nc, cc}}
	for i := range corners {
		u, v := corners[i], corners[(i+1)%3]
		b.Triangles = append(b.Triangles,
			Vertex{Position: point(u.p), Normal: direction(u.n), Color: color(u.c), Wire: wire(wireColor, 1)},
			Vertex{Position: point(v.p), Normal: direction(v.n), Color: color(v.c), Wire: wire(wireColor, 1)},
			Vertex{Position: point(center), Normal: direction(centerNormal), Color: color(centerColor), Wire: wire(wireColor, 0)},
		)
	}
}

// AddBox appends the six faces of a hexahedron. Corners are indexed by bit
// pattern (x=1, y=2, z=4) relative to the first corner.
func (b *Buffer) AddBox(pos [8]core.Vec3, c core.Vec3) {
	faces := [6][4]int{
		{0, 2, 3, 1}, // z=0
		{4, 5, 7, 6}, // z=1
		{0, 1, 5, 4}, // y=0
		{2, 6, 7, 3}, // y=1
		{0, 4, 6, 2}, // x=0
		{1, 3, 7, 5}, // x=1
	}
	for _, f := range faces {
		normal := core.TriangleNormal(pos[f[0]], pos[f[1]], pos[f[2]])
		b.AddQuad(pos[f[0]], pos[f[1]], pos[f[2]], pos[f[3]], normal, c)
	}
}

// AddSegment appends a thin box of half-width width from start to end.
// Segments shorter than 1% of width collapse to a degenerate box.
func (b *Buffer) AddSegment(start, end, c core.Vec3, width float64) {
	dir := end.Subtract(start)
	var one, two core.Vec3
	if dir.Length() >= 0.01*width {
		dir = dir.Normalize()
		tmp := dir.Cross(core.NewVec3(1, 0, 0))
		if tmp.Length() < 0.1 {
			tmp = dir.Cross(core.NewVec3(0, 0, 1))
		}
		tmp = tmp.Normalize()
		one = dir.Cross(tmp)
		two = dir.Cross(one)
	}
	one = one.Multiply(width)
	two = two.Multiply(width)

	var pos [8]core.Vec3
	for i := range pos {
		p := start
		if i&4 != 0 {
			p = end
		}
		if i&1 != 0 {
			p = p.Add(one)
		} else {
			p = p.Subtract(one)
		}
		if i&2 != 0 {
			p = p.Add(two)
		} else {
			p = p.Subtract(two)
		}
		pos[i] = p
	}
	b.AddBox(pos, c)
}

// AddWireBox appends the twelve edges of an axis-aligned box as segments
func (b *Buffer) AddWireBox(box core.AABB, c core.Vec3, width float64) {
	corners := box.Corners()
	for i := 0; i < 8; i++ {
		for _, bit := range [3]int{1, 2, 4} {
			if i&bit == 0 {
				b.AddSegment(corners[i], corners[i|bit], c, width)
			}
		}
	}
}

// Counts for sizing buffers ahead of packing
const (
	TrianglesPerQuad      = 2
	TrianglesPerWireFrame = 3
	TrianglesPerBox       = 12
	TrianglesPerWireBox   = 12 * TrianglesPerBox
)
