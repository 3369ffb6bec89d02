package mesh

import (
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/takeyourhatoff/bitset"
)

func unordered(a, b VertexID) vertexPair {
	if a > b {
		a, b = b, a
	}
	return vertexPair{a, b}
}

// edgeVertex returns the midpoint of a and b, creating it once per vertex pair
func (m *Mesh) edgeVertex(a, b VertexID) VertexID {
	key := unordered(a, b)
	if v, ok := m.midpoints[key]; ok {
		return v
	}
	va, vb := m.vertices[a], m.vertices[b]
	v := m.AddVertex(va.Position.Add(vb.Position).Multiply(0.5))
	m.vertices[v].UV.X = 0.5*va.UV.X + 0.5*vb.UV.X
	m.vertices[v].UV.Y = 0.5*va.UV.Y + 0.5*vb.UV.Y
	m.midpoints[key] = v
	return v
}

// ChildVertex returns the midpoint already created between a and b
func (m *Mesh) ChildVertex(a, b VertexID) (VertexID, bool) {
	v, ok := m.midpoints[unordered(a, b)]
	return v, ok
}

func (m *Mesh) midVertex(a, b, c, d VertexID) VertexID {
	var pos core.Vec3
	var uv core.Vec2
	for _, id := range [4]VertexID{a, b, c, d} {
		pos = pos.Add(m.vertices[id].Position.Multiply(0.25))
		uv.X += 0.25 * m.vertices[id].UV.X
		uv.Y += 0.25 * m.vertices[id].UV.Y
	}
	v := m.AddVertex(pos)
	m.vertices[v].UV = uv
	return v
}

// Subdivision splits every subdivided quad into four children that share
// edge midpoints with their neighbors. The first pass leaves the original
// quads in place since they double as the initial subdivided list.
func (m *Mesh) Subdivision() {
	first := m.sharedSubdivision
	m.sharedSubdivision = false

	parents := m.subdividedQuads
	m.subdividedQuads = nil

	for _, f := range parents {
		vs := m.FaceVertices(f)
		a, b, c, d := vs[0], vs[1], vs[2], vs[3]

		ab := m.edgeVertex(a, b)
		bc := m.edgeVertex(b, c)
		cd := m.edgeVertex(c, d)
		da := m.edgeVertex(d, a)
		mid := m.midVertex(a, b, c, d)

		mat := m.faces[f].Material
		if !first {
			m.deleteFace(f)
		}

		m.AddFace(a, ab, mid, da, mat, FaceSubdivided)
		m.AddFace(b, bc, mid, ab, mat, FaceSubdivided)
		m.AddFace(c, cd, mid, bc, mat, FaceSubdivided)
		m.AddFace(d, da, mid, cd, mat, FaceSubdivided)
	}
}

// FacesWithVertex collects the faces reachable from start across opposite
// edges that have v as a corner, start included
func (m *Mesh) FacesWithVertex(v VertexID, start FaceID) []FaceID {
	var faces []FaceID
	visited := bitset.Set{}
	stack := []FaceID{start}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Test(int(f)) {
			continue
		}
		visited.Add(int(f))

		if !m.hasCorner(f, v) {
			continue
		}
		faces = append(faces, f)
		for _, e := range m.faceEdges(f) {
			if op := m.edges[e].Opposite; op != None {
				stack = append(stack, m.edges[op].Face)
			}
		}
	}
	return faces
}

func (m *Mesh) hasCorner(f FaceID, v VertexID) bool {
	for _, c := range m.FaceVertices(f) {
		if c == v {
			return true
		}
	}
	return false
}
