package mesh

import (
	"fmt"

	"github.com/df07/go-global-illumination/pkg/camera"
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/geometry"
	"github.com/df07/go-global-illumination/pkg/material"
)

// VertexID, EdgeID and FaceID are stable handles into the mesh arenas
type (
	VertexID int
	EdgeID   int
	FaceID   int
)

// None marks an absent handle (boundary opposite, empty slot)
const None = -1

// FaceType selects which face collection a new face joins
type FaceType int

const (
	// FaceOriginal faces come from the scene file and are used for ray casting
	FaceOriginal FaceType = iota
	// FaceRasterized faces approximate implicit primitives for radiosity
	FaceRasterized
	// FaceSubdivided faces are the current radiosity refinement of original faces
	FaceSubdivided
)

// Vertex is a mesh point with texture coordinates. Vertices are never removed.
type Vertex struct {
	Position core.Vec3
	UV       core.Vec2
	Index    int
}

// Edge is a directed half-edge from Start to End bounding Face
type Edge struct {
	Start    VertexID
	End      VertexID
	Face     FaceID
	Next     EdgeID
	Opposite EdgeID
}

// Face is a quad referenced through one of its four half-edges
type Face struct {
	Edge       EdgeID
	Material   *material.Material
	PatchIndex int // index into radiosity patch arrays, None until assigned
}

type vertexPair [2]VertexID

// Mesh is a half-edge quad mesh stored in arenas addressed by integer handles.
// It also carries the scene-level data loaded alongside the geometry.
type Mesh struct {
	vertices  []Vertex
	edges     []Edge
	faces     []Face
	freeEdges []EdgeID
	freeFaces []FaceID

	edgeTable map[vertexPair]EdgeID
	midpoints map[vertexPair]VertexID

	originalQuads   []FaceID
	rasterizedFaces []FaceID
	subdividedQuads []FaceID
	lights          []FaceID

	// subdividedQuads aliases originalQuads until the first Subdivision
	sharedSubdivision bool

	bbox         core.AABB
	tessellation geometry.Tessellation

	Materials  []*material.Material
	Primitives []*geometry.Primitive
	Background core.Vec3
	Camera     camera.Camera
}

// New creates an empty mesh; tess controls primitive rasterization
func New(tess geometry.Tessellation) *Mesh {
	return &Mesh{
		edgeTable:         make(map[vertexPair]EdgeID),
		midpoints:         make(map[vertexPair]VertexID),
		sharedSubdivision: true,
		bbox:              core.EmptyAABB(),
		tessellation:      tess,
		Background:        core.NewVec3(1, 1, 1),
	}
}

// AddVertex appends a vertex with the next sequential index and grows the bounding box
func (m *Mesh) AddVertex(position core.Vec3) VertexID {
	id := VertexID(len(m.vertices))
	m.vertices = append(m.vertices, Vertex{Position: position, Index: int(id)})
	m.bbox = m.bbox.Extend(position)
	return id
}

// SetTextureCoordinates sets the (s,t) coordinates of a vertex
func (m *Mesh) SetTextureCoordinates(v VertexID, uv core.Vec2) {
	m.vertices[v].UV = uv
}

// Vertex returns a copy of the vertex record
func (m *Mesh) Vertex(v VertexID) Vertex {
	return m.vertices[v]
}

// NumVertices returns the number of vertices ever added
func (m *Mesh) NumVertices() int {
	return len(m.vertices)
}

// NumEdges returns the number of half-edges
func (m *Mesh) NumEdges() int {
	return len(m.edgeTable)
}

// BoundingBox returns the box enclosing every vertex and primitive added so far
func (m *Mesh) BoundingBox() core.AABB {
	return m.bbox
}

// Tessellation returns the primitive rasterization settings
func (m *Mesh) Tessellation() geometry.Tessellation {
	return m.tessellation
}

// AddMaterial registers a material and returns its index
func (m *Mesh) AddMaterial(mat *material.Material) int {
	m.Materials = append(m.Materials, mat)
	return len(m.Materials) - 1
}

// AddPrimitive stores an implicit primitive and adds its rasterized faces
func (m *Mesh) AddPrimitive(p *geometry.Primitive) {
	m.Primitives = append(m.Primitives, p)
	// Rasterized facets can sit inside the analytic surface, so the bound
	// comes from the primitive itself.
	m.bbox = m.bbox.Union(p.BoundingBox())

	r := p.Rasterize(m.tessellation)
	offset := VertexID(len(m.vertices))
	for _, pos := range r.Vertices {
		m.AddVertex(pos)
	}
	for _, q := range r.Quads {
		m.AddFace(offset+VertexID(q[0]), offset+VertexID(q[1]), offset+VertexID(q[2]), offset+VertexID(q[3]), p.Material, FaceRasterized)
	}
}

// AddFace builds the half-edges a→b→c→d→a, links them to any existing
// opposite edges and files the face under the requested collection.
// A directed edge that already exists means non-manifold input and panics.
func (m *Mesh) AddFace(a, b, c, d VertexID, mat *material.Material, faceType FaceType) FaceID {
	if mat == nil {
		panic("mesh: face added without a material")
	}
	corners := [4]VertexID{a, b, c, d}
	for i := 0; i < 4; i++ {
		v := corners[i]
		if v < 0 || int(v) >= len(m.vertices) {
			panic(fmt.Sprintf("mesh: vertex %d out of range", v))
		}
		key := vertexPair{v, corners[(i+1)%4]}
		if _, exists := m.edgeTable[key]; exists {
			panic(fmt.Sprintf("mesh: duplicate directed edge %d->%d", key[0], key[1]))
		}
	}

	f := m.allocFace(Face{Material: mat, PatchIndex: None})

	var ids [4]EdgeID
	for i := 0; i < 4; i++ {
		ids[i] = m.allocEdge(Edge{
			Start:    corners[i],
			End:      corners[(i+1)%4],
			Face:     f,
			Opposite: None,
		})
	}
	for i := 0; i < 4; i++ {
		m.edges[ids[i]].Next = ids[(i+1)%4]
		m.edgeTable[vertexPair{corners[i], corners[(i+1)%4]}] = ids[i]
	}
	m.faces[f].Edge = ids[0]

	for i := 0; i < 4; i++ {
		if op, ok := m.edgeTable[vertexPair{corners[(i+1)%4], corners[i]}]; ok {
			m.edges[op].Opposite = ids[i]
			m.edges[ids[i]].Opposite = op
		}
	}

	switch faceType {
	case FaceOriginal:
		m.originalQuads = append(m.originalQuads, f)
		m.subdividedQuads = append(m.subdividedQuads, f)
		if mat.IsEmitting() {
			m.lights = append(m.lights, f)
		}
	case FaceRasterized:
		m.rasterizedFaces = append(m.rasterizedFaces, f)
	case FaceSubdivided:
		m.subdividedQuads = append(m.subdividedQuads, f)
	default:
		panic(fmt.Sprintf("mesh: unknown face type %d", faceType))
	}
	return f
}

// RemoveFaceEdges deletes the four half-edges of a face, clearing the
// opposite links of neighbors. The face slot and vertices are untouched.
func (m *Mesh) RemoveFaceEdges(f FaceID) {
	for _, e := range m.faceEdges(f) {
		edge := &m.edges[e]
		if edge.Opposite != None {
			m.edges[edge.Opposite].Opposite = None
		}
		delete(m.edgeTable, vertexPair{edge.Start, edge.End})
		*edge = Edge{Face: None, Next: None, Opposite: None}
		m.freeEdges = append(m.freeEdges, e)
	}
	m.faces[f].Edge = None
}

// deleteFace releases a face whose edges have been removed
func (m *Mesh) deleteFace(f FaceID) {
	if m.faces[f].Edge != None {
		m.RemoveFaceEdges(f)
	}
	m.faces[f] = Face{Edge: None, PatchIndex: None}
	m.freeFaces = append(m.freeFaces, f)
}

func (m *Mesh) allocEdge(e Edge) EdgeID {
	if n := len(m.freeEdges); n > 0 {
		id := m.freeEdges[n-1]
		m.freeEdges = m.freeEdges[:n-1]
		m.edges[id] = e
		return id
	}
	m.edges = append(m.edges, e)
	return EdgeID(len(m.edges) - 1)
}

func (m *Mesh) allocFace(f Face) FaceID {
	if n := len(m.freeFaces); n > 0 {
		id := m.freeFaces[n-1]
		m.freeFaces = m.freeFaces[:n-1]
		m.faces[id] = f
		return id
	}
	m.faces = append(m.faces, f)
	return FaceID(len(m.faces) - 1)
}

// GetEdge returns the half-edge from a to b, if present
func (m *Mesh) GetEdge(a, b VertexID) (EdgeID, bool) {
	e, ok := m.edgeTable[vertexPair{a, b}]
	return e, ok
}

// Edge returns a copy of the half-edge record
func (m *Mesh) Edge(e EdgeID) Edge {
	return m.edges[e]
}

// Face returns a copy of the face record
func (m *Mesh) Face(f FaceID) Face {
	return m.faces[f]
}

// FaceMaterial returns the material of a face
func (m *Mesh) FaceMaterial(f FaceID) *material.Material {
	return m.faces[f].Material
}

// SetPatchIndex records the radiosity patch index of a face
func (m *Mesh) SetPatchIndex(f FaceID, i int) {
	m.faces[f].PatchIndex = i
}

// PatchIndex returns the radiosity patch index of a face
func (m *Mesh) PatchIndex(f FaceID) int {
	return m.faces[f].PatchIndex
}

func (m *Mesh) faceEdges(f FaceID) [4]EdgeID {
	e0 := m.faces[f].Edge
	if e0 == None {
		panic(fmt.Sprintf("mesh: face %d has no edges", f))
	}
	e1 := m.edges[e0].Next
	e2 := m.edges[e1].Next
	e3 := m.edges[e2].Next
	return [4]EdgeID{e0, e1, e2, e3}
}

// FaceEdges returns the four half-edges of a face in winding order
func (m *Mesh) FaceEdges(f FaceID) [4]EdgeID {
	return m.faceEdges(f)
}

// FaceVertices returns the four corners of a face in winding order
func (m *Mesh) FaceVertices(f FaceID) [4]VertexID {
	var vs [4]VertexID
	for i, e := range m.faceEdges(f) {
		vs[i] = m.edges[e].Start
	}
	return vs
}

// FacePositions returns the four corner positions of a face
func (m *Mesh) FacePositions(f FaceID) [4]core.Vec3 {
	var ps [4]core.Vec3
	for i, v := range m.FaceVertices(f) {
		ps[i] = m.vertices[v].Position
	}
	return ps
}

// OriginalQuads returns the faces loaded from the scene file
func (m *Mesh) OriginalQuads() []FaceID {
	return m.originalQuads
}

// RasterizedFaces returns the faces generated from primitives
func (m *Mesh) RasterizedFaces() []FaceID {
	return m.rasterizedFaces
}

// SubdividedQuads returns the current radiosity refinement of the original quads
func (m *Mesh) SubdividedQuads() []FaceID {
	return m.subdividedQuads
}

// Lights returns the emissive original quads
func (m *Mesh) Lights() []FaceID {
	return m.lights
}

// NumFaces returns the number of radiosity patches: subdivided quads plus rasterized faces
func (m *Mesh) NumFaces() int {
	return len(m.subdividedQuads) + len(m.rasterizedFaces)
}

// GetFace returns radiosity patch i, counting subdivided quads first
func (m *Mesh) GetFace(i int) FaceID {
	if i < 0 || i >= m.NumFaces() {
		panic(fmt.Sprintf("mesh: patch index %d out of range [0,%d)", i, m.NumFaces()))
	}
	if i < len(m.subdividedQuads) {
		return m.subdividedQuads[i]
	}
	return m.rasterizedFaces[i-len(m.subdividedQuads)]
}
