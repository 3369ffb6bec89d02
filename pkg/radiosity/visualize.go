package radiosity

import (
	"fmt"
	"strings"

	"github.com/df07/go-global-illumination/pkg/buffers"
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/mesh"
)

// RenderMode selects the per-patch quantity shown by PackMesh
type RenderMode int

const (
	RenderMaterials RenderMode = iota
	RenderRadiance
	RenderFormFactors
	RenderLights
	RenderUndistributed
	RenderAbsorbed
)

var renderModeNames = []string{"materials", "radiance", "form_factors", "lights", "undistributed", "absorbed"}

func (m RenderMode) String() string {
	if m < 0 || int(m) >= len(renderModeNames) {
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
	return renderModeNames[m]
}

// ParseRenderMode accepts the lower-case mode names, with '-' or '_'
func ParseRenderMode(s string) (RenderMode, error) {
	name := strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for i, n := range renderModeNames {
		if n == name {
			return RenderMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown radiosity render mode %q; expected one of %s", s, strings.Join(renderModeNames, ", "))
}

// Each patch is drawn as four wireframe triangles fanning to its centroid
const trianglesPerPatch = 4 * buffers.TrianglesPerWireFrame

// Minimum normal agreement for a neighbour to contribute to a vertex color
const interpolationCosine = 0.5

var (
	wireColor    = core.NewVec3(0, 0, 0)
	maxWireColor = core.NewVec3(1, 0, 0)
)

// PatchColor returns the linear color of patch i under the current mode
func (r *Radiosity) PatchColor(i int) core.Vec3 {
	r.checkPatch(i)
	m := r.scene.Mesh
	switch r.RenderMode {
	case RenderRadiance:
		return r.radiance[i]
	case RenderFormFactors:
		if i == r.maxUndistributed || r.area[i] == 0 {
			return core.Vec3{}
		}
		v := 0.2 * r.totalArea / r.area[i] * r.FormFactor(r.maxUndistributed, i)
		return core.NewVec3(v, v, v)
	case RenderLights:
		return m.FaceMaterial(m.GetFace(i)).Emitted
	case RenderUndistributed:
		return r.undistributed[i]
	case RenderAbsorbed:
		return r.absorbed[i]
	default:
		return m.FaceMaterial(m.GetFace(i)).AverageDiffuse()
	}
}

// vertexColor averages the colors of the faces around v whose normals
// roughly agree with f's, weighted by area
func (r *Radiosity) vertexColor(f mesh.FaceID, v mesh.VertexID, colors []core.Vec3) core.Vec3 {
	m := r.scene.Mesh
	normal := r.normal[m.PatchIndex(f)]
	var sum core.Vec3
	weight := 0.0
	for _, g := range m.FacesWithVertex(v, f) {
		j := m.PatchIndex(g)
		if j < 0 || j >= r.numFaces || normal.Dot(r.normal[j]) < interpolationCosine {
			continue
		}
		sum = sum.Add(colors[j].Multiply(r.area[j]))
		weight += r.area[j]
	}
	if weight == 0 {
		return colors[m.PatchIndex(f)]
	}
	return sum.Divide(weight)
}

// TriCount returns twelve triangles per patch
func (r *Radiosity) TriCount() int { return r.numFaces * trianglesPerPatch }

// PointCount is always zero
func (r *Radiosity) PointCount() int { return 0 }

// PackMesh appends every patch colored by RenderMode. Colors are converted
// to sRGB for display. In form factor mode the shooting patch gets a red
// outline.
func (r *Radiosity) PackMesh(b *buffers.Buffer) {
	m := r.scene.Mesh
	colors := make([]core.Vec3, r.numFaces)
	for i := range colors {
		colors[i] = r.PatchColor(i)
	}

	for i := 0; i < r.numFaces; i++ {
		f := m.GetFace(i)
		pos := m.FacePositions(f)
		verts := m.FaceVertices(f)
		normal := r.normal[i]
		center := m.Centroid(f)
		centerColor := display(colors[i])

		var corner [4]core.Vec3
		for k := range corner {
			if r.Interpolate {
				corner[k] = display(r.vertexColor(f, verts[k], colors))
			} else {
				corner[k] = centerColor
			}
		}

		wire := centerColor
		if r.Wireframe {
			wire = wireColor
			if r.RenderMode == RenderFormFactors && i == r.maxUndistributed {
				wire = maxWireColor
			}
		}

		for k := 0; k < 4; k++ {
			n := (k + 1) % 4
			b.AddWireFrameTriangle(pos[k], pos[n], center,
				normal, normal, normal, wire,
				corner[k], corner[n], centerColor)
		}
	}
}

func display(c core.Vec3) core.Vec3 {
	return c.ToSRGB().Clamp(0, 1)
}
