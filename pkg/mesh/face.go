package mesh

import (
	"math"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/material"
)

// Area returns the area of a face as the sum of triangles abc and acd
func (m *Mesh) Area(f FaceID) float64 {
	p := m.FacePositions(f)
	return core.TriangleArea(p[0], p[1], p[2]) + core.TriangleArea(p[0], p[2], p[3])
}

// Normal returns the face normal, averaged over both triangles so slightly
// non-planar quads still get a sensible direction
func (m *Mesh) Normal(f FaceID) core.Vec3 {
	p := m.FacePositions(f)
	n1 := core.TriangleNormal(p[0], p[1], p[2])
	n2 := core.TriangleNormal(p[0], p[2], p[3])
	return n1.Add(n2).Normalize()
}

// Centroid returns the average of the four corners
func (m *Mesh) Centroid(f FaceID) core.Vec3 {
	p := m.FacePositions(f)
	return p[0].Add(p[1]).Add(p[2]).Add(p[3]).Multiply(0.25)
}

// SamplePoint maps (s,t) in [0,1]² bilinearly onto the face
func (m *Mesh) SamplePoint(f FaceID, s, t float64) core.Vec3 {
	p := m.FacePositions(f)
	a, b, c, d := p[0], p[1], p[2], p[3]
	return a.Multiply(s * t).
		Add(b.Multiply((1 - s) * t)).
		Add(d.Multiply(s * (1 - t))).
		Add(c.Multiply((1 - s) * (1 - t)))
}

// RandomPoint returns a uniformly parameterized random point on the face
func (m *Mesh) RandomPoint(f FaceID, sampler core.Sampler) core.Vec3 {
	st := sampler.Get2D()
	return m.SamplePoint(f, st.X, st.Y)
}

// SampleLayout splits n samples into a grid roughly matching the face aspect
// ratio, returned as (samples along ab, samples along bc)
func (m *Mesh) SampleLayout(f FaceID, n int) (int, int) {
	p := m.FacePositions(f)
	ab := p[0].Distance(p[1])
	bc := p[1].Distance(p[2])
	if ab == 0 || bc == 0 {
		return n, 1
	}
	ratio := bc / ab
	samplesAB := math.Sqrt(float64(n) / ratio)
	if samplesAB > float64(n) {
		return n, 1
	}
	if samplesAB < 1 {
		return 1, n
	}
	nab := int(samplesAB)
	nbc := max(1, int(samplesAB*ratio))
	return nab, nbc
}

// Intersect tests the ray against both triangles of the face and updates
// hit when closer. Backfacing hits are ignored unless backfacing is set.
func (m *Mesh) Intersect(f FaceID, ray core.Ray, hit *material.Hit, backfacing bool) bool {
	vs := m.FaceVertices(f)
	return m.triangleIntersect(f, ray, hit, vs[0], vs[1], vs[2], backfacing) ||
		m.triangleIntersect(f, ray, hit, vs[0], vs[2], vs[3], backfacing)
}

func (m *Mesh) triangleIntersect(f FaceID, ray core.Ray, hit *material.Hit, ia, ib, ic VertexID, backfacing bool) bool {
	candidate := *hit
	if !m.planeIntersect(f, ray, &candidate, backfacing) {
		return false
	}

	va, vb, vc := m.vertices[ia], m.vertices[ib], m.vertices[ic]
	a, b, c := va.Position, vb.Position, vc.Position

	// [a-b  a-c  d] (beta, gamma, t) = a - o
	x, ok := core.SolveCramer(a.Subtract(b), a.Subtract(c), ray.Direction, a.Subtract(ray.Origin))
	if !ok {
		return false
	}
	beta, gamma := x.X, x.Y
	const tol = 1e-5
	if beta < -tol || beta > 1+tol || gamma < -tol || gamma > 1+tol || beta+gamma > 1+tol {
		return false
	}

	*hit = candidate
	alpha := 1 - beta - gamma
	hit.UV = core.NewVec2(
		alpha*va.UV.X+beta*vb.UV.X+gamma*vc.UV.X,
		alpha*va.UV.Y+beta*vb.UV.Y+gamma*vc.UV.Y,
	)
	return true
}

func (m *Mesh) planeIntersect(f FaceID, ray core.Ray, hit *material.Hit, backfacing bool) bool {
	normal := m.Normal(f)
	d := normal.Dot(m.vertices[m.FaceVertices(f)[0]].Position)
	numer := d - ray.Origin.Dot(normal)
	denom := ray.Direction.Dot(normal)
	if denom == 0 {
		return false
	}
	if !backfacing && denom >= 0 {
		return false
	}
	t := numer / denom
	if t > core.Epsilon && t < hit.T {
		hit.Set(t, m.faces[f].Material, normal)
		return true
	}
	return false
}
