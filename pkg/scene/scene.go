package scene

import (
	"fmt"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/geometry"
	"github.com/df07/go-global-illumination/pkg/loaders"
	"github.com/df07/go-global-illumination/pkg/material"
	"github.com/df07/go-global-illumination/pkg/mesh"
)

// Scene is the application context shared by the radiosity solver, the
// photon mapper and the ray tracer: the loaded mesh plus the parameters
// every subsystem reads.
type Scene struct {
	Mesh   *mesh.Mesh
	Params Params

	analytic   castIndex // original quads and implicit primitives
	rasterized castIndex // original quads and rasterized primitive faces
}

// castTarget is either a mesh face or an implicit primitive
type castTarget struct {
	face      mesh.FaceID
	primitive *geometry.Primitive
}

type castIndex struct {
	targets []castTarget
	bvh     *core.BVH
}

// New wraps an already built mesh. Original quads and primitives must not
// change afterwards; subdivision only touches the radiosity patches.
func New(m *mesh.Mesh, params Params) *Scene {
	s := &Scene{Mesh: m, Params: params}

	var quads, primitives, faces []castTarget
	for _, f := range m.OriginalQuads() {
		quads = append(quads, castTarget{face: f})
	}
	for _, p := range m.Primitives {
		primitives = append(primitives, castTarget{primitive: p})
	}
	for _, f := range m.RasterizedFaces() {
		faces = append(faces, castTarget{face: f})
	}

	s.analytic = s.newCastIndex(append(append([]castTarget(nil), quads...), primitives...))
	s.rasterized = s.newCastIndex(append(append([]castTarget(nil), quads...), faces...))
	return s
}

func (s *Scene) newCastIndex(targets []castTarget) castIndex {
	boxes := make([]core.AABB, len(targets))
	for i, target := range targets {
		var box core.AABB
		if target.primitive != nil {
			box = target.primitive.BoundingBox()
		} else {
			p := s.Mesh.FacePositions(target.face)
			box = core.NewAABBFromPoints(p[0], p[1], p[2], p[3])
		}
		// flat quads have zero thickness along their normal
		boxes[i] = box.Expand(core.Epsilon)
	}
	return castIndex{targets: targets, bvh: core.NewBVH(boxes)}
}

// Load validates params and parses the scene file at path
func Load(path string, params Params) (*Scene, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	m, err := loaders.LoadScene(path, params.Tessellation())
	if err != nil {
		return nil, err
	}
	return New(m, params), nil
}

// CastRay finds the closest intersection along ray, updating hit. Original
// quads are always tested. Primitives are tested analytically, or through
// their rasterized faces when useRasterized is set so that occlusion agrees
// with the radiosity patches.
func (s *Scene) CastRay(ray core.Ray, hit *material.Hit, useRasterized bool) bool {
	index := &s.analytic
	if useRasterized {
		index = &s.rasterized
	}

	m := s.Mesh
	backfacing := s.Params.IntersectBackfacing
	return index.bvh.Hit(ray, 0, hit.T, func(item int, _ float64) (float64, bool) {
		target := index.targets[item]
		var found bool
		if target.primitive != nil {
			found = target.primitive.Intersect(ray, hit)
		} else {
			found = m.Intersect(target.face, ray, hit, backfacing)
		}
		return hit.T, found
	})
}

// Visible reports whether the segment from a to b is unobstructed. The ray is
// scaled so that b sits at t=1.
func (s *Scene) Visible(a, b core.Vec3, useRasterized bool) bool {
	if a == b {
		return true
	}
	ray := core.NewRay(a, b.Subtract(a))
	hit := material.NewHit()
	s.CastRay(ray, &hit, useRasterized)
	return hit.T > 1-core.Epsilon
}
