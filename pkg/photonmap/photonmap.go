package photonmap

import (
	"math"
	"sort"
	"time"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/kdtree"
	"github.com/df07/go-global-illumination/pkg/log"
	"github.com/df07/go-global-illumination/pkg/material"
	"github.com/df07/go-global-illumination/pkg/scene"
)

var logger = log.New("photon mapper")

// PhotonMap emits photons from the scene's area lights, stores their
// surface hits in a k-d tree and estimates indirect light from them.
type PhotonMap struct {
	scene   *scene.Scene
	tree    *kdtree.KDTree
	sampler core.Sampler

	// Visualization toggles consumed by PackMesh
	RenderPhotons    bool
	RenderDirections bool
	RenderKDTree     bool

	emitted int
}

// TraceStats reports the outcome of a TracePhotons call
type TraceStats struct {
	Emitted  int
	PerLight []int // Photons emitted by each light, in mesh light order
	Stored   int
	Leaves   int
	MaxDepth int
	Duration time.Duration
}

// New creates an empty photon map for s
func New(s *scene.Scene) *PhotonMap {
	return &PhotonMap{
		scene:         s,
		sampler:       core.NewSeededSampler(s.Params.Seed),
		RenderPhotons: true,
	}
}

// Clear drops the photon index
func (pm *PhotonMap) Clear() {
	pm.tree = nil
	pm.emitted = 0
}

// HasPhotons reports whether TracePhotons has built an index
func (pm *PhotonMap) HasPhotons() bool {
	return pm.tree != nil
}

// Tree returns the photon index, nil before TracePhotons
func (pm *PhotonMap) Tree() *kdtree.KDTree {
	return pm.tree
}

// TracePhotons discards any stored photons and shoots
// Params.NumPhotonsToShoot photons from the scene's lights. Each light gets
// a share proportional to its area, so every photon carries roughly the same
// flux.
func (pm *PhotonMap) TracePhotons() TraceStats {
	start := time.Now()
	m := pm.scene.Mesh

	bbox := m.BoundingBox()
	margin := bbox.Size().Multiply(0.001)
	pm.tree = kdtree.New(core.NewAABB(bbox.Min.Subtract(margin), bbox.Max.Add(margin)))
	pm.emitted = 0

	lights := m.Lights()
	totalArea := 0.0
	for _, f := range lights {
		totalArea += m.Area(f)
	}
	if totalArea == 0 {
		logger.Warning("scene has no area lights; photon map is empty")
		return TraceStats{Duration: time.Since(start)}
	}

	perLight := make([]int, len(lights))
	for i, f := range lights {
		area := m.Area(f)
		num := int(float64(pm.scene.Params.NumPhotonsToShoot) * area / totalArea)
		perLight[i] = num
		if num == 0 {
			continue
		}
		energy := m.FaceMaterial(f).Emitted.Multiply(area / float64(num))
		normal := m.Normal(f)
		for j := 0; j < num; j++ {
			origin := m.RandomPoint(f, pm.sampler)
			direction := core.SampleCosineHemisphere(normal.Normalize(), pm.sampler.Get2D())
			pm.tracePhoton(origin, direction, energy, 0)
		}
		pm.emitted += num
	}

	treeStats := pm.tree.GetStats()
	stats := TraceStats{
		Emitted:  pm.emitted,
		PerLight: perLight,
		Stored:   treeStats.TotalPhotons,
		Leaves:   treeStats.LeafNodes,
		MaxDepth: treeStats.MaxDepth,
		Duration: time.Since(start),
	}
	logger.Infof("traced %d photons, stored %d in %d leaves (%v)", stats.Emitted, stats.Stored, stats.Leaves, stats.Duration)
	return stats
}

// tracePhoton follows one photon path. Hits after the first bounce on
// diffuse surfaces are stored, since direct light is computed by the ray
// tracer. Russian roulette on the material's max diffuse and reflective
// components decides between a diffuse bounce, a specular bounce and
// absorption.
func (pm *PhotonMap) tracePhoton(position, direction, energy core.Vec3, bounce int) {
	if bounce >= pm.scene.Params.MaxPhotonBounces {
		return
	}

	direction = direction.Normalize()
	ray := core.NewRay(position, direction)
	hit := material.NewHit()
	if !pm.scene.CastRay(ray, &hit, false) {
		return
	}

	mat := hit.Material
	if mat.IsEmitting() {
		return
	}

	point := ray.At(hit.T)
	normal := hit.Normal
	if normal.Dot(direction) > 0 {
		normal = normal.Negate()
	}

	diffuse := mat.DiffuseColor(hit.UV)
	if bounce > 0 && diffuse.MaxComponent() > 0 {
		pm.tree.AddPhoton(kdtree.NewPhoton(point, direction, energy, bounce))
	}

	pd := diffuse.MaxComponent()
	ps := mat.Reflective.MaxComponent()
	if total := pd + ps; total > 1 {
		pd /= total
		ps /= total
	}

	r := pm.sampler.Get1D()
	switch {
	case r < pd:
		next := energy.MultiplyVec(diffuse).Divide(pd)
		pm.tracePhoton(point, core.RandomDiffuseDirection(normal, pm.sampler), next, bounce+1)
	case r < pd+ps:
		next := energy.MultiplyVec(mat.Reflective).Divide(ps)
		pm.tracePhoton(point, pm.glossyDirection(direction, normal, mat.Roughness), next, bounce+1)
	}
}

// glossyDirection perturbs the mirror direction by roughness, falling back
// to the mirror direction when the perturbation dips below the surface
func (pm *PhotonMap) glossyDirection(direction, normal core.Vec3, roughness float64) core.Vec3 {
	mirror := core.Reflect(direction, normal)
	if roughness <= 0 {
		return mirror
	}
	perturbed := mirror.Add(core.RandomUnitVector(pm.sampler).Multiply(roughness)).Normalize()
	if perturbed.Dot(normal) <= 0 {
		return mirror
	}
	return perturbed
}

type nearPhoton struct {
	photon   kdtree.Photon
	distance float64
}

// GatherIndirect estimates the irradiance at point from the k nearest
// photons arriving on the side normal faces. The search box starts at
// Params.GatherRadius and doubles until k photons are found or it spans
// the scene; the estimate divides the photon energy by the area of the
// disc reaching the k-th photon. Without an index the result is black.
func (pm *PhotonMap) GatherIndirect(point, normal, directionFrom core.Vec3) core.Vec3 {
	if pm.tree == nil {
		logger.Warning("photons have not been traced throughout the scene")
		return core.Vec3{}
	}

	k := pm.scene.Params.NumPhotonsToCollect
	maxRadius := pm.tree.BoundingBox.Size().Length()
	radius := pm.scene.Params.GatherRadius

	var near []nearPhoton
	var candidates []kdtree.Photon
	for {
		box := core.NewAABB(point.Subtract(core.NewVec3(radius, radius, radius)), point.Add(core.NewVec3(radius, radius, radius)))
		candidates = pm.tree.CollectPhotonsInBox(box, candidates[:0])

		near = near[:0]
		for _, p := range candidates {
			if p.DirectionFrom.Dot(normal) >= 0 {
				continue
			}
			d := p.Position.Distance(point)
			if d <= radius {
				near = append(near, nearPhoton{photon: p, distance: d})
			}
		}
		if len(near) >= k || radius >= maxRadius {
			break
		}
		radius *= 2
	}

	if len(near) == 0 {
		return core.Vec3{}
	}

	sort.Slice(near, func(i, j int) bool {
		return near[i].distance < near[j].distance
	})
	if len(near) > k {
		near = near[:k]
	}
	if r := near[len(near)-1].distance; r > 0 {
		radius = r
	}

	var energy core.Vec3
	for _, n := range near {
		energy = energy.Add(n.photon.Energy)
	}
	return energy.Divide(math.Pi * radius * radius)
}
