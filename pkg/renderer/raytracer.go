package renderer

import (
	"math"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/material"
	"github.com/df07/go-global-illumination/pkg/mesh"
	"github.com/df07/go-global-illumination/pkg/photonmap"
	"github.com/df07/go-global-illumination/pkg/radiosity"
	"github.com/df07/go-global-illumination/pkg/scene"
)

// patchTolerance is the largest gap, as a fraction of the scene size, between
// the traced hit and the radiosity patch hit for the patch to shade it
const patchTolerance = 0.05

// RayTracer is the recursive Whitted/Monte Carlo integrator. It only reads
// the scene, the photon map and the radiosity solution, so one instance is
// shared by every worker. Randomness comes from the sampler passed to each
// call.
type RayTracer struct {
	scene     *scene.Scene
	photons   *photonmap.PhotonMap // nil disables photon gathering
	radiosity *radiosity.Radiosity // nil disables radiosity shading
}

// NewRayTracer creates a tracer. photons may be nil.
func NewRayTracer(s *scene.Scene, photons *photonmap.PhotonMap) *RayTracer {
	return &RayTracer{scene: s, photons: photons}
}

// SetRadiosity attaches a radiosity solution. Diffuse shading of every
// surface covered by a patch then comes from the patch radiance, while
// reflections are still traced. Pass nil to detach.
func (rt *RayTracer) SetRadiosity(r *radiosity.Radiosity) {
	rt.radiosity = r
}

// Scene returns the traced scene
func (rt *RayTracer) Scene() *scene.Scene {
	return rt.scene
}

// ScreenPosition maps image coordinates (i right, j up, in pixels) to the
// camera's [0,1] screen space. The larger image side spans [0,1] so pixels
// stay square.
func (rt *RayTracer) ScreenPosition(i, j float64) (float64, float64) {
	p := rt.scene.Params
	maxDim := float64(p.MaxDim())
	x := (i-float64(p.Width)/2)/maxDim + 0.5
	y := (j-float64(p.Height)/2)/maxDim + 0.5
	return x, y
}

// PixelRay returns the primary ray through image position (i, j)
func (rt *RayTracer) PixelRay(i, j float64) core.Ray {
	x, y := rt.ScreenPosition(i, j)
	return rt.scene.Mesh.Camera.GenerateRay(x, y)
}

// RenderPixel returns the linear color of pixel (i, j), averaging a regular
// ⌊√n⌋×⌊√n⌋ grid of sub-pixel samples for n antialias samples
func (rt *RayTracer) RenderPixel(i, j int, sampler core.Sampler) core.Vec3 {
	grid := gridSize(rt.scene.Params.NumAntialiasSamples)
	var sum core.Vec3
	for a := 0; a < grid; a++ {
		for b := 0; b < grid; b++ {
			x := float64(i) + (float64(a)+0.5)/float64(grid)
			y := float64(j) + (float64(b)+0.5)/float64(grid)
			sum = sum.Add(rt.traceScreen(x, y, sampler, nil))
		}
	}
	return sum.Divide(float64(grid * grid))
}

// gridSize returns ⌊√n⌋, at least 1
func gridSize(n int) int {
	return max(1, int(math.Sqrt(float64(n))))
}

// VisualizeTraceRay traces a single ray through image position (i, j),
// recording every traced segment into tree
func (rt *RayTracer) VisualizeTraceRay(i, j float64, sampler core.Sampler, tree *RayTree) core.Vec3 {
	return rt.traceScreen(i, j, sampler, tree)
}

func (rt *RayTracer) traceScreen(i, j float64, sampler core.Sampler, tree *RayTree) core.Vec3 {
	ray := rt.PixelRay(i, j)
	hit := material.NewHit()
	color := rt.TraceRay(ray, &hit, rt.scene.Params.NumBounces, sampler, tree)
	rt.record(tree, SegmentMain, ray, &hit)
	return color
}

// record adds a segment ending at hit, or a bounded segment on a miss
func (rt *RayTracer) record(tree *RayTree, kind SegmentKind, ray core.Ray, hit *material.Hit) {
	if tree == nil {
		return
	}
	end := hit.T
	if !hit.Found() {
		end = 2 * rt.scene.Mesh.BoundingBox().Size().Length() / ray.Direction.Length()
	}
	tree.Add(kind, ray, 0, end)
}

// TraceRay returns the linear radiance arriving along ray. depth bounds the
// remaining reflection and diffuse bounce recursion; hit receives the
// closest intersection. tree may be nil.
func (rt *RayTracer) TraceRay(ray core.Ray, hit *material.Hit, depth int, sampler core.Sampler, tree *RayTree) core.Vec3 {
	*hit = material.NewHit()
	if !rt.scene.CastRay(ray, hit, false) {
		return rt.scene.Mesh.Background.ToLinear()
	}

	m := hit.Material
	if m.IsEmitting() {
		return core.NewVec3(1, 1, 1)
	}

	if hit.Normal.Dot(ray.Direction) > 0 {
		hit.Normal = hit.Normal.Negate()
	}
	point := ray.At(hit.T)
	params := rt.scene.Params

	if rt.radiosity != nil {
		patch, patchHit := rt.radiosity.CastRay(ray)
		// Rasterized patches only approximate primitives. Near silhouettes
		// the patch ray can pass the facets and land on a farther surface.
		tolerance := patchTolerance * rt.scene.Mesh.BoundingBox().MaxDim()
		if patch >= 0 && math.Abs(patchHit.T-hit.T) <= tolerance {
			answer := rt.radiosity.Radiance(patch)
			if m.IsReflective() && depth > 0 {
				answer = answer.Add(m.Reflective.MultiplyVec(rt.reflection(ray, hit, point, depth, sampler, tree)))
			}
			return answer
		}
	}

	diffuse := m.DiffuseColor(hit.UV)

	// indirect
	var answer core.Vec3
	if params.GatherIndirect && rt.photons != nil {
		gathered := rt.photons.GatherIndirect(point, hit.Normal, ray.Direction)
		answer = diffuse.MultiplyVec(gathered.Add(params.AmbientLight))
	} else {
		answer = diffuse.MultiplyVec(params.AmbientLight)
		if depth > 0 && !diffuse.IsZero() {
			answer = answer.Add(rt.diffuseBounce(point, hit.Normal, diffuse, depth, sampler, tree))
		}
	}

	// direct
	for _, light := range rt.scene.Mesh.Lights() {
		answer = answer.Add(rt.directLight(ray, hit, point, light, sampler, tree))
	}

	// reflection
	if m.IsReflective() && depth > 0 {
		answer = answer.Add(m.Reflective.MultiplyVec(rt.reflection(ray, hit, point, depth, sampler, tree)))
	}
	return answer
}

// directLight returns the light face's contribution at point. With no
// shadow samples the light centroid is used unoccluded, one sample casts a
// single shadow ray to the centroid, and more samples average stratified
// shadow rays over the light's area.
func (rt *RayTracer) directLight(ray core.Ray, hit *material.Hit, point core.Vec3, light mesh.FaceID, sampler core.Sampler, tree *RayTree) core.Vec3 {
	m := rt.scene.Mesh
	emitted := m.FaceMaterial(light).Emitted.Multiply(m.Area(light))
	samples := rt.scene.Params.NumShadowSamples

	switch samples {
	case 0:
		return rt.shadeFrom(ray, hit, point, m.Centroid(light), emitted)
	case 1:
		target := m.Centroid(light)
		if !rt.visible(point, target, tree) {
			return core.Vec3{}
		}
		return rt.shadeFrom(ray, hit, point, target, emitted)
	}

	grid := gridSize(samples)
	var sum core.Vec3
	for a := 0; a < grid; a++ {
		for b := 0; b < grid; b++ {
			st := core.StratifiedSample2D(a, b, grid, sampler)
			target := m.SamplePoint(light, st.X, st.Y)
			if rt.visible(point, target, tree) {
				sum = sum.Add(rt.shadeFrom(ray, hit, point, target, emitted))
			}
		}
	}
	return sum.Divide(float64(grid * grid))
}

// shadeFrom shades hit by a light of total power emitted located at target,
// falling off as 1/(π·d²)
func (rt *RayTracer) shadeFrom(ray core.Ray, hit *material.Hit, point, target, emitted core.Vec3) core.Vec3 {
	toLight := target.Subtract(point)
	dist := toLight.Length()
	if dist == 0 {
		return core.Vec3{}
	}
	lightColor := emitted.Multiply(1 / (math.Pi * dist * dist))
	return hit.Material.Shade(ray, hit, toLight.Divide(dist), lightColor)
}

// visible casts a shadow ray scaled to reach target at t=1
func (rt *RayTracer) visible(point, target core.Vec3, tree *RayTree) bool {
	shadow := core.NewRay(point, target.Subtract(point))
	hit := material.NewHit()
	rt.scene.CastRay(shadow, &hit, false)
	if tree != nil {
		tree.Add(SegmentShadow, shadow, 0, math.Min(1, hit.T))
	}
	return hit.T > 1-core.Epsilon
}

// reflection traces the mirror ray, or for rough materials averages
// NumGlossySamples rays perturbed by roughness·randomUnitVector
func (rt *RayTracer) reflection(ray core.Ray, hit *material.Hit, point core.Vec3, depth int, sampler core.Sampler, tree *RayTree) core.Vec3 {
	mirror := core.Reflect(ray.Direction.Normalize(), hit.Normal).Normalize()
	roughness := hit.Material.Roughness
	samples := rt.scene.Params.NumGlossySamples
	if roughness == 0 || samples <= 1 {
		samples = 1
	}

	var sum core.Vec3
	for s := 0; s < samples; s++ {
		dir := mirror
		if samples > 1 {
			dir = mirror.Add(core.RandomUnitVector(sampler).Multiply(roughness)).Normalize()
			if dir.Dot(hit.Normal) <= 0 {
				dir = mirror
			}
		}
		reflected := core.NewRay(point, dir)
		next := material.NewHit()
		sum = sum.Add(rt.TraceRay(reflected, &next, depth-1, sampler, tree))
		rt.record(tree, SegmentReflected, reflected, &next)
	}
	return sum.Divide(float64(samples))
}

// diffuseBounce traces one cosine-weighted ray, weighted by the diffuse color
func (rt *RayTracer) diffuseBounce(point, normal, diffuse core.Vec3, depth int, sampler core.Sampler, tree *RayTree) core.Vec3 {
	bounce := core.NewRay(point, core.RandomDiffuseDirection(normal, sampler))
	next := material.NewHit()
	incoming := rt.TraceRay(bounce, &next, depth-1, sampler, tree)
	rt.record(tree, SegmentBounce, bounce, &next)
	return diffuse.MultiplyVec(incoming)
}
