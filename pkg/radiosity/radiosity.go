package radiosity

import (
	"fmt"
	"math"
	"time"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/log"
	"github.com/df07/go-global-illumination/pkg/material"
	"github.com/df07/go-global-illumination/pkg/mesh"
	"github.com/df07/go-global-illumination/pkg/scene"
)

var logger = log.New("radiosity")

// Radiosity is a progressive (shooting) radiosity solver over the mesh's
// subdivided quads and rasterized primitive faces. Patch i of the parallel
// arrays corresponds to mesh.GetFace(i).
type Radiosity struct {
	scene   *scene.Scene
	sampler core.Sampler

	numFaces      int
	formFactors   []float64 // numFaces×numFaces, row i = energy leaving i; nil until computed
	area          []float64
	normal        []core.Vec3
	undistributed []core.Vec3
	absorbed      []core.Vec3
	radiance      []core.Vec3
	patches       *core.BVH // bounds of every patch, rebuilt on Reset

	maxUndistributed   int
	totalUndistributed float64
	totalArea          float64

	// Visualization settings consumed by PackMesh
	RenderMode  RenderMode
	Interpolate bool
	Wireframe   bool
}

// New creates a solver and resets it against the current mesh
func New(s *scene.Scene) *Radiosity {
	r := &Radiosity{
		scene:   s,
		sampler: core.NewSeededSampler(s.Params.Seed),
	}
	r.Reset()
	return r
}

// Reset rebuilds the patch arrays from the mesh: radiance and undistributed
// energy start at each patch's emission, absorbed energy at zero. Form
// factors are dropped and recomputed lazily.
func (r *Radiosity) Reset() {
	m := r.scene.Mesh
	r.numFaces = m.NumFaces()
	r.formFactors = nil
	r.area = make([]float64, r.numFaces)
	r.normal = make([]core.Vec3, r.numFaces)
	r.undistributed = make([]core.Vec3, r.numFaces)
	r.absorbed = make([]core.Vec3, r.numFaces)
	r.radiance = make([]core.Vec3, r.numFaces)
	boxes := make([]core.AABB, r.numFaces)

	for i := 0; i < r.numFaces; i++ {
		f := m.GetFace(i)
		m.SetPatchIndex(f, i)
		p := m.FacePositions(f)
		boxes[i] = core.NewAABBFromPoints(p[0], p[1], p[2], p[3]).Expand(core.Epsilon)
		r.area[i] = m.Area(f)
		r.normal[i] = m.Normal(f)
		emit := m.FaceMaterial(f).Emitted
		r.undistributed[i] = emit
		r.radiance[i] = emit
	}
	r.patches = core.NewBVH(boxes)
	r.findMaxUndistributed()
}

// findMaxUndistributed locates argmax |undistributed|·area and refreshes
// the area and undistributed totals
func (r *Radiosity) findMaxUndistributed() {
	r.maxUndistributed = -1
	r.totalUndistributed = 0
	r.totalArea = 0
	best := -1.0
	for i := 0; i < r.numFaces; i++ {
		energy := r.undistributed[i].Length() * r.area[i]
		r.totalUndistributed += energy
		r.totalArea += r.area[i]
		if energy > best {
			best = energy
			r.maxUndistributed = i
		}
	}
}

// Subdivide refines every original quad once and resets the solver
func (r *Radiosity) Subdivide() {
	r.scene.Mesh.Subdivision()
	r.Reset()
	logger.Infof("subdivided to %d patches", r.numFaces)
}

func (r *Radiosity) checkPatch(i int) {
	if i < 0 || i >= r.numFaces {
		panic(fmt.Sprintf("radiosity: patch index %d out of range [0,%d)", i, r.numFaces))
	}
}

// NumFaces returns the number of patches
func (r *Radiosity) NumFaces() int { return r.numFaces }

// Area returns the area of patch i
func (r *Radiosity) Area(i int) float64 {
	r.checkPatch(i)
	return r.area[i]
}

// Radiance returns the accumulated radiance of patch i
func (r *Radiosity) Radiance(i int) core.Vec3 {
	r.checkPatch(i)
	return r.radiance[i]
}

// Undistributed returns the energy patch i has yet to shoot
func (r *Radiosity) Undistributed(i int) core.Vec3 {
	r.checkPatch(i)
	return r.undistributed[i]
}

// Absorbed returns the energy patch i has absorbed
func (r *Radiosity) Absorbed(i int) core.Vec3 {
	r.checkPatch(i)
	return r.absorbed[i]
}

// MaxUndistributedPatch returns the patch that will shoot next, -1 without patches
func (r *Radiosity) MaxUndistributedPatch() int { return r.maxUndistributed }

// TotalUndistributed returns Σ |undistributed|·area
func (r *Radiosity) TotalUndistributed() float64 { return r.totalUndistributed }

// TotalArea returns the summed patch area
func (r *Radiosity) TotalArea() float64 { return r.totalArea }

// HasFormFactors reports whether the form factor matrix has been computed
func (r *Radiosity) HasFormFactors() bool { return r.formFactors != nil }

// FormFactor returns the fraction of the energy leaving patch i that
// reaches patch j. Form factors are computed on first use.
func (r *Radiosity) FormFactor(i, j int) float64 {
	r.checkPatch(i)
	r.checkPatch(j)
	if r.formFactors == nil {
		r.ComputeFormFactors()
	}
	return r.formFactors[i*r.numFaces+j]
}

// ComputeFormFactors fills the form factor matrix using the point-to-patch
// approximation cosθi·cosθj·Aj / (π r²) between patch centroids, scaled by
// the fraction of Params.NumFormFactorSamples visibility rays that reach
// the other patch. Each row is then normalized to sum to one. Surfaces are
// one-sided unless Params.IntersectBackfacing is set.
func (r *Radiosity) ComputeFormFactors() {
	start := time.Now()
	m := r.scene.Mesh
	n := r.numFaces
	samples := r.scene.Params.NumFormFactorSamples
	twoSided := r.scene.Params.IntersectBackfacing

	centroids := make([]core.Vec3, n)
	points := make([][]core.Vec3, n)
	for i := 0; i < n; i++ {
		f := m.GetFace(i)
		centroids[i] = m.Centroid(f)
		points[i] = r.samplePoints(f, samples)
	}

	r.formFactors = make([]float64, n*n)
	for i := 0; i < n; i++ {
		row := r.formFactors[i*n : (i+1)*n]
		sum := 0.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			toJ := centroids[j].Subtract(centroids[i])
			dist2 := toJ.LengthSquared()
			if dist2 == 0 {
				continue
			}
			dir := toJ.Divide(math.Sqrt(dist2))
			cosI := r.normal[i].Dot(dir)
			cosJ := -r.normal[j].Dot(dir)
			cos := cosI * cosJ
			if twoSided {
				cos = math.Abs(cos)
			} else if cosI <= 0 || cosJ <= 0 {
				continue
			}

			visible := r.visibility(points[i], points[j])
			if visible == 0 {
				continue
			}
			// F[i][j] as seen from i, weighted by the receiver's area. The
			// row is then normalized so the fractions leaving i sum to one,
			// which keeps the solver energy conserving on coarse patches.
			// Iterate converts back with A_p/A_i when shooting.
			row[j] = visible * cos * r.area[j] / (math.Pi * dist2)
			sum += row[j]
		}
		if sum > 0 {
			for j := range row {
				row[j] /= sum
			}
		}
	}
	logger.Infof("computed %d form factors in %v", n*n, time.Since(start))
}

// samplePoints returns n points on face f: the centroid for a single
// sample, otherwise a jittered grid laid out along the face's aspect ratio
func (r *Radiosity) samplePoints(f mesh.FaceID, n int) []core.Vec3 {
	m := r.scene.Mesh
	if n <= 1 {
		return []core.Vec3{m.Centroid(f)}
	}
	nab, nbc := m.SampleLayout(f, n)
	points := make([]core.Vec3, 0, nab*nbc)
	for a := 0; a < nab; a++ {
		for b := 0; b < nbc; b++ {
			jitter := r.sampler.Get2D()
			s := (float64(a) + jitter.X) / float64(nab)
			t := (float64(b) + jitter.Y) / float64(nbc)
			points = append(points, m.SamplePoint(f, s, t))
		}
	}
	return points
}

// visibility returns the fraction of unoccluded segments between paired
// sample points, using the rasterized primitives so occlusion matches the
// patch geometry
func (r *Radiosity) visibility(from, to []core.Vec3) float64 {
	count := len(from)
	if len(to) > count {
		count = len(to)
	}
	offset := 0
	if len(to) > 1 {
		offset = int(r.sampler.Get1D() * float64(len(to)))
	}

	visible := 0
	for k := 0; k < count; k++ {
		a := from[k%len(from)]
		b := to[(k+offset)%len(to)]
		if r.scene.Visible(a, b, true) {
			visible++
		}
	}
	return float64(visible) / float64(count)
}

// CastRay returns the patch closest along ray and its hit record, or -1
// when no patch is hit
func (r *Radiosity) CastRay(ray core.Ray) (int, material.Hit) {
	m := r.scene.Mesh
	backfacing := r.scene.Params.IntersectBackfacing
	hit := material.NewHit()
	patch := -1
	r.patches.Hit(ray, 0, hit.T, func(i int, _ float64) (float64, bool) {
		if m.Intersect(m.GetFace(i), ray, &hit, backfacing) {
			patch = i
			return hit.T, true
		}
		return hit.T, false
	})
	return patch, hit
}

// Iterate shoots the undistributed energy of the brightest patch to every
// other patch and returns the remaining total undistributed energy.
// Each receiver reflects its diffuse share, keeping it for later shooting,
// and absorbs the rest.
func (r *Radiosity) Iterate() float64 {
	if r.formFactors == nil {
		r.ComputeFormFactors()
	}
	if r.numFaces == 0 {
		return 0
	}

	m := r.scene.Mesh
	p := r.maxUndistributed
	shoot := r.undistributed[p]
	r.undistributed[p] = core.Vec3{}

	n := r.numFaces
	for i := 0; i < n; i++ {
		if i == p {
			continue
		}
		ff := r.formFactors[p*n+i]
		if ff == 0 {
			continue
		}
		delta := shoot.Multiply(ff * r.area[p] / r.area[i])
		rho := m.FaceMaterial(m.GetFace(i)).AverageDiffuse()
		reflected := delta.MultiplyVec(rho)

		r.radiance[i] = r.radiance[i].Add(reflected)
		r.undistributed[i] = r.undistributed[i].Add(reflected)
		r.absorbed[i] = r.absorbed[i].Add(delta.Subtract(reflected))
	}

	r.findMaxUndistributed()
	return r.totalUndistributed
}

// Solve iterates until the undistributed total drops below threshold or
// maxIterations is reached, returning the iteration count and final total
func (r *Radiosity) Solve(threshold float64, maxIterations int) (int, float64) {
	total := r.totalUndistributed
	iterations := 0
	for iterations < maxIterations && total > threshold {
		total = r.Iterate()
		iterations++
	}
	logger.Infof("radiosity: %d iterations, %g undistributed", iterations, total)
	return iterations, total
}
