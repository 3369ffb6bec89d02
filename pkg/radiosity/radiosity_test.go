package radiosity

import (
	"math"
	"strings"
	"testing"

	"github.com/df07/go-global-illumination/pkg/buffers"
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/loaders"
	"github.com/df07/go-global-illumination/pkg/material"
	"github.com/df07/go-global-illumination/pkg/scene"
)

// A 2x2 light facing down one unit above a 2x2 grey floor facing up
const facingQuads = `material diffuse 0.5 0.5 0.5 reflective 0 0 0 emitted 0 0 0
material diffuse 0 0 0 reflective 0 0 0 emitted 1 1 1
v -1 0 -1
v -1 0 1
v 1 0 1
v 1 0 -1
v -1 1 -1
v 1 1 -1
v 1 1 1
v -1 1 1
m 0
f 1 2 3 4
m 1
f 5 6 7 8
`

// A closed [-1,1]^3 room with a light just below the ceiling
const room = `material diffuse 0.7 0.7 0.7 reflective 0 0 0 emitted 0 0 0
material diffuse 0 0 0 reflective 0 0 0 emitted 5 5 5
m 0
v -1 -1 -1
v -1 -1 1
v 1 -1 1
v 1 -1 -1
f 1 2 3 4
v -1 1 -1
v 1 1 -1
v 1 1 1
v -1 1 1
f 5 6 7 8
v -1 -1 -1
v -1 1 -1
v -1 1 1
v -1 -1 1
f 9 10 11 12
v 1 -1 -1
v 1 -1 1
v 1 1 1
v 1 1 -1
f 13 14 15 16
v -1 -1 -1
v 1 -1 -1
v 1 1 -1
v -1 1 -1
f 17 18 19 20
v -1 -1 1
v -1 1 1
v 1 1 1
v 1 -1 1
f 21 22 23 24
m 1
v -0.25 0.98 -0.25
v 0.25 0.98 -0.25
v 0.25 0.98 0.25
v -0.25 0.98 0.25
f 25 26 27 28
`

func loadScene(t *testing.T, src string, params scene.Params) *scene.Scene {
	t.Helper()
	m, err := loaders.ReadScene(strings.NewReader(src), ".", params.Tessellation())
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}
	return scene.New(m, params)
}

func vecClose(a, b core.Vec3) bool {
	return a.Subtract(b).Length() < 1e-9
}

func TestReset(t *testing.T) {
	r := New(loadScene(t, facingQuads, scene.DefaultParams()))

	if r.NumFaces() != 2 {
		t.Fatalf("Expected 2 patches, got %d", r.NumFaces())
	}
	if r.HasFormFactors() {
		t.Error("Expected form factors to be computed lazily")
	}

	tests := []struct {
		patch    int
		radiance core.Vec3
	}{
		{0, core.Vec3{}},
		{1, core.NewVec3(1, 1, 1)},
	}
	for _, tt := range tests {
		if !vecClose(r.Radiance(tt.patch), tt.radiance) {
			t.Errorf("Expected radiance %v for patch %d, got %v", tt.radiance, tt.patch, r.Radiance(tt.patch))
		}
		if !vecClose(r.Undistributed(tt.patch), tt.radiance) {
			t.Errorf("Expected undistributed %v for patch %d, got %v", tt.radiance, tt.patch, r.Undistributed(tt.patch))
		}
		if !r.Absorbed(tt.patch).IsZero() {
			t.Errorf("Expected no absorbed energy for patch %d, got %v", tt.patch, r.Absorbed(tt.patch))
		}
		if math.Abs(r.Area(tt.patch)-4) > 1e-9 {
			t.Errorf("Expected area 4 for patch %d, got %v", tt.patch, r.Area(tt.patch))
		}
	}

	if r.MaxUndistributedPatch() != 1 {
		t.Errorf("Expected light to shoot first, got patch %d", r.MaxUndistributedPatch())
	}
	if math.Abs(r.TotalUndistributed()-4*math.Sqrt(3)) > 1e-9 {
		t.Errorf("Expected total undistributed %v, got %v", 4*math.Sqrt(3), r.TotalUndistributed())
	}
	if math.Abs(r.TotalArea()-8) > 1e-9 {
		t.Errorf("Expected total area 8, got %v", r.TotalArea())
	}
}

func TestIterate_FacingQuads(t *testing.T) {
	r := New(loadScene(t, facingQuads, scene.DefaultParams()))

	if ff := r.FormFactor(1, 0); math.Abs(ff-1) > 1e-9 {
		t.Fatalf("Expected normalized form factor 1, got %v", ff)
	}

	total := r.Iterate()
	half := core.NewVec3(0.5, 0.5, 0.5)
	if !vecClose(r.Radiance(0), half) {
		t.Errorf("Expected floor radiance %v, got %v", half, r.Radiance(0))
	}
	if !vecClose(r.Absorbed(0), half) {
		t.Errorf("Expected floor absorbed %v, got %v", half, r.Absorbed(0))
	}
	if !r.Undistributed(1).IsZero() {
		t.Errorf("Expected light to have shot everything, got %v", r.Undistributed(1))
	}
	if math.Abs(total-4*half.Length()) > 1e-9 {
		t.Errorf("Expected total undistributed %v, got %v", 4*half.Length(), total)
	}

	// The floor shoots back into the black light, which absorbs it all
	total = r.Iterate()
	if total > 1e-9 {
		t.Errorf("Expected no undistributed energy left, got %v", total)
	}
	if !vecClose(r.Absorbed(1), half) {
		t.Errorf("Expected light absorbed %v, got %v", half, r.Absorbed(1))
	}
	if !vecClose(r.Radiance(1), core.NewVec3(1, 1, 1)) {
		t.Errorf("Expected light radiance unchanged, got %v", r.Radiance(1))
	}
}

func TestFormFactors_RowsNormalized(t *testing.T) {
	for _, samples := range []int{1, 4} {
		params := scene.DefaultParams()
		params.NumFormFactorSamples = samples
		r := New(loadScene(t, room, params))
		r.ComputeFormFactors()

		for i := 0; i < r.NumFaces(); i++ {
			sum := 0.0
			for j := 0; j < r.NumFaces(); j++ {
				ff := r.FormFactor(i, j)
				if ff < 0 {
					t.Errorf("Expected non-negative form factor, got F(%d,%d)=%v", i, j, ff)
				}
				sum += ff
			}
			if r.FormFactor(i, i) != 0 {
				t.Errorf("Expected F(%d,%d)=0, got %v", i, i, r.FormFactor(i, i))
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("samples=%d: Expected row %d to sum to 1, got %v", samples, i, sum)
			}
		}
	}
}

func TestFormFactors_Occlusion(t *testing.T) {
	r := New(loadScene(t, room, scene.DefaultParams()))

	// mirrored walls exchange energy equally in both directions
	if math.Abs(r.FormFactor(2, 3)-r.FormFactor(3, 2)) > 1e-9 {
		t.Errorf("Expected symmetric wall factors, got %v and %v", r.FormFactor(2, 3), r.FormFactor(3, 2))
	}
	if r.FormFactor(2, 3) <= 0 {
		t.Errorf("Expected opposite walls to see each other, got %v", r.FormFactor(2, 3))
	}

	// the light hangs between floor and ceiling centroids: it blocks the
	// floor's view but is transparent from behind
	if r.FormFactor(0, 1) != 0 {
		t.Errorf("Expected the light to occlude the ceiling from the floor, got %v", r.FormFactor(0, 1))
	}
	if r.FormFactor(1, 0) <= 0 {
		t.Errorf("Expected the ceiling to see the floor past the back of the light, got %v", r.FormFactor(1, 0))
	}
	if r.FormFactor(1, 6) != 0 {
		t.Errorf("Expected the ceiling to miss the back of the light, got %v", r.FormFactor(1, 6))
	}
}

func TestSolve_Converges(t *testing.T) {
	r := New(loadScene(t, room, scene.DefaultParams()))
	previous := r.TotalUndistributed()
	for i := 0; i < 50; i++ {
		total := r.Iterate()
		if total > previous+1e-9 {
			t.Fatalf("Expected undistributed energy to not increase, got %v after %v at iteration %d", total, previous, i)
		}
		previous = total
	}

	r.Reset()
	initial := r.TotalUndistributed()
	iterations, total := r.Solve(initial*0.01, 1000)
	if total > initial*0.01 {
		t.Errorf("Expected convergence below %v, got %v after %d iterations", initial*0.01, total, iterations)
	}
	if iterations == 0 {
		t.Error("Expected at least one iteration")
	}
	if r.Radiance(0).IsZero() {
		t.Error("Expected the floor to receive light")
	}
}

func TestSubdivide(t *testing.T) {
	r := New(loadScene(t, room, scene.DefaultParams()))
	r.Subdivide()
	if r.NumFaces() != 28 {
		t.Errorf("Expected 28 patches after one subdivision, got %d", r.NumFaces())
	}
	if r.HasFormFactors() {
		t.Error("Expected subdivision to drop form factors")
	}
	if math.Abs(r.TotalArea()-(24+0.25)) > 1e-9 {
		t.Errorf("Expected area to be preserved, got %v", r.TotalArea())
	}
}

func TestCastRay_Patches(t *testing.T) {
	r := New(loadScene(t, room, scene.DefaultParams()))
	r.Subdivide()
	r.Subdivide()
	m := r.scene.Mesh

	sampler := core.NewSeededSampler(3)
	for i := 0; i < 200; i++ {
		ray := core.NewRay(core.NewVec3(0, 0, 0), core.RandomUnitVector(sampler))

		expected := material.NewHit()
		for j := 0; j < r.NumFaces(); j++ {
			m.Intersect(m.GetFace(j), ray, &expected, false)
		}

		patch, hit := r.CastRay(ray)
		if patch < 0 {
			t.Fatalf("ray %d: Expected a patch inside the closed room, got none", i)
		}
		if math.Abs(hit.T-expected.T) > 1e-9 {
			t.Fatalf("ray %d: Expected t=%v, got %v", i, expected.T, hit.T)
		}
	}

	away := core.NewRay(core.NewVec3(0, 5, 0), core.NewVec3(0, 1, 0))
	if patch, _ := r.CastRay(away); patch != -1 {
		t.Errorf("Expected -1 for a ray leaving the room, got %d", patch)
	}
}

func TestPatchAccessors_OutOfRange(t *testing.T) {
	r := New(loadScene(t, facingQuads, scene.DefaultParams()))
	tests := []struct {
		name string
		fn   func()
	}{
		{"radiance", func() { r.Radiance(2) }},
		{"area", func() { r.Area(-1) }},
		{"form factor", func() { r.FormFactor(0, 5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Expected panic for out of range patch")
				}
			}()
			tt.fn()
		})
	}
}

func TestRenderMode(t *testing.T) {
	tests := []struct {
		in   string
		want RenderMode
	}{
		{"materials", RenderMaterials},
		{"RADIANCE", RenderRadiance},
		{"form-factors", RenderFormFactors},
		{"absorbed", RenderAbsorbed},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRenderMode(tt.in)
			if err != nil {
				t.Fatalf("ParseRenderMode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
	if _, err := ParseRenderMode("nope"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestPackMesh(t *testing.T) {
	r := New(loadScene(t, facingQuads, scene.DefaultParams()))
	r.RenderMode = RenderLights
	r.Wireframe = true
	r.Interpolate = true

	b, err := buffers.Pack(r)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if b.TriCount() != 24 {
		t.Errorf("Expected 24 triangles, got %d", b.TriCount())
	}
	if b.PointCount() != 0 {
		t.Errorf("Expected no points, got %d", b.PointCount())
	}

	// the light patch is packed second and shows its emission
	v := b.Triangles[12*3]
	if v.Color[0] != 1 || v.Color[1] != 1 || v.Color[2] != 1 {
		t.Errorf("Expected white light color, got %v", v.Color)
	}
	floor := b.Triangles[0]
	if floor.Color[0] != 0 {
		t.Errorf("Expected black floor in lights mode, got %v", floor.Color)
	}
}

func TestPackMesh_FormFactorOutline(t *testing.T) {
	r := New(loadScene(t, facingQuads, scene.DefaultParams()))
	r.RenderMode = RenderFormFactors
	r.Wireframe = true

	b, err := buffers.Pack(r)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	light := b.Triangles[12*3]
	if light.Wire[0] != 1 || light.Wire[1] != 0 {
		t.Errorf("Expected red outline on the shooting patch, got %v", light.Wire)
	}
	floor := b.Triangles[0]
	if floor.Wire[0] != 0 {
		t.Errorf("Expected black outline on other patches, got %v", floor.Wire)
	}
}
