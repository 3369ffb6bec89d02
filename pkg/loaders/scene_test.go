package loaders

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-global-illumination/pkg/camera"
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/geometry"
)

const floorAndLight = `# floor with a small light above it
material diffuse 0.8 0.8 0.8
  reflective 0 0 0
  emitted 0 0 0
material diffuse 0 0 0
  reflective 0.1 0.1 0.1
  roughness 0.2
  emitted 5 5 5

v -1 0 -1
v -1 0  1
v  1 0  1
v  1 0 -1
v -0.2 1 -0.2
v  0.2 1 -0.2
v  0.2 1  0.2
v -0.2 1  0.2

m 0
f 1 2 3 4
m 1
f 5 6 7 8

background_color 0.1 0.2 0.3
`

func TestReadScene(t *testing.T) {
	m, err := ReadScene(strings.NewReader(floorAndLight), ".", geometry.DefaultTessellation())
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}

	if len(m.Materials) != 2 {
		t.Fatalf("Expected 2 materials, got %d", len(m.Materials))
	}
	if len(m.OriginalQuads()) != 2 {
		t.Errorf("Expected 2 original quads, got %d", len(m.OriginalQuads()))
	}
	if len(m.Lights()) != 1 {
		t.Errorf("Expected 1 light, got %d", len(m.Lights()))
	}
	if m.NumVertices() != 8 {
		t.Errorf("Expected 8 vertices, got %d", m.NumVertices())
	}
	if m.Materials[1].Roughness != 0.2 {
		t.Errorf("Expected roughness 0.2, got %v", m.Materials[1].Roughness)
	}
	if m.Materials[0].Roughness != 0 {
		t.Errorf("Expected default roughness 0, got %v", m.Materials[0].Roughness)
	}
	if m.Background != core.NewVec3(0.1, 0.2, 0.3) {
		t.Errorf("Expected background (0.1,0.2,0.3), got %v", m.Background)
	}
}

func TestReadScene_DefaultCamera(t *testing.T) {
	m, err := ReadScene(strings.NewReader(floorAndLight), ".", geometry.DefaultTessellation())
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}

	cam, ok := m.Camera.(*camera.Perspective)
	if !ok {
		t.Fatalf("Expected default perspective camera, got %T", m.Camera)
	}

	// bbox is [-1,1]x[0,1]x[-1,1]: center (0,0.5,0), max dim 2
	expectedPos := core.NewVec3(0, 0.5, 8)
	if cam.Position.Subtract(expectedPos).Length() > 1e-9 {
		t.Errorf("Expected camera position %v, got %v", expectedPos, cam.Position)
	}
	if math.Abs(cam.Angle-20*math.Pi/180) > 1e-9 {
		t.Errorf("Expected 20 degree angle, got %v", cam.Angle)
	}
}

func TestReadScene_CameraBlock(t *testing.T) {
	src := floorAndLight + `
OrthographicCamera {
    camera_position 0 5 0
    point_of_interest 0 0 0
    up 0 0 1
    size 4
}
`
	m, err := ReadScene(strings.NewReader(src), ".", geometry.DefaultTessellation())
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}
	cam, ok := m.Camera.(*camera.Orthographic)
	if !ok {
		t.Fatalf("Expected orthographic camera, got %T", m.Camera)
	}
	if cam.Size != 4 {
		t.Errorf("Expected size 4, got %v", cam.Size)
	}
}

func TestReadScene_Primitives(t *testing.T) {
	src := `material diffuse 0.5 0.5 0.5 reflective 0 0 0 emitted 0 0 0
m 0
s 0 1 0 0.5
r 0 0 0 0.2 0.5 1
`
	tess := geometry.DefaultTessellation()
	m, err := ReadScene(strings.NewReader(src), ".", tess)
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}
	if len(m.Primitives) != 2 {
		t.Fatalf("Expected 2 primitives, got %d", len(m.Primitives))
	}
	if m.Primitives[0].Kind != geometry.KindSphere || m.Primitives[1].Kind != geometry.KindCylinderRing {
		t.Errorf("Expected sphere then ring, got %v then %v", m.Primitives[0].Kind, m.Primitives[1].Kind)
	}

	expected := len(m.Primitives[0].Rasterize(tess).Quads) + len(m.Primitives[1].Rasterize(tess).Quads)
	if len(m.RasterizedFaces()) != expected {
		t.Errorf("Expected %d rasterized faces, got %d", expected, len(m.RasterizedFaces()))
	}
	if len(m.OriginalQuads()) != 0 {
		t.Errorf("Expected no original quads, got %d", len(m.OriginalQuads()))
	}
}

func TestReadScene_TextureCoordinates(t *testing.T) {
	src := `v 0 0 0
vt 0.25 0.75
`
	m, err := ReadScene(strings.NewReader(src), ".", geometry.DefaultTessellation())
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}
	uv := m.Vertex(0).UV
	if uv.X != 0.25 || uv.Y != 0.75 {
		t.Errorf("Expected uv (0.25,0.75), got %v", uv)
	}
}

func TestReadScene_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"unknown token", "v 0 0 0\nfoo 1 2\n", "unknown token"},
		{"face before material", "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n", "material"},
		{"sphere before material", "s 0 0 0 1\n", "material"},
		{"face index out of range", "material diffuse 1 1 1 reflective 0 0 0 emitted 0 0 0\nm 0\nv 0 0 0\nf 1 2 3 4\n", "out of range"},
		{"material index out of range", "m 3\n", "out of range"},
		{"malformed number", "v 0 zero 0\n", "invalid syntax"},
		{"truncated material", "material diffuse 1 1 1 reflective 0 0 0\n", "end of file"},
		{"bad material kind", "material shiny 1 1 1\n", "diffuse"},
		{"vt without vertex", "vt 0 0\n", "before any vertex"},
		{"duplicate edge", "material diffuse 1 1 1 reflective 0 0 0 emitted 0 0 0\nm 0\nv 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\nf 1 2 3 4\n", "duplicate directed edge"},
		{"missing texture", "material texture_file nope.ppm reflective 0 0 0 emitted 0 0 0\n", "loading texture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ReadScene(strings.NewReader(tt.src), t.TempDir(), geometry.DefaultTessellation())
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if m != nil {
				t.Errorf("Expected no mesh on failure")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestReadScene_ErrorLine(t *testing.T) {
	_, err := ReadScene(strings.NewReader("v 0 0 0\n\nbogus\n"), ".", geometry.DefaultTessellation())
	if err == nil || !strings.Contains(err.Error(), "[line 3]") {
		t.Errorf("Expected error at line 3, got %v", err)
	}
}

func TestLoadScene_Texture(t *testing.T) {
	dir := t.TempDir()

	tex := NewImageData(2, 1)
	tex.Set(0, 0, Color{R: 255})
	tex.Set(1, 0, Color{B: 255})
	if err := SavePPM(tex, filepath.Join(dir, "checker.ppm")); err != nil {
		t.Fatalf("SavePPM failed: %v", err)
	}

	src := `material texture_file checker.ppm reflective 0 0 0 emitted 0 0 0`
	scenePath := filepath.Join(dir, "textured.obj")
	if err := os.WriteFile(scenePath, []byte(src), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	m, err := LoadScene(scenePath, geometry.DefaultTessellation())
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	mat := m.Materials[0]
	if !mat.HasTexture() {
		t.Fatalf("Expected textured material")
	}
	if mat.TextureFile != filepath.Join(dir, "checker.ppm") {
		t.Errorf("Expected texture path %q, got %q", filepath.Join(dir, "checker.ppm"), mat.TextureFile)
	}

	left := mat.DiffuseColor(core.NewVec2(0.25, 0.5))
	right := mat.DiffuseColor(core.NewVec2(0.75, 0.5))
	if math.Abs(left.X-1) > 1e-9 || left.Z != 0 {
		t.Errorf("Expected red texel on the left, got %v", left)
	}
	if math.Abs(right.Z-1) > 1e-9 || right.X != 0 {
		t.Errorf("Expected blue texel on the right, got %v", right)
	}
}

func TestLoadScene_MissingFile(t *testing.T) {
	m, err := LoadScene(filepath.Join(t.TempDir(), "missing.obj"), geometry.DefaultTessellation())
	if err == nil {
		t.Fatal("Expected error for missing scene file")
	}
	if m != nil {
		t.Error("Expected no mesh for missing scene file")
	}
}
