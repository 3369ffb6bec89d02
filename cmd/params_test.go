package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/scene"
	"github.com/urfave/cli"
)

// runWithFlags parses args against the scene flags and hands the context to fn
func runWithFlags(t *testing.T, args []string, fn func(ctx *cli.Context) error) error {
	t.Helper()
	app := cli.NewApp()
	app.Flags = SceneFlags()
	app.Action = fn
	return app.Run(append([]string{"gi"}, args...))
}

func TestParamsFromContext_Defaults(t *testing.T) {
	var params scene.Params
	err := runWithFlags(t, nil, func(ctx *cli.Context) error {
		var err error
		params, err = ParamsFromContext(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if params != scene.DefaultParams() {
		t.Errorf("Expected default params %+v, got %+v", scene.DefaultParams(), params)
	}
}

func TestParamsFromContext_Overrides(t *testing.T) {
	var params scene.Params
	err := runWithFlags(t, []string{
		"--width", "64", "--height", "32",
		"--bounces", "3", "--shadow-samples", "16", "--antialias", "4",
		"--ambient", "0.1,0.2,0.3", "--backfacing", "--gather",
		"--photons", "500", "--collect", "20", "--seed", "7", "--workers", "2",
	}, func(ctx *cli.Context) error {
		var err error
		params, err = ParamsFromContext(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := scene.DefaultParams()
	expected.Width, expected.Height = 64, 32
	expected.NumBounces = 3
	expected.NumShadowSamples = 16
	expected.NumAntialiasSamples = 4
	expected.AmbientLight = core.NewVec3(0.1, 0.2, 0.3)
	expected.IntersectBackfacing = true
	expected.GatherIndirect = true
	expected.NumPhotonsToShoot = 500
	expected.NumPhotonsToCollect = 20
	expected.Seed = 7
	expected.NumWorkers = 2
	if params != expected {
		t.Errorf("Expected %+v, got %+v", expected, params)
	}
}

func TestParamsFromContext_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"odd sphere", []string{"--sphere-horiz", "7"}, "even"},
		{"zero width", []string{"--width", "0"}, "image size"},
		{"bad ambient", []string{"--ambient", "1,2"}, "ambient"},
		{"non numeric ambient", []string{"--ambient", "bright"}, "ambient"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runWithFlags(t, tt.args, func(ctx *cli.Context) error {
				_, err := ParamsFromContext(ctx)
				return err
			})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in       string
		expected core.Vec3
	}{
		{"0.5", core.NewVec3(0.5, 0.5, 0.5)},
		{"1, 0, 0.25", core.NewVec3(1, 0, 0.25)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseColor(tt.in)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	src := "material diffuse 0.5 0.5 0.5 reflective 0 0 0 emitted 0 0 0\nm 0\nv 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var sc *scene.Scene
	err := runWithFlags(t, []string{"--width", "16", path}, func(ctx *cli.Context) error {
		var err error
		sc, err = loadScene(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sc.Params.Width != 16 {
		t.Errorf("Expected width 16, got %d", sc.Params.Width)
	}
	if sc.Mesh.NumFaces() != 1 {
		t.Errorf("Expected 1 face, got %d", sc.Mesh.NumFaces())
	}

	err = runWithFlags(t, nil, func(ctx *cli.Context) error {
		_, err := loadScene(ctx)
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "missing scene file") {
		t.Errorf("Expected missing scene error, got %v", err)
	}
}
