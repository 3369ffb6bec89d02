package scene

import (
	"strings"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
	if p.Width != 500 || p.Height != 500 {
		t.Errorf("Expected 500x500, got %dx%d", p.Width, p.Height)
	}
	if p.NumPhotonsToShoot != 10000 || p.NumPhotonsToCollect != 100 {
		t.Errorf("Expected 10000/100 photons, got %d/%d", p.NumPhotonsToShoot, p.NumPhotonsToCollect)
	}
	tess := p.Tessellation()
	if tess.SphereHoriz != 8 || tess.SphereVert != 6 || tess.CylinderRing != 20 {
		t.Errorf("Expected 8/6/20 tessellation, got %+v", tess)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *Params)
		wantErr string
	}{
		{"zero width", func(p *Params) { p.Width = 0 }, "image size"},
		{"odd sphere horiz", func(p *Params) { p.SphereHoriz = 7 }, "even"},
		{"flat sphere", func(p *Params) { p.SphereVert = 1 }, "vertical"},
		{"coarse ring", func(p *Params) { p.CylinderRing = 2 }, "cylinder"},
		{"no form factor samples", func(p *Params) { p.NumFormFactorSamples = 0 }, "form factor"},
		{"negative bounces", func(p *Params) { p.NumBounces = -1 }, "bounces"},
		{"negative shadows", func(p *Params) { p.NumShadowSamples = -1 }, "shadow"},
		{"no antialias", func(p *Params) { p.NumAntialiasSamples = 0 }, "antialias"},
		{"no glossy", func(p *Params) { p.NumGlossySamples = 0 }, "glossy"},
		{"zero block", func(p *Params) { p.BlockSize = 0 }, "block"},
		{"no progressive divs", func(p *Params) { p.ProgressiveDivs = 0 }, "progressive"},
		{"no collect", func(p *Params) { p.NumPhotonsToCollect = 0 }, "collect"},
		{"zero radius", func(p *Params) { p.GatherRadius = 0 }, "radius"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestParamsMaxDim(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height = 320, 200
	if p.MaxDim() != 320 {
		t.Errorf("Expected 320, got %d", p.MaxDim())
	}
	p.Width, p.Height = 100, 400
	if p.MaxDim() != 400 {
		t.Errorf("Expected 400, got %d", p.MaxDim())
	}
}
