package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/df07/go-global-illumination/pkg/buffers"
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/scene"
)

func newDrawer(t *testing.T, width, height, divs int) *ProgressiveDrawer {
	t.Helper()
	s := buildScene(t, litFloor, func(p *scene.Params) {
		p.Width, p.Height = width, height
		p.ProgressiveDivs = divs
	})
	return NewProgressiveDrawer(NewRayTracer(s, nil), core.NewSeededSampler(1), &testLogger{t})
}

type testLogger struct{ t *testing.T }

func (l *testLogger) Printf(format string, args ...interface{}) {
	l.t.Logf(format, args...)
}

func TestProgressiveDrawer_InitialDivs(t *testing.T) {
	tests := []struct {
		name                 string
		width, height, divs  int
		wantDivsX, wantDivsY int
	}{
		{"square", 90, 90, 10, 10, 10},
		{"wide", 20, 10, 2, 4, 2},
		{"tall", 10, 30, 2, 2, 6},
		{"more divs than pixels", 4, 4, 10, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDrawer(t, tt.width, tt.height, tt.divs)
			x, y := d.Divs()
			if x != tt.wantDivsX || y != tt.wantDivsY {
				t.Errorf("Expected %dx%d cells, got %dx%d", tt.wantDivsX, tt.wantDivsY, x, y)
			}
		})
	}
}

func TestProgressiveDrawer_Refine(t *testing.T) {
	d := newDrawer(t, 100, 100, 10)

	expected := [][2]int{{30, 30}, {100, 100}}
	slot := d.Live()
	for _, want := range expected {
		d.refine()
		x, y := d.Divs()
		if x != want[0] || y != want[1] {
			t.Errorf("Expected %dx%d cells, got %dx%d", want[0], want[1], x, y)
		}
		if d.Live() != slot.Other() {
			t.Errorf("Expected live slot to flip to %v, got %v", slot.Other(), d.Live())
		}
		slot = d.Live()
	}
}

func TestProgressiveDrawer_StateMachine(t *testing.T) {
	// 9x9 image from a single cell: passes of 1, 9 and 81 cells
	d := newDrawer(t, 9, 9, 1)

	if !d.DrawCell() {
		t.Fatal("Expected the first cell to draw")
	}
	if d.Generation() != 1 || d.Live() != SlotA {
		t.Errorf("Expected generation 1 in slot A, got %d in %v", d.Generation(), d.Live())
	}
	if len(d.Cells(SlotA)) != 1 {
		t.Errorf("Expected 1 cell in slot A, got %d", len(d.Cells(SlotA)))
	}

	if !d.DrawCell() {
		t.Fatal("Expected the second pass to start")
	}
	if x, y := d.Divs(); x != 3 || y != 3 {
		t.Errorf("Expected 3x3 cells, got %dx%d", x, y)
	}
	if d.Live() != SlotB {
		t.Errorf("Expected slot B to be live, got %v", d.Live())
	}
	if len(d.Cells(SlotA)) != 1 {
		t.Errorf("Expected the previous pass to stay visible, got %d cells", len(d.Cells(SlotA)))
	}

	drawn := 2
	for d.DrawCell() {
		drawn++
	}
	if drawn != 1+9+81 {
		t.Errorf("Expected 91 cells, got %d", drawn)
	}
	if !d.Done() || d.Generation() != 3 {
		t.Errorf("Expected done after 3 passes, got done=%v generation=%d", d.Done(), d.Generation())
	}
	if d.Live() != SlotA || len(d.Cells(SlotA)) != 81 || len(d.Cells(SlotB)) != 9 {
		t.Errorf("Expected 81 cells live in A over 9 in B, got %d and %d (live %v)", len(d.Cells(SlotA)), len(d.Cells(SlotB)), d.Live())
	}
	if d.DrawCell() {
		t.Error("Expected no more cells once done")
	}
	if d.TriCount() != 180 {
		t.Errorf("Expected 180 triangles, got %d", d.TriCount())
	}
}

func TestProgressiveDrawer_DrawPass(t *testing.T) {
	d := newDrawer(t, 9, 9, 1)
	passes := 0
	for d.DrawPass() {
		passes++
		if d.Generation() != passes {
			t.Errorf("Expected generation %d, got %d", passes, d.Generation())
		}
	}
	if passes != 3 {
		t.Errorf("Expected 3 passes, got %d", passes)
	}
}

func TestProgressiveDrawer_PackMesh(t *testing.T) {
	d := newDrawer(t, 9, 9, 1)
	d.DrawPass()
	d.DrawPass()

	b, err := buffers.Pack(d)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if b.TriCount() != (1+9)*2 {
		t.Errorf("Expected 20 triangles, got %d", b.TriCount())
	}
}

func TestProgressiveDrawer_MatchesFullRender(t *testing.T) {
	d := newDrawer(t, 9, 9, 1)
	for d.DrawPass() {
	}
	img, _, err := RenderImage(context.Background(), d.tracer, &testLogger{t})
	if err != nil {
		t.Fatalf("RenderImage failed: %v", err)
	}
	for i, c := range img.Pixels {
		if d.Frame().Pixels[i] != c {
			t.Fatalf("Expected the finest pass to match the full render at pixel %d: %v vs %v", i, d.Frame().Pixels[i], c)
		}
	}
}

func TestRenderProgressive(t *testing.T) {
	d := newDrawer(t, 9, 9, 1)
	passes, errs := d.RenderProgressive(context.Background())

	var results []PassResult
	for r := range passes {
		results = append(results, r)
	}
	for err := range errs {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 passes, got %d", len(results))
	}
	for i, r := range results {
		if r.Generation != i+1 {
			t.Errorf("Expected generation %d, got %d", i+1, r.Generation)
		}
		if r.IsLast != (i == 2) {
			t.Errorf("Expected IsLast only on the final pass, got %v at %d", r.IsLast, i)
		}
	}
	if results[2].DivsX != 9 {
		t.Errorf("Expected the last pass at full resolution, got %d", results[2].DivsX)
	}
}

func TestRenderProgressive_Cancelled(t *testing.T) {
	d := newDrawer(t, 9, 9, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	passes, errs := d.RenderProgressive(ctx)
	for range passes {
		t.Error("Expected no passes after cancellation")
	}
	err := <-errs
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRenderProgressive_MaxPasses(t *testing.T) {
	d := newDrawer(t, 9, 9, 1)
	d.MaxPasses = 2
	passes, errs := d.RenderProgressive(context.Background())

	var results []PassResult
	for r := range passes {
		results = append(results, r)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 passes, got %d", len(results))
	}
	if !results[1].IsLast || results[0].IsLast {
		t.Errorf("Expected only the second pass flagged last")
	}
	if results[1].DivsX != 3 {
		t.Errorf("Expected the second pass at 3 divs, got %d", results[1].DivsX)
	}
	if d.Done() {
		t.Error("Expected the drawer not done before full resolution")
	}
}
