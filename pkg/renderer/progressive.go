package renderer

import (
	"context"
	"time"

	"github.com/df07/go-global-illumination/pkg/buffers"
	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/loaders"
)

// Slot names one of the two cell buffers of the progressive drawer
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

// Other returns the opposite slot
func (s Slot) Other() Slot {
	return 1 - s
}

func (s Slot) String() string {
	if s == SlotA {
		return "A"
	}
	return "B"
}

// Cell is one traced grid cell: a quad on the plane halfway between the
// camera and its point of interest, colored in display space
type Cell struct {
	Corners [4]core.Vec3
	Color   core.Vec3
}

// Offset of the slot being written toward the viewer, so a finer pass
// draws over the coarser one it replaces
const liveCellOffset = 0.02

// ProgressiveDrawer traces the image coarse to fine, one cell per
// DrawCell call. Each pass covers the image with divsX×divsY cells; when a
// pass completes the grid is refined ×3 (snapping to full resolution once
// it passes half of it) and drawing moves to the other slot, leaving the
// finished pass visible until the new one replaces it.
type ProgressiveDrawer struct {
	tracer  *RayTracer
	sampler core.Sampler
	logger  core.Logger

	width, height int
	divsX, divsY  int
	x, y          int

	live       Slot // slot being written
	generation int  // completed passes
	done       bool
	cells      [2][]Cell
	frame      *loaders.ImageData

	// MaxPasses ends RenderProgressive after this many passes, 0 runs
	// until the full resolution pass
	MaxPasses int
}

// NewProgressiveDrawer starts at Params.ProgressiveDivs cells along the
// shorter image side
func NewProgressiveDrawer(rt *RayTracer, sampler core.Sampler, logger core.Logger) *ProgressiveDrawer {
	p := rt.scene.Params
	d := &ProgressiveDrawer{
		tracer:  rt,
		sampler: sampler,
		logger:  logger,
		width:   p.Width,
		height:  p.Height,
		frame:   loaders.NewImageData(p.Width, p.Height),
	}
	if p.Width < p.Height {
		d.divsX = p.ProgressiveDivs
		d.divsY = p.ProgressiveDivs * p.Height / p.Width
	} else {
		d.divsX = p.ProgressiveDivs * p.Width / p.Height
		d.divsY = p.ProgressiveDivs
	}
	d.divsX = max(1, min(d.divsX, p.Width))
	d.divsY = max(1, min(d.divsY, p.Height))
	return d
}

// Divs returns the current cell grid
func (d *ProgressiveDrawer) Divs() (int, int) { return d.divsX, d.divsY }

// Live returns the slot being written
func (d *ProgressiveDrawer) Live() Slot { return d.live }

// Generation returns the number of completed passes
func (d *ProgressiveDrawer) Generation() int { return d.generation }

// Done reports whether the full-resolution pass has completed
func (d *ProgressiveDrawer) Done() bool { return d.done }

// Cells returns the cells drawn into slot
func (d *ProgressiveDrawer) Cells(s Slot) []Cell { return d.cells[s] }

// Frame returns the image as drawn so far. Each cell fills the pixels it
// covers, so a partial pass shows over the previous one.
func (d *ProgressiveDrawer) Frame() *loaders.ImageData { return d.frame }

func (d *ProgressiveDrawer) passComplete() bool {
	return d.y >= d.divsY
}

func (d *ProgressiveDrawer) atFullResolution() bool {
	return d.divsX >= d.width || d.divsY >= d.height
}

// refine starts the next, finer pass in the other slot
func (d *ProgressiveDrawer) refine() {
	d.divsX *= 3
	d.divsY *= 3
	if float64(d.divsX) > 0.51*float64(d.width) || float64(d.divsY) > 0.51*float64(d.height) {
		d.divsX, d.divsY = d.width, d.height
	}
	d.x, d.y = 0, 0
	d.live = d.live.Other()
	d.cells[d.live] = d.cells[d.live][:0]
}

// DrawCell traces the next cell and returns false once the image is
// complete at full resolution
func (d *ProgressiveDrawer) DrawCell() bool {
	if d.done {
		return false
	}
	if d.passComplete() {
		if d.atFullResolution() {
			d.done = true
			return false
		}
		d.refine()
	}

	xSpacing := float64(d.width) / float64(d.divsX)
	ySpacing := float64(d.height) / float64(d.divsY)
	fx, fy := float64(d.x), float64(d.y)

	cell := Cell{
		Corners: [4]core.Vec3{
			d.planePosition(fx*xSpacing, fy*ySpacing),
			d.planePosition((fx+1)*xSpacing, fy*ySpacing),
			d.planePosition((fx+1)*xSpacing, (fy+1)*ySpacing),
			d.planePosition(fx*xSpacing, (fy+1)*ySpacing),
		},
	}
	linear := d.tracer.traceScreen((fx+0.5)*xSpacing, (fy+0.5)*ySpacing, d.sampler, nil)
	cell.Color = linear.ToSRGB()
	d.cells[d.live] = append(d.cells[d.live], cell)
	d.fill(int(fx*xSpacing), int(fy*ySpacing), int((fx+1)*xSpacing), int((fy+1)*ySpacing), linear)

	d.x++
	if d.x >= d.divsX {
		d.x = 0
		d.y++
		if d.passComplete() {
			d.generation++
		}
	}
	return true
}

// DrawPass draws cells until the current pass completes. It returns false
// when there was nothing left to draw.
func (d *ProgressiveDrawer) DrawPass() bool {
	drew := false
	for d.DrawCell() {
		drew = true
		if d.passComplete() {
			break
		}
	}
	return drew
}

func (d *ProgressiveDrawer) fill(x0, y0, x1, y1 int, linear core.Vec3) {
	x1 = max(min(x1, d.width), x0+1)
	y1 = max(min(y1, d.height), y0+1)
	for y := y0; y < y1 && y < d.height; y++ {
		for x := x0; x < x1 && x < d.width; x++ {
			d.frame.SetLinear(x, y, linear)
		}
	}
}

// planePosition returns the point on the primary ray through (i, j) halfway
// between the camera and its point of interest
func (d *ProgressiveDrawer) planePosition(i, j float64) core.Vec3 {
	ray := d.tracer.PixelRay(i, j)
	frame := d.tracer.scene.Mesh.Camera.Placement()
	distance := frame.Position.Subtract(frame.PointOfInterest).Length() / 2
	return ray.At(distance / ray.Direction.Length())
}

// TriCount returns two triangles per cell in both slots
func (d *ProgressiveDrawer) TriCount() int {
	return (len(d.cells[SlotA]) + len(d.cells[SlotB])) * buffers.TrianglesPerQuad
}

// PointCount is always zero
func (d *ProgressiveDrawer) PointCount() int { return 0 }

// PackMesh draws the cells of both slots as flat quads, nudging the live
// slot toward the viewer
func (d *ProgressiveDrawer) PackMesh(b *buffers.Buffer) {
	for _, s := range []Slot{SlotA, SlotB} {
		for _, c := range d.cells[s] {
			v := c.Corners
			if s == d.live {
				normal := core.TriangleNormal(v[0], v[1], v[2]).Add(core.TriangleNormal(v[0], v[2], v[3])).Normalize()
				for k := range v {
					v[k] = v[k].Add(normal.Multiply(liveCellOffset))
				}
			}
			b.AddQuad(v[0], v[1], v[2], v[3], core.Vec3{}, c.Color)
		}
	}
}

// PassResult is emitted each time a progressive pass completes
type PassResult struct {
	Generation int
	DivsX      int
	DivsY      int
	Image      *loaders.ImageData // snapshot of the frame
	Duration   time.Duration
	IsLast     bool
}

// RenderProgressive drives the drawer pass by pass in a goroutine and
// streams a snapshot after every pass, the last one flagged IsLast.
// Cancelling ctx stops between rows.
// The caller should read both channels until they close.
func (d *ProgressiveDrawer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		d.logger.Printf("Starting progressive rendering at %dx%d cells...\n", d.divsX, d.divsY)

		for !d.done {
			start := time.Now()
			for d.DrawCell() {
				if d.x == 0 {
					select {
					case <-ctx.Done():
						d.logger.Printf("Rendering cancelled during pass %d\n", d.generation+1)
						errChan <- ctx.Err()
						return
					default:
					}
				}
				if d.passComplete() {
					break
				}
			}
			if !d.passComplete() {
				return
			}

			d.logger.Printf("Pass %d (%dx%d cells) completed in %v\n", d.generation, d.divsX, d.divsY, time.Since(start))

			snapshot := *d.frame
			snapshot.Pixels = append([]loaders.Color(nil), d.frame.Pixels...)
			result := PassResult{
				Generation: d.generation,
				DivsX:      d.divsX,
				DivsY:      d.divsY,
				Image:      &snapshot,
				Duration:   time.Since(start),
				IsLast:     d.atFullResolution() || (d.MaxPasses > 0 && d.generation >= d.MaxPasses),
			}
			select {
			case passChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
			if result.IsLast {
				d.done = d.atFullResolution()
				return
			}
		}
	}()

	return passChan, errChan
}
