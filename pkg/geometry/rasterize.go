package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-global-illumination/pkg/core"
)

// Tessellation controls how finely primitives are rasterized into quads
type Tessellation struct {
	SphereHoriz  int // longitude steps, must be even
	SphereVert   int // latitude steps
	CylinderRing int // steps around a cylinder ring
}

// DefaultTessellation returns the classic 8x6 sphere and 20-step ring
func DefaultTessellation() Tessellation {
	return Tessellation{SphereHoriz: 8, SphereVert: 6, CylinderRing: 20}
}

// Rasterization is a quad mesh approximating a primitive. Quads index into
// Vertices and are wound counter-clockwise seen from outside.
type Rasterization struct {
	Vertices []core.Vec3
	Quads    [][4]int
}

// Rasterize converts the primitive into quad patches for radiosity
func (p *Primitive) Rasterize(tess Tessellation) Rasterization {
	switch p.Kind {
	case KindSphere:
		return p.rasterizeSphere(tess.SphereHoriz, tess.SphereVert)
	case KindCylinderRing:
		return p.rasterizeRing(tess.CylinderRing)
	default:
		panic(fmt.Sprintf("unknown primitive %v", p.Kind))
	}
}

// SpherePoint places a point at longitude s and latitude t, both in [0,1],
// with t=0 at the south pole
func SpherePoint(s, t float64, center core.Vec3, radius float64) core.Vec3 {
	angle := 2 * math.Pi * s
	y := -math.Cos(math.Pi * t)
	factor := math.Sqrt(math.Max(0, 1-y*y))
	x := factor * math.Cos(angle)
	z := factor * -math.Sin(angle)
	return core.NewVec3(x, y, z).Multiply(radius).Add(center)
}

func (p *Primitive) rasterizeSphere(h, v int) Rasterization {
	if h%2 != 0 || h < 2 || v < 2 {
		panic(fmt.Sprintf("invalid sphere tessellation %dx%d", h, v))
	}

	var r Rasterization
	r.Vertices = append(r.Vertices, p.Center.Add(core.NewVec3(0, -p.Radius, 0)))
	for j := 1; j < v; j++ {
		for i := 0; i < h; i++ {
			r.Vertices = append(r.Vertices, SpherePoint(float64(i)/float64(h), float64(j)/float64(v), p.Center, p.Radius))
		}
	}
	r.Vertices = append(r.Vertices, p.Center.Add(core.NewVec3(0, p.Radius, 0)))

	// middle bands
	for j := 1; j < v-1; j++ {
		for i := 0; i < h; i++ {
			a := 1 + i + h*(j-1)
			b := 1 + (i+1)%h + h*(j-1)
			c := 1 + i + h*j
			d := 1 + (i+1)%h + h*j
			r.Quads = append(r.Quads, [4]int{a, b, d, c})
		}
	}

	// pole fans, two longitude steps per quad
	bottom := 0
	top := 1 + h*(v-1)
	for i := 0; i < h; i += 2 {
		b := 1 + i
		c := 1 + (i+1)%h
		d := 1 + (i+2)%h
		r.Quads = append(r.Quads, [4]int{d, c, b, bottom})

		b = 1 + i + h*(v-2)
		c = 1 + (i+1)%h + h*(v-2)
		d = 1 + (i+2)%h + h*(v-2)
		r.Quads = append(r.Quads, [4]int{b, c, d, top})
	}
	return r
}

// RingPoint places a point at angle fraction s on the circle of the given
// radius, offset by height along y
func RingPoint(s float64, center core.Vec3, radius, height float64) core.Vec3 {
	angle := 2 * math.Pi * s
	return center.Add(core.NewVec3(radius*math.Cos(angle), height, radius*-math.Sin(angle)))
}

func (p *Primitive) rasterizeRing(n int) Rasterization {
	if n < 3 {
		panic(fmt.Sprintf("invalid cylinder ring tessellation %d", n))
	}

	var r Rasterization
	for i := 0; i < n; i++ {
		s := float64(i) / float64(n)
		r.Vertices = append(r.Vertices,
			RingPoint(s, p.Center, p.Radius, -p.Height/2),
			RingPoint(s, p.Center, p.Radius, p.Height/2),
			RingPoint(s, p.Center, p.Inner, p.Height/2),
			RingPoint(s, p.Center, p.Inner, -p.Height/2),
		)
	}

	// outer wall, top cap, inner wall, bottom cap for every step
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		for j := 0; j < 4; j++ {
			r.Quads = append(r.Quads, [4]int{
				4*i + j,
				4*next + j,
				4*next + (j+1)%4,
				4*i + (j+1)%4,
			})
		}
	}
	return r
}
