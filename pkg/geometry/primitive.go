package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/material"
)

// Kind identifies the implicit shape stored in a Primitive
type Kind int

const (
	KindSphere Kind = iota
	KindCylinderRing
)

// String returns the scene-file name of the shape
func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCylinderRing:
		return "cylinder_ring"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Primitive is an implicit analytic shape. The set of shapes is closed, so
// intersection and rasterization dispatch on Kind.
type Primitive struct {
	Kind     Kind
	Center   core.Vec3
	Radius   float64 // sphere radius, or outer radius of a ring
	Inner    float64 // inner radius of a ring
	Height   float64 // ring height along y
	Material *material.Material
}

// NewSphere creates a sphere primitive
func NewSphere(center core.Vec3, radius float64, m *material.Material) *Primitive {
	if radius <= 0 {
		panic(fmt.Sprintf("sphere radius must be positive, got %v", radius))
	}
	return &Primitive{Kind: KindSphere, Center: center, Radius: radius, Material: m}
}

// NewCylinderRing creates a y-aligned hollow cylinder with annulus caps
func NewCylinderRing(center core.Vec3, height, inner, outer float64, m *material.Material) *Primitive {
	if height <= 0 || inner <= 0 || outer <= inner {
		panic(fmt.Sprintf("invalid cylinder ring: height %v inner %v outer %v", height, inner, outer))
	}
	return &Primitive{Kind: KindCylinderRing, Center: center, Radius: outer, Inner: inner, Height: height, Material: m}
}

// Intersect updates hit if the ray meets the shape closer than hit.T
func (p *Primitive) Intersect(ray core.Ray, hit *material.Hit) bool {
	switch p.Kind {
	case KindSphere:
		return p.intersectSphere(ray, hit)
	case KindCylinderRing:
		return p.intersectRing(ray, hit)
	default:
		panic(fmt.Sprintf("unknown primitive %v", p.Kind))
	}
}

// BoundingBox returns the axis-aligned bounds of the shape
func (p *Primitive) BoundingBox() core.AABB {
	extent := core.NewVec3(p.Radius, p.Radius, p.Radius)
	if p.Kind == KindCylinderRing {
		extent.Y = p.Height / 2
	}
	return core.NewAABB(p.Center.Subtract(extent), p.Center.Add(extent))
}

func (p *Primitive) intersectSphere(ray core.Ray, hit *material.Hit) bool {
	// Quadratic equation coefficients: at² + bt + c = 0
	oc := ray.Origin.Subtract(p.Center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - p.Radius*p.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return false
	}
	sqrtD := math.Sqrt(discriminant)

	// Nearest root in front of the origin
	root := (-halfB - sqrtD) / a
	if root <= core.Epsilon {
		root = (-halfB + sqrtD) / a
	}
	if math.IsNaN(root) || math.IsInf(root, 0) {
		panic(fmt.Sprintf("non-finite sphere intersection for ray %v", ray))
	}
	if root <= core.Epsilon || root >= hit.T {
		return false
	}

	normal := ray.At(root).Subtract(p.Center).Normalize()
	hit.Set(root, p.Material, normal)
	return true
}

func (p *Primitive) intersectRing(ray core.Ray, hit *material.Hit) bool {
	half := core.NewVec3(0, p.Height/2, 0)
	found := false

	if t, n, ok := p.intersectWall(ray, p.Radius); ok && t < hit.T {
		hit.Set(t, p.Material, n)
		found = true
	}
	// inner wall faces the axis
	if t, n, ok := p.intersectWall(ray, p.Inner); ok && t < hit.T {
		hit.Set(t, p.Material, n.Negate())
		found = true
	}
	if t, ok := p.intersectAnnulus(ray, p.Center.Add(half)); ok && t < hit.T {
		hit.Set(t, p.Material, core.NewVec3(0, 1, 0))
		found = true
	}
	if t, ok := p.intersectAnnulus(ray, p.Center.Subtract(half)); ok && t < hit.T {
		hit.Set(t, p.Material, core.NewVec3(0, -1, 0))
		found = true
	}
	return found
}

// intersectWall intersects the height-bounded infinite cylinder of the given radius
func (p *Primitive) intersectWall(ray core.Ray, radius float64) (float64, core.Vec3, bool) {
	ox := ray.Origin.X - p.Center.X
	oz := ray.Origin.Z - p.Center.Z
	dx, dz := ray.Direction.X, ray.Direction.Z

	a := dx*dx + dz*dz
	b := 2 * (dx*ox + dz*oz)
	c := ox*ox + oz*oz - radius*radius

	radical := b*b - 4*a*c
	if a == 0 || radical < core.Epsilon {
		return 0, core.Vec3{}, false
	}
	radical = math.Sqrt(radical)
	tMinus := (-b - radical) / (2 * a)
	tPlus := (-b + radical) / (2 * a)

	t := tMinus
	if tMinus < core.Epsilon || !p.withinHeight(ray.At(tMinus)) {
		t = tPlus
	}
	pt := ray.At(t)
	if t < core.Epsilon || !p.withinHeight(pt) {
		return 0, core.Vec3{}, false
	}
	normal := core.NewVec3(pt.X-p.Center.X, 0, pt.Z-p.Center.Z).Normalize()
	return t, normal, true
}

// intersectAnnulus intersects the horizontal ring between Inner and Radius at center.Y
func (p *Primitive) intersectAnnulus(ray core.Ray, center core.Vec3) (float64, bool) {
	if ray.Direction.Y == 0 {
		return 0, false
	}
	t := (center.Y - ray.Origin.Y) / ray.Direction.Y
	if t < core.Epsilon {
		return 0, false
	}
	pt := ray.At(t)
	dist := math.Hypot(pt.X-center.X, pt.Z-center.Z)
	if dist < p.Inner || dist > p.Radius {
		return 0, false
	}
	return t, true
}

func (p *Primitive) withinHeight(pt core.Vec3) bool {
	return pt.Y <= p.Center.Y+p.Height/2 && pt.Y >= p.Center.Y-p.Height/2
}
