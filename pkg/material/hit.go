package material

import (
	"math"

	"github.com/df07/go-global-illumination/pkg/core"
)

// Hit records the closest intersection found so far along a ray.
// A fresh Hit has T = +max meaning "no intersection".
type Hit struct {
	T        float64   // Parameter t along the ray
	Material *Material // Material of the hit surface
	Normal   core.Vec3 // Surface normal at intersection
	UV       core.Vec2 // Interpolated texture coordinates
}

// NewHit returns an empty hit record
func NewHit() Hit {
	return Hit{T: math.MaxFloat64}
}

// Set records a new closest hit and clears texture coordinates
func (h *Hit) Set(t float64, m *Material, normal core.Vec3) {
	h.T = t
	h.Material = m
	h.Normal = normal
	h.UV = core.Vec2{}
}

// Found reports whether any surface was hit
func (h *Hit) Found() bool {
	return h.T < math.MaxFloat64
}
