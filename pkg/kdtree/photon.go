package kdtree

import "github.com/df07/go-global-illumination/pkg/core"

// Photon records a light particle landing on a surface. Photons are
// immutable once created.
type Photon struct {
	Position      core.Vec3
	DirectionFrom core.Vec3 // Travel direction of the incoming photon
	Energy        core.Vec3
	Bounce        int // 0 for the emission segment
}

// NewPhoton creates a photon record
func NewPhoton(position, directionFrom, energy core.Vec3, bounce int) Photon {
	return Photon{
		Position:      position,
		DirectionFrom: directionFrom,
		Energy:        energy,
		Bounce:        bounce,
	}
}
