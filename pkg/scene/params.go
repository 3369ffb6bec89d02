package scene

import (
	"fmt"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/geometry"
)

// Params holds every tunable consumed by the renderers. Subsystems treat
// it as read-only once rendering starts.
//
// NumShadowSamples counts shadow rays per light at each shading point. It
// is not divided by NumAntialiasSamples, so a pixel traces both counts
// multiplied together.
type Params struct {
	Width  int // Image width
	Height int // Image height

	// Radiosity
	NumFormFactorSamples int // Visibility samples per patch pair
	SphereHoriz          int // Sphere rasterization around the equator (even)
	SphereVert           int // Sphere rasterization pole to pole
	CylinderRing         int // Cylinder ring rasterization steps

	// Ray tracing
	NumBounces          int       // Maximum reflection recursion depth
	NumShadowSamples    int       // 0: no shadows, 1: hard shadows, >1: soft shadows
	NumAntialiasSamples int       // Samples per pixel, rounded down to a square grid
	NumGlossySamples    int       // Perturbed reflection rays for rough materials
	AmbientLight        core.Vec3 // Constant indirect term
	IntersectBackfacing bool      // Quad faces accept hits from behind
	BlockSize           int       // Tile edge length for render-to-file
	NumWorkers          int       // Render-to-file workers, 0 selects the CPU count
	Seed                int64     // Base seed for per-worker random streams
	ProgressiveDivs     int       // Cells along the shorter image side in the first progressive pass

	// Photon mapping
	NumPhotonsToShoot   int     // Photons emitted per TracePhotons
	NumPhotonsToCollect int     // k for the k-nearest gather
	GatherIndirect      bool    // Use the photon map for indirect light
	GatherRadius        float64 // Initial gather radius, doubled until k photons are found
	MaxPhotonBounces    int     // Hard cap on photon path length
}

// DefaultParams mirrors the classic command-line defaults
func DefaultParams() Params {
	return Params{
		Width:                500,
		Height:               500,
		NumFormFactorSamples: 1,
		SphereHoriz:          8,
		SphereVert:           6,
		CylinderRing:         20,
		NumBounces:           0,
		NumShadowSamples:     0,
		NumAntialiasSamples:  1,
		NumGlossySamples:     1,
		AmbientLight:         core.NewVec3(0, 0, 0),
		IntersectBackfacing:  false,
		BlockSize:            32,
		NumWorkers:           0,
		Seed:                 1,
		ProgressiveDivs:      10,
		NumPhotonsToShoot:    10000,
		NumPhotonsToCollect:  100,
		GatherIndirect:       false,
		GatherRadius:         0.05,
		MaxPhotonBounces:     10,
	}
}

// Validate reports the first invalid parameter
func (p Params) Validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("image size must be positive; got %dx%d", p.Width, p.Height)
	case p.SphereHoriz < 4 || p.SphereHoriz%2 != 0:
		return fmt.Errorf("sphere horizontal rasterization must be even and at least 4; got %d", p.SphereHoriz)
	case p.SphereVert < 2:
		return fmt.Errorf("sphere vertical rasterization must be at least 2; got %d", p.SphereVert)
	case p.CylinderRing < 3:
		return fmt.Errorf("cylinder ring rasterization must be at least 3; got %d", p.CylinderRing)
	case p.NumFormFactorSamples < 1:
		return fmt.Errorf("form factor samples must be at least 1; got %d", p.NumFormFactorSamples)
	case p.NumBounces < 0:
		return fmt.Errorf("bounces must not be negative; got %d", p.NumBounces)
	case p.NumShadowSamples < 0:
		return fmt.Errorf("shadow samples must not be negative; got %d", p.NumShadowSamples)
	case p.NumAntialiasSamples < 1:
		return fmt.Errorf("antialias samples must be at least 1; got %d", p.NumAntialiasSamples)
	case p.NumGlossySamples < 1:
		return fmt.Errorf("glossy samples must be at least 1; got %d", p.NumGlossySamples)
	case p.BlockSize < 1:
		return fmt.Errorf("block size must be positive; got %d", p.BlockSize)
	case p.NumWorkers < 0:
		return fmt.Errorf("workers must not be negative; got %d", p.NumWorkers)
	case p.ProgressiveDivs < 1:
		return fmt.Errorf("progressive divisions must be at least 1; got %d", p.ProgressiveDivs)
	case p.NumPhotonsToShoot < 0:
		return fmt.Errorf("photons to shoot must not be negative; got %d", p.NumPhotonsToShoot)
	case p.NumPhotonsToCollect < 1:
		return fmt.Errorf("photons to collect must be at least 1; got %d", p.NumPhotonsToCollect)
	case p.GatherRadius <= 0:
		return fmt.Errorf("gather radius must be positive; got %g", p.GatherRadius)
	case p.MaxPhotonBounces < 1:
		return fmt.Errorf("photon bounces must be at least 1; got %d", p.MaxPhotonBounces)
	}
	return nil
}

// Tessellation returns the primitive rasterization densities
func (p Params) Tessellation() geometry.Tessellation {
	return geometry.Tessellation{
		SphereHoriz:  p.SphereHoriz,
		SphereVert:   p.SphereVert,
		CylinderRing: p.CylinderRing,
	}
}

// MaxDim is the larger image dimension, used to keep pixels square
func (p Params) MaxDim() int {
	if p.Width > p.Height {
		return p.Width
	}
	return p.Height
}
