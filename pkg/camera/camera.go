package camera

import (
	"math"

	"github.com/df07/go-global-illumination/pkg/core"
)

// Camera generates primary rays for normalized screen coordinates
type Camera interface {
	// GenerateRay returns the ray through screen point (x, y), 0 <= x,y <= 1,
	// where (0,0) is the lower-left corner
	GenerateRay(x, y float64) core.Ray
	// Placement returns the shared placement of the camera
	Placement() Frame
}

// Frame holds the placement shared by every camera type
type Frame struct {
	Position        core.Vec3
	PointOfInterest core.Vec3
	Up              core.Vec3
}

// Direction returns the unit view direction
func (f Frame) Direction() core.Vec3 {
	return f.PointOfInterest.Subtract(f.Position).Normalize()
}

// Horizontal returns the unit screen-right axis
func (f Frame) Horizontal() core.Vec3 {
	return f.Direction().Cross(f.Up).Normalize()
}

// ScreenUp returns the unit screen-up axis, orthogonal to the view direction
func (f Frame) ScreenUp() core.Vec3 {
	return f.Horizontal().Cross(f.Direction()).Normalize()
}

// Perspective is a pinhole camera with a vertical field of view in radians
type Perspective struct {
	Frame
	Angle float64
}

// NewPerspective creates a perspective camera; angle is in radians
func NewPerspective(position, pointOfInterest, up core.Vec3, angle float64) *Perspective {
	return &Perspective{
		Frame: Frame{Position: position, PointOfInterest: pointOfInterest, Up: up},
		Angle: angle,
	}
}

// GenerateRay returns a ray from the eye through the unit-distance screen
func (c *Perspective) GenerateRay(x, y float64) core.Ray {
	screenCenter := c.Position.Add(c.Direction())
	screenHeight := 2 * math.Tan(c.Angle/2)
	xAxis := c.Horizontal().Multiply(screenHeight)
	yAxis := c.ScreenUp().Multiply(screenHeight)
	lowerLeft := screenCenter.Subtract(xAxis.Multiply(0.5)).Subtract(yAxis.Multiply(0.5))
	screenPoint := lowerLeft.Add(xAxis.Multiply(x)).Add(yAxis.Multiply(y))
	return core.NewRay(c.Position, screenPoint.Subtract(c.Position).Normalize())
}

// Placement returns the camera placement
func (c *Perspective) Placement() Frame {
	return c.Frame
}

// Orthographic is a parallel-projection camera with a square screen of the given size
type Orthographic struct {
	Frame
	Size float64
}

// NewOrthographic creates an orthographic camera
func NewOrthographic(position, pointOfInterest, up core.Vec3, size float64) *Orthographic {
	return &Orthographic{
		Frame: Frame{Position: position, PointOfInterest: pointOfInterest, Up: up},
		Size:  size,
	}
}

// GenerateRay returns a ray parallel to the view direction starting on the screen plane
func (c *Orthographic) GenerateRay(x, y float64) core.Ray {
	xAxis := c.Horizontal().Multiply(c.Size)
	yAxis := c.ScreenUp().Multiply(c.Size)
	lowerLeft := c.Position.Subtract(xAxis.Multiply(0.5)).Subtract(yAxis.Multiply(0.5))
	screenPoint := lowerLeft.Add(xAxis.Multiply(x)).Add(yAxis.Multiply(y))
	return core.NewRay(screenPoint, c.Direction())
}

// Placement returns the camera placement
func (c *Orthographic) Placement() Frame {
	return c.Frame
}

// DefaultAngle is the field of view of the synthesized camera
const DefaultAngle = 20 * math.Pi / 180

// NewDefault frames a bounding box from +z at four times its largest extent
func NewDefault(bounds core.AABB) *Perspective {
	center := bounds.Center()
	position := center.Add(core.NewVec3(0, 0, 4*bounds.MaxDim()))
	return NewPerspective(position, center, core.NewVec3(0, 1, 0), DefaultAngle)
}
