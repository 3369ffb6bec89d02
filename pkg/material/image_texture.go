package material

import (
	"github.com/df07/go-global-illumination/pkg/core"
)

// ImageTexture provides color from a 2D image of linear colors.
// Row 0 is the bottom of the image, matching t=0.
type ImageTexture struct {
	Width   int
	Height  int
	Pixels  []core.Vec3 // Row-major: Pixels[y*Width + x]
	average core.Vec3
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	var sum core.Vec3
	for _, p := range pixels {
		sum = sum.Add(p)
	}
	if len(pixels) > 0 {
		sum = sum.Multiply(1 / float64(len(pixels)))
	}
	return &ImageTexture{
		Width:   width,
		Height:  height,
		Pixels:  pixels,
		average: sum,
	}
}

// Evaluate samples the texture using nearest-neighbor filtering with repeat wrapping
func (t *ImageTexture) Evaluate(uv core.Vec2) core.Vec3 {
	x := int(uv.X*float64(t.Width)) % t.Width
	y := int(uv.Y*float64(t.Height)) % t.Height
	if x < 0 {
		x += t.Width
	}
	if y < 0 {
		y += t.Height
	}
	return t.Pixels[y*t.Width+x]
}

// Average returns the mean texel color
func (t *ImageTexture) Average() core.Vec3 {
	return t.average
}
