package core

import "math"

// Epsilon is the minimum accepted ray parameter and the containment slack
// used by spatial queries
const Epsilon = 0.0001

// Det3x3 returns the determinant of the matrix with rows (a1 a2 a3), (b1 b2 b3), (c1 c2 c3)
func Det3x3(a1, a2, a3, b1, b2, b3, c1, c2, c3 float64) float64 {
	return a1*(b2*c3-b3*c2) -
		b1*(a2*c3-a3*c2) +
		c1*(a2*b3-a3*b2)
}

// SolveCramer solves [c0 c1 c2] x = rhs for x using Cramer's rule, where
// c0, c1 and c2 are the matrix columns. ok is false for a singular system.
func SolveCramer(c0, c1, c2, rhs Vec3) (x Vec3, ok bool) {
	det := Det3x3(
		c0.X, c1.X, c2.X,
		c0.Y, c1.Y, c2.Y,
		c0.Z, c1.Z, c2.Z)
	if math.Abs(det) <= 1e-12 {
		return Vec3{}, false
	}
	x.X = Det3x3(
		rhs.X, c1.X, c2.X,
		rhs.Y, c1.Y, c2.Y,
		rhs.Z, c1.Z, c2.Z) / det
	x.Y = Det3x3(
		c0.X, rhs.X, c2.X,
		c0.Y, rhs.Y, c2.Y,
		c0.Z, rhs.Z, c2.Z) / det
	x.Z = Det3x3(
		c0.X, c1.X, rhs.X,
		c0.Y, c1.Y, rhs.Y,
		c0.Z, c1.Z, rhs.Z) / det
	return x, true
}

// TriangleArea returns the area of triangle abc using Heron's formula
func TriangleArea(a, b, c Vec3) float64 {
	da := a.Distance(b)
	db := b.Distance(c)
	dc := c.Distance(a)
	s := (da + db + dc) / 2
	return math.Sqrt(math.Max(0, s*(s-da)*(s-db)*(s-dc)))
}

// TriangleNormal returns the unit normal of counter-clockwise triangle abc
func TriangleNormal(a, b, c Vec3) Vec3 {
	return b.Subtract(a).Cross(c.Subtract(a)).Normalize()
}

// LinearToSRGB converts one linear channel value to display (sRGB) space
func LinearToSRGB(x float64) float64 {
	if x <= 0.0031308 {
		return 12.92 * x
	}
	return 1.055*math.Pow(x, 1/2.4) - 0.055
}

// SRGBToLinear converts one display (sRGB) channel value to linear space
func SRGBToLinear(x float64) float64 {
	if x <= 0.04045 {
		return x / 12.92
	}
	return math.Pow((x+0.055)/1.055, 2.4)
}

// ToSRGB converts a linear color to display space per channel
func (v Vec3) ToSRGB() Vec3 {
	return Vec3{LinearToSRGB(v.X), LinearToSRGB(v.Y), LinearToSRGB(v.Z)}
}

// ToLinear converts a display-space color to linear space per channel
func (v Vec3) ToLinear() Vec3 {
	return Vec3{SRGBToLinear(v.X), SRGBToLinear(v.Y), SRGBToLinear(v.Z)}
}
