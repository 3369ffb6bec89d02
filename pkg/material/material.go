package material

import (
	"math"

	"github.com/df07/go-global-illumination/pkg/core"
)

// PhongExponent is the fixed specular exponent used by Shade
const PhongExponent = 100

// Material is a Phong-like surface description shared by faces and primitives
type Material struct {
	Diffuse     ColorSource // Solid color or texture
	TextureFile string      // Source of the texture, empty for solid colors
	Reflective  core.Vec3
	Emitted     core.Vec3
	Roughness   float64
}

// NewMaterial creates a solid-colored material
func NewMaterial(diffuse, reflective, emitted core.Vec3, roughness float64) *Material {
	return &Material{
		Diffuse:    NewSolidColor(diffuse),
		Reflective: reflective,
		Emitted:    emitted,
		Roughness:  roughness,
	}
}

// NewTexturedMaterial creates a material whose diffuse color comes from a texture
func NewTexturedMaterial(textureFile string, texture *ImageTexture, reflective, emitted core.Vec3, roughness float64) *Material {
	return &Material{
		Diffuse:     texture,
		TextureFile: textureFile,
		Reflective:  reflective,
		Emitted:     emitted,
		Roughness:   roughness,
	}
}

// HasTexture reports whether the diffuse color comes from an image
func (m *Material) HasTexture() bool {
	return m.TextureFile != ""
}

// DiffuseColor returns the diffuse color at texture coordinates uv
func (m *Material) DiffuseColor(uv core.Vec2) core.Vec3 {
	return m.Diffuse.Evaluate(uv)
}

// AverageDiffuse returns a single diffuse color for the whole material
func (m *Material) AverageDiffuse() core.Vec3 {
	return m.Diffuse.Average()
}

// IsEmitting reports whether the emitted color is noticeably non-zero
func (m *Material) IsEmitting() bool {
	return m.Emitted.Length() > 0.001
}

// IsReflective reports whether the material participates in mirror/glossy paths
func (m *Material) IsReflective() bool {
	return !m.Reflective.IsZero()
}

// BRDF evaluates the reflectance for a light path arriving along in
// (normalized, pointing toward the surface) and leaving along out.
// A rough reflective material blends a cosine-power lobe around the mirror
// direction into the diffuse base.
func (m *Material) BRDF(hit *Hit, in, out core.Vec3) core.Vec3 {
	answer := m.DiffuseColor(hit.UV).Multiply(0.5 / math.Pi)
	if !m.IsReflective() || m.Roughness == 0 {
		return answer
	}

	p := math.Pow(1/m.Roughness-1, 2)
	cosAngle := core.Reflect(in, hit.Normal).Dot(out.Normalize())
	cosAngle = math.Max(-1, math.Min(1, cosAngle))
	glossyBias := math.Pow(math.Cos(math.Acos(cosAngle)/2), p)

	// 1/(2π) · bias · π/(√π·Γ((p+1)/2)/(2Γ(p/2+1))) with the π terms cancelled
	normalization := 1 / (math.Sqrt(math.Pi) * math.Gamma((p+1)/2) / (2 * math.Gamma(p/2+1)))
	return answer.Add(m.Reflective.Multiply(0.5 * glossyBias * normalization))
}

// Shade computes the local illumination contributed by one light: emitted
// plus Lambertian diffuse plus a Phong highlight for reflective materials.
// Shadows are the caller's concern.
func (m *Material) Shade(ray core.Ray, hit *Hit, dirToLight, lightColor core.Vec3) core.Vec3 {
	n := hit.Normal
	e := ray.Direction.Negate()
	l := dirToLight

	answer := m.Emitted

	dotNL := math.Max(0, n.Dot(l))
	answer = answer.Add(lightColor.MultiplyVec(m.DiffuseColor(hit.UV)).Multiply(dotNL))
	if !m.IsReflective() {
		return answer
	}

	// ideal reflection of the light direction
	r := l.Negate().Add(n.Multiply(2 * dotNL)).Normalize()
	dotER := math.Max(0, e.Dot(r))
	specular := lightColor.MultiplyVec(m.Reflective).Multiply(math.Pow(dotER, PhongExponent) * dotNL)
	return answer.Add(specular)
}
