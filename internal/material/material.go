// Package material holds surface descriptions and the BSDFs evaluated
// against them during shading.
package material

import (
	"math"

	"github.com/kdpath/tracer/internal/geom"
)

// Material describes a single surface's reflectance. Immutable after load.
type Material struct {
	Name string

	Ns float32 // Phong specular exponent
	Ni float32 // index of refraction

	Ka geom.Vec3 // ambient
	Kd geom.Vec3 // diffuse
	Ks geom.Vec3 // specular
	Ke geom.Vec3 // emissive

	Roughness float32
}

// Default returns a neutral grey diffuse material, used when a scene asset
// omits material data entirely.
func Default() Material {
	return Material{
		Name:      "default",
		Ns:        10,
		Ni:        1.5,
		Kd:        geom.Vec3{X: 0.8, Y: 0.8, Z: 0.8},
		Ks:        geom.Vec3{X: 0.05, Y: 0.05, Z: 0.05},
		Roughness: RoughnessFromNs(10),
	}
}

// RoughnessFromNs derives a Beckmann roughness parameter from a Phong
// exponent, the inverse of the conversion the glTF loader applies when
// going the other direction (ns = 2/roughness^2 - 2).
func RoughnessFromNs(ns float32) float32 {
	if ns <= 0 {
		return 1
	}
	r := 2 / (ns + 2)
	return sqrt32(r)
}

// IsEmissive reports whether the material radiates any light.
func (m Material) IsEmissive() bool {
	return m.Ke.X > 0 || m.Ke.Y > 0 || m.Ke.Z > 0
}

// Avg3 returns the mean of a vector's three channels, used throughout the
// integrator (Russian-roulette weight, light power) where a single scalar
// stands in for a color.
func Avg3(v geom.Vec3) float32 {
	return (v.X + v.Y + v.Z) / 3
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
