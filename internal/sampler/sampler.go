// Package sampler generates hemisphere-distributed direction samples for
// the integrator's indirect bounce, each paired with the probability
// density of having drawn it.
package sampler

import (
	"math"
	"math/rand"

	"github.com/kdpath/tracer/internal/geom"
)

// Sampler draws a unit direction in the upper hemisphere of the canonical
// frame (+y up) and reports its probability density.
type Sampler interface {
	Sample(rng *rand.Rand) (v geom.Vec3, pdf float32)
}

// RotateToNormal rotates a sample drawn in the canonical (+y up) frame into
// a frame whose up axis is n, via the shortest-arc rotation between the two
// axes.
func RotateToNormal(s, n geom.Vec3) geom.Vec3 {
	const up0 = float32(1)
	cosTheta := n.Y
	if cosTheta > 1-1e-6 {
		return s
	}
	if cosTheta < -1+1e-6 {
		return geom.Vec3{X: s.X, Y: -s.Y, Z: -s.Z}
	}

	axis := geom.Normalize(geom.Cross(geom.Vec3{X: 0, Y: up0, Z: 0}, n))
	sinTheta := sqrt32(1 - cosTheta*cosTheta)

	// Rodrigues' rotation formula.
	term1 := geom.Scale(cosTheta, s)
	term2 := geom.Scale(sinTheta, geom.Cross(axis, s))
	term3 := geom.Scale(geom.Dot(axis, s)*(1-cosTheta), axis)
	return geom.Add(term1, geom.Add(term2, term3))
}

func sqrt32(x float32) float32 {
	if x < 0 {
		x = 0
	}
	return float32(math.Sqrt(float64(x)))
}

func sin32(x float32) float32  { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32  { return float32(math.Cos(float64(x))) }
func atan32(x float32) float32 { return float32(math.Atan(float64(x))) }
func exp32(x float32) float32  { return float32(math.Exp(float64(x))) }
func log32(x float32) float32  { return float32(math.Log(float64(x))) }

const twoPi = 2 * math.Pi
