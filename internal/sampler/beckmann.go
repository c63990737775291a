package sampler

import (
	"math"
	"math/rand"

	"github.com/kdpath/tracer/internal/geom"
)

// Beckmann draws samples from the Beckmann microfacet distribution's
// half-vector density, conditioned on a surface roughness. Unlike Cosine
// and Uniform it needs a material parameter to sample, so it is
// constructed per-material rather than shared.
type Beckmann struct {
	Roughness float32
}

func (b Beckmann) Sample(rng *rand.Rand) (geom.Vec3, float32) {
	u1, u2 := rng.Float32(), rng.Float32()
	m := b.Roughness
	if m <= 0 {
		m = 1e-3
	}

	theta := atan32(sqrt32(-m * m * log32(1-u1)))
	phi := twoPi * u2

	sinT, cosT := sin32(theta), cos32(theta)
	v := geom.Vec3{X: sinT * cos32(phi), Y: cosT, Z: sinT * sin32(phi)}
	return v, beckmannPDF(theta, m)
}

func beckmannPDF(theta, roughness float32) float32 {
	sinT, cosT := sin32(theta), cos32(theta)
	tan2 := (sinT / cosT) * (sinT / cosT)
	cos3 := cosT * cosT * cosT
	return sinT * exp32(-tan2/(roughness*roughness)) / (math.Pi * roughness * roughness * cos3)
}
