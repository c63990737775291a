package sampler

import (
	"math"
	"math/rand"

	"github.com/kdpath/tracer/internal/geom"
)

// Cosine draws samples proportional to cos(theta) about the pole, the
// distribution matching a Lambertian diffuse lobe.
type Cosine struct{}

func (Cosine) Sample(rng *rand.Rand) (geom.Vec3, float32) {
	u1, u2 := rng.Float32(), rng.Float32()
	theta := twoPi * u1
	r := sqrt32(1 - u2)
	v := geom.Vec3{X: cos32(theta) * r, Y: sqrt32(u2), Z: sin32(theta) * r}
	return v, cosinePDF(v)
}

func cosinePDF(v geom.Vec3) float32 {
	return v.Y / math.Pi
}
