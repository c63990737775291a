package sampler

import (
	"math/rand"

	"github.com/kdpath/tracer/internal/geom"
)

// Uniform draws samples evenly distributed over the solid angle of the
// hemisphere, independent of any material.
type Uniform struct{}

func (Uniform) Sample(rng *rand.Rand) (geom.Vec3, float32) {
	u1, u2 := rng.Float32(), rng.Float32()
	theta := twoPi * u1
	r := sqrt32(1 - u2*u2)
	v := geom.Vec3{X: cos32(theta) * r, Y: u2, Z: sin32(theta) * r}
	return v, uniformPDF
}

const uniformPDF = 1 / twoPi
