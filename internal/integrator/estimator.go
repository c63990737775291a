// Package integrator implements the recursive Monte-Carlo path estimator:
// next-event estimation against the scene's light sample set, plus an
// indirect bounce governed by Russian-roulette termination.
package integrator

import (
	"math"
	"math/rand"

	"github.com/kdpath/tracer/internal/geom"
	"github.com/kdpath/tracer/internal/lights"
	"github.com/kdpath/tracer/internal/material"
	"github.com/kdpath/tracer/internal/sampler"
	"github.com/kdpath/tracer/internal/scene"
)

// minLightPDF and minSamplerPDF are the thresholds below which a sampled
// density is treated as degenerate and the corresponding term is skipped
// rather than risking a division blow-up.
const (
	minLightPDF   = 0.01
	minSamplerPDF = 0.01
	minLightDistSq = 1e-8
)

// BSDF evaluates bidirectional reflectance; see material.CookTorrance and
// material.ModifiedPhong.
type BSDF = material.BSDF

// Estimator holds the per-call-site dependencies the recursive estimator
// needs: the world to intersect against, the BSDF in use, and the
// hemisphere sampler family for indirect bounces.
type Estimator struct {
	World        *scene.World
	BRDF         BSDF
	SamplerFor   func(mat material.Material) sampler.Sampler
	RecLvl       int
}

// L estimates incident radiance along ray r at the given recursion depth,
// following spec: return 0 past the recursion bound or on a miss; return
// emission only on the primary bounce (depth == RecLvl) to avoid double
// counting against next-event estimation; otherwise accumulate a direct
// term via next-event estimation plus an indirect term via a Russian
// roulette-weighted recursive bounce.
func (e *Estimator) L(rng *rand.Rand, r geom.Ray, depth int) geom.Vec3 {
	if depth <= 0 {
		return geom.Vec3{}
	}

	hit, ok := e.World.Tree.NearestHit(r)
	if !ok {
		return geom.Vec3{}
	}

	mat := e.World.MaterialFor(hit.TriIdx)
	if mat.IsEmissive() {
		if depth == e.RecLvl {
			return geom.Scale(1/piF32, mat.Ke)
		}
		return geom.Vec3{}
	}

	hitPoint := r.At(hit.T)
	n := hit.Normal
	outgoing := geom.Neg(r.Dir)

	color := e.directLighting(rng, hitPoint, n, outgoing, mat)
	color = geom.Add(color, e.indirectBounce(rng, hitPoint, n, outgoing, mat, depth))

	return color
}

const piF32 = float32(3.14159265358979323846)

// directLighting implements next-event estimation: sample a light
// triangle by inverse-CDF, form a shadow ray to a point on it, and add its
// contribution if unoccluded and not degenerate.
func (e *Estimator) directLighting(rng *rand.Rand, hitPoint, n, outgoing geom.Vec3, mat material.Material) geom.Vec3 {
	ls := e.World.Lights
	if ls == nil || ls.Empty() {
		return geom.Vec3{}
	}

	lightTriIdx, power := ls.Sample(rng)
	lightTri := e.World.Triangle(lightTriIdx)
	lightMat := e.World.MaterialFor(lightTriIdx)
	alpha, beta := lights.SampleBarycentric(rng)
	lightPoint := lights.PointAt(lightTri, e.World.Mesh.Verts, alpha, beta)

	toLight := geom.Sub(lightPoint, hitPoint)
	distSq := geom.Dot(toLight, toLight)
	if distSq < minLightDistSq {
		return geom.Vec3{}
	}
	dist := sqrtF32(distSq)
	wLight := geom.Scale(1/dist, toLight)

	area := lightTri.Area(e.World.Mesh.Verts)
	pLight := power / ls.PowersCombined
	if pLight < minLightPDF {
		return geom.Vec3{}
	}

	// Occluded shifts the origin forward by the ray-range bias, which puts
	// the light's own surface at dist-bias; stop short of it so the light
	// does not shadow itself.
	shadowRay := geom.NewRay(hitPoint, wLight).Clamped(0, dist)
	if e.World.Tree.Occluded(shadowRay, dist-2*e.World.Tree.RayRangeBias()) {
		return geom.Vec3{}
	}

	cosSurface := geom.Dot(n, wLight)
	lightNormal := lightTri.GeometricNormal(e.World.Mesh.Verts)
	lightNormal = geom.Normalize(lightNormal)
	cosLight := geom.Dot(lightNormal, geom.Neg(wLight))
	if cosSurface <= 0 || cosLight <= 0 {
		return geom.Vec3{}
	}

	f := e.BRDF(wLight, outgoing, n, mat)
	contrib := geom.Mul(lightMat.Ke, f)
	contrib = geom.Scale(area*cosSurface*cosLight/(pLight*distSq), contrib)
	return contrib
}

// indirectBounce draws a Russian-roulette-weighted recursive sample.
func (e *Estimator) indirectBounce(rng *rand.Rand, hitPoint, n, outgoing geom.Vec3, mat material.Material, depth int) geom.Vec3 {
	alphaRR := material.Avg3(geom.Add(mat.Kd, mat.Ks)) / 3
	if rng.Float32() > alphaRR {
		return geom.Vec3{}
	}

	s := e.SamplerFor(mat)
	dir, pdf := s.Sample(rng)
	if pdf < minSamplerPDF {
		return geom.Vec3{}
	}

	wIndirect := sampler.RotateToNormal(dir, n)
	incoming := geom.NewRay(hitPoint, wIndirect)

	li := e.L(rng, incoming, depth-1)
	f := e.BRDF(wIndirect, outgoing, n, mat)
	cos := absF32(geom.Dot(n, wIndirect))

	weight := cos / (pdf * alphaRR)
	return geom.Scale(weight, geom.Mul(f, li))
}

func sqrtF32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func absF32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
