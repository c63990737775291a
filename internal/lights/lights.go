// Package lights builds the emissive-triangle sample set the integrator
// draws from for next-event estimation.
package lights

import (
	"math/rand"
	"sort"

	"github.com/kdpath/tracer/internal/geom"
	"github.com/kdpath/tracer/internal/material"
)

// Set is the light sample set: the triangle indices with non-zero
// emission, a running CDF of per-triangle radiant power for inverse-CDF
// sampling, and the combined total power.
type Set struct {
	Indices       []uint32
	PowersCdf     []float32
	PowersCombined float32
}

// Build scans every triangle for emissive material and returns the
// resulting sample set. A scene with no emissive triangles yields an
// empty, but valid, Set.
func Build(tris []geom.Triangle, verts []geom.Vertex, mats []material.Material, triMat []uint32) *Set {
	s := &Set{}
	running := float32(0)
	for i, tri := range tris {
		mat := mats[triMat[i]]
		if !mat.IsEmissive() {
			continue
		}
		area := tri.Area(verts)
		power := material.Avg3(mat.Ke) * area
		if power <= 0 {
			continue
		}
		running += power
		s.Indices = append(s.Indices, uint32(i))
		s.PowersCdf = append(s.PowersCdf, running)
	}
	s.PowersCombined = running
	return s
}

// Empty reports whether the scene has no emissive triangles at all.
func (s *Set) Empty() bool { return len(s.Indices) == 0 }

// Sample draws a light triangle by inverse-CDF on PowersCdf and returns
// its triangle index plus the per-triangle radiant power used to
// reconstruct its sampling probability.
func (s *Set) Sample(rng *rand.Rand) (triIdx uint32, power float32) {
	u := rng.Float32() * s.PowersCombined
	i := sort.Search(len(s.PowersCdf), func(i int) bool { return s.PowersCdf[i] >= u })
	if i >= len(s.PowersCdf) {
		i = len(s.PowersCdf) - 1
	}
	lower := float32(0)
	if i > 0 {
		lower = s.PowersCdf[i-1]
	}
	return s.Indices[i], s.PowersCdf[i] - lower
}

// SampleBarycentric draws a point on a triangle as (alpha, 1-alpha) from a
// single uniform variate. This is NOT area-uniform (true uniform sampling
// needs (1-sqrt(u1), sqrt(u1)*(1-u2), sqrt(u1)*u2)); it is carried over
// unchanged as a known, documented bias rather than silently corrected.
func SampleBarycentric(rng *rand.Rand) (alpha, beta float32) {
	alpha = rng.Float32()
	return alpha, 1 - alpha
}

// PointAt evaluates a barycentric-weighted point on triangle tri given
// (alpha, beta) from SampleBarycentric, where alpha weights vertex 1 and
// beta weights vertex 2.
func PointAt(tri geom.Triangle, verts []geom.Vertex, alpha, beta float32) geom.Vec3 {
	a, b, c := verts[tri.I0].Pos, verts[tri.I1].Pos, verts[tri.I2].Pos
	return geom.Add(a, geom.Add(geom.Scale(alpha, geom.Sub(b, a)), geom.Scale(beta, geom.Sub(c, a))))
}
