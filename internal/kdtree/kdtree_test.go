package kdtree

import (
	"math/rand"
	"testing"

	"github.com/kdpath/tracer/internal/geom"
)

// gridMesh builds an n x n tessellated plane at z=0, two triangles per
// cell, each vertex normal pointing along +z.
func gridMesh(n int) ([]geom.Triangle, []geom.Vertex) {
	var verts []geom.Vertex
	idx := func(x, y int) uint32 { return uint32(y*(n+1) + x) }
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			verts = append(verts, geom.Vertex{
				Pos:  geom.Vec3{X: float32(x), Y: float32(y), Z: 0},
				Norm: geom.Vec3{X: 0, Y: 0, Z: 1},
			})
		}
	}
	var tris []geom.Triangle
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a, b, c, d := idx(x, y), idx(x+1, y), idx(x+1, y+1), idx(x, y+1)
			tris = append(tris, geom.Triangle{I0: a, I1: b, I2: c})
			tris = append(tris, geom.Triangle{I0: a, I1: c, I2: d})
		}
	}
	return tris, verts
}

func bruteForceNearest(r geom.Ray, tris []geom.Triangle, verts []geom.Vertex) (Hit, bool) {
	best := Hit{}
	found := false
	tNearest := r.TMax
	for i, tri := range tris {
		a, b, c := verts[tri.I0], verts[tri.I1], verts[tri.I2]
		h, ok := geom.IntersectTriangle(r, a.Pos, b.Pos, c.Pos)
		if !ok {
			continue
		}
		if r.TMin < h.T && h.T < tNearest {
			tNearest = h.T
			best = Hit{T: h.T, Normal: geom.InterpolateNormal(a, b, c, h), TriIdx: uint32(i)}
			found = true
		}
	}
	return best, found
}

func approxEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestNearestHitMatchesBruteForce(t *testing.T) {
	tris, verts := gridMesh(6)
	tree := Build(tris, verts, DefaultParams())

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		origin := geom.Vec3{
			X: rng.Float32()*8 - 1,
			Y: rng.Float32()*8 - 1,
			Z: 2,
		}
		dir := geom.Normalize(geom.Vec3{
			X: rng.Float32()*0.4 - 0.2,
			Y: rng.Float32()*0.4 - 0.2,
			Z: -1,
		})
		r := geom.NewRay(origin, dir)

		gotHit, gotOK := tree.NearestHit(r)
		wantHit, wantOK := bruteForceNearest(r, tris, verts)

		if gotOK != wantOK {
			t.Fatalf("iter %d: hit mismatch got=%v want=%v (origin=%+v dir=%+v)", i, gotOK, wantOK, origin, dir)
		}
		if !gotOK {
			continue
		}
		// The tree biases the ray origin forward by rayRangeBias before
		// traversal, so allow a tolerance proportional to that bias.
		tol := 10 * tree.RayRangeBias()
		if tol < 1e-3 {
			tol = 1e-3
		}
		if !approxEqual(gotHit.T, wantHit.T, tol) {
			t.Fatalf("iter %d: t mismatch got=%v want=%v", i, gotHit.T, wantHit.T)
		}
	}
}

func TestNearestHitMissesEmptySpace(t *testing.T) {
	tris, verts := gridMesh(4)
	tree := Build(tris, verts, DefaultParams())

	r := geom.NewRay(geom.Vec3{X: 100, Y: 100, Z: 5}, geom.Vec3{X: 0, Y: 0, Z: -1})
	if _, ok := tree.NearestHit(r); ok {
		t.Fatal("expected no hit for a ray far from the mesh")
	}
}

func TestOccludedConsistentWithNearestHit(t *testing.T) {
	tris, verts := gridMesh(6)
	tree := Build(tris, verts, DefaultParams())

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		origin := geom.Vec3{
			X: rng.Float32()*8 - 1,
			Y: rng.Float32()*8 - 1,
			Z: 2,
		}
		dir := geom.Vec3{X: 0, Y: 0, Z: -1}
		r := geom.NewRay(origin, dir)

		hit, ok := tree.NearestHit(r)
		if !ok {
			if tree.Occluded(r, 1000) {
				t.Fatalf("iter %d: occluded true but no nearest hit found", i)
			}
			continue
		}
		// A light well beyond the surface must be reported as occluded;
		// one well in front of it must not be.
		if !tree.Occluded(r, hit.T+10) {
			t.Fatalf("iter %d: expected occlusion for tLight beyond hit at t=%v", i, hit.T)
		}
		if tree.Occluded(r, hit.T-10*tree.RayRangeBias()-1e-3) {
			t.Fatalf("iter %d: unexpected occlusion for tLight before hit at t=%v", i, hit.T)
		}
	}
}

func TestBoundsContainAllTriangles(t *testing.T) {
	tris, verts := gridMesh(5)
	tree := Build(tris, verts, DefaultParams())
	b := tree.Bounds()
	for _, tri := range tris {
		tb := tri.Bounds(verts)
		if tb.Lo.X < b.Lo.X-1e-4 || tb.Lo.Y < b.Lo.Y-1e-4 || tb.Lo.Z < b.Lo.Z-1e-4 ||
			tb.Hi.X > b.Hi.X+1e-4 || tb.Hi.Y > b.Hi.Y+1e-4 || tb.Hi.Z > b.Hi.Z+1e-4 {
			t.Fatalf("triangle bounds %+v not contained in tree bounds %+v", tb, b)
		}
	}
}

func TestSingleTriangleBuilds(t *testing.T) {
	verts := []geom.Vertex{
		{Pos: geom.Vec3{X: 0, Y: 0, Z: 0}, Norm: geom.Vec3{X: 0, Y: 0, Z: 1}},
		{Pos: geom.Vec3{X: 1, Y: 0, Z: 0}, Norm: geom.Vec3{X: 0, Y: 0, Z: 1}},
		{Pos: geom.Vec3{X: 0, Y: 1, Z: 0}, Norm: geom.Vec3{X: 0, Y: 0, Z: 1}},
	}
	tris := []geom.Triangle{{I0: 0, I1: 1, I2: 2}}
	tree := Build(tris, verts, DefaultParams())

	r := geom.NewRay(geom.Vec3{X: 0.2, Y: 0.2, Z: 1}, geom.Vec3{X: 0, Y: 0, Z: -1})
	hit, ok := tree.NearestHit(r)
	if !ok {
		t.Fatal("expected hit on single-triangle tree")
	}
	if hit.TriIdx != 0 {
		t.Errorf("TriIdx = %d, want 0", hit.TriIdx)
	}
}
