package lights

import (
	"math/rand"
	"testing"

	"github.com/kdpath/tracer/internal/geom"
	"github.com/kdpath/tracer/internal/material"
)

func TestBuildSkipsNonEmissive(t *testing.T) {
	verts := []geom.Vertex{
		{Pos: geom.Vec3{X: 0, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 1, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 0, Y: 1, Z: 0}},
	}
	tris := []geom.Triangle{{I0: 0, I1: 1, I2: 2}}
	mats := []material.Material{material.Default()}
	set := Build(tris, verts, mats, []uint32{0})

	if !set.Empty() {
		t.Fatalf("expected empty set for a scene with no emissive triangles, got %d lights", len(set.Indices))
	}
}

func TestSampleDistributionMatchesPower(t *testing.T) {
	verts := []geom.Vertex{
		{Pos: geom.Vec3{X: 0, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 1, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 0, Y: 1, Z: 0}},
		{Pos: geom.Vec3{X: 10, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 11, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 10, Y: 1, Z: 0}},
	}
	tris := []geom.Triangle{
		{I0: 0, I1: 1, I2: 2}, // weak light, area 0.5
		{I0: 3, I1: 4, I2: 5}, // strong light, area 0.5, brighter Ke
	}
	weak := material.Material{Ke: geom.Vec3{X: 1, Y: 1, Z: 1}}
	strong := material.Material{Ke: geom.Vec3{X: 9, Y: 9, Z: 9}}
	mats := []material.Material{weak, strong}
	set := Build(tris, verts, mats, []uint32{0, 1})

	if set.Empty() {
		t.Fatal("expected a non-empty light set")
	}

	rng := rand.New(rand.NewSource(5))
	counts := map[uint32]int{}
	const trials = 20000
	for i := 0; i < trials; i++ {
		idx, _ := set.Sample(rng)
		counts[idx]++
	}

	// Triangle 1 is 9x brighter than triangle 0 at equal area, so it
	// should be sampled roughly 9x as often.
	ratio := float64(counts[1]) / float64(counts[0])
	if ratio < 6 || ratio > 13 {
		t.Fatalf("sampling ratio = %v, want roughly 9 (counts=%v)", ratio, counts)
	}
}

func TestSampleAlwaysReturnsValidIndex(t *testing.T) {
	verts := []geom.Vertex{
		{Pos: geom.Vec3{X: 0, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 1, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 0, Y: 1, Z: 0}},
	}
	tris := []geom.Triangle{{I0: 0, I1: 1, I2: 2}}
	mats := []material.Material{{Ke: geom.Vec3{X: 2, Y: 2, Z: 2}}}
	set := Build(tris, verts, mats, []uint32{0})

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 100; i++ {
		idx, power := set.Sample(rng)
		if idx != 0 {
			t.Fatalf("expected only light index 0, got %d", idx)
		}
		if power <= 0 {
			t.Fatalf("expected positive power, got %v", power)
		}
	}
}

func TestPointAtLiesOnTrianglePlane(t *testing.T) {
	verts := []geom.Vertex{
		{Pos: geom.Vec3{X: 0, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 2, Y: 0, Z: 0}},
		{Pos: geom.Vec3{X: 0, Y: 2, Z: 0}},
	}
	tri := geom.Triangle{I0: 0, I1: 1, I2: 2}
	p := PointAt(tri, verts, 0.25, 0.25)
	if p.Z != 0 {
		t.Errorf("expected point on the z=0 plane, got z=%v", p.Z)
	}
}
