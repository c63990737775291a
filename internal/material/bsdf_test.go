package material

import (
	"testing"

	"github.com/kdpath/tracer/internal/geom"
)

func approxEqualVec(a, b geom.Vec3, eps float32) bool {
	d := geom.Sub(a, b)
	return geom.Dot(d, d) <= eps*eps
}

func TestCookTorranceSymmetric(t *testing.T) {
	n := geom.Vec3{X: 0, Y: 1, Z: 0}
	in := geom.Normalize(geom.Vec3{X: 0.4, Y: 0.8, Z: 0.1})
	out := geom.Normalize(geom.Vec3{X: -0.3, Y: 0.7, Z: 0.2})

	mat := Material{
		Ni:        1.5,
		Kd:        geom.Vec3{X: 0.6, Y: 0.5, Z: 0.4},
		Ks:        geom.Vec3{X: 0.2, Y: 0.2, Z: 0.2},
		Roughness: 0.3,
	}

	fwd := CookTorrance(in, out, n, mat)
	rev := CookTorrance(out, in, n, mat)
	if !approxEqualVec(fwd, rev, 1e-4) {
		t.Fatalf("CookTorrance not symmetric: f(i,o)=%+v f(o,i)=%+v", fwd, rev)
	}
}

func TestModifiedPhongSymmetric(t *testing.T) {
	n := geom.Vec3{X: 0, Y: 1, Z: 0}
	in := geom.Normalize(geom.Vec3{X: 0.2, Y: 0.9, Z: -0.1})
	out := geom.Normalize(geom.Vec3{X: -0.2, Y: 0.85, Z: 0.3})

	mat := Material{
		Ns: 40,
		Kd: geom.Vec3{X: 0.5, Y: 0.5, Z: 0.5},
		Ks: geom.Vec3{X: 0.3, Y: 0.3, Z: 0.3},
	}

	fwd := ModifiedPhong(in, out, n, mat)
	rev := ModifiedPhong(out, in, n, mat)
	if !approxEqualVec(fwd, rev, 1e-4) {
		t.Fatalf("ModifiedPhong not symmetric: f(i,o)=%+v f(o,i)=%+v", fwd, rev)
	}
}

func TestCookTorranceNonNegative(t *testing.T) {
	n := geom.Vec3{X: 0, Y: 1, Z: 0}
	mat := Material{
		Ni:        1.3,
		Kd:        geom.Vec3{X: 0.7, Y: 0.7, Z: 0.7},
		Ks:        geom.Vec3{X: 0.1, Y: 0.1, Z: 0.1},
		Roughness: 0.5,
	}

	dirs := []geom.Vec3{
		{X: 0, Y: 1, Z: 0},
		{X: 0.5, Y: 0.5, Z: 0},
		{X: -0.3, Y: 0.6, Z: 0.4},
	}
	for _, in := range dirs {
		in = geom.Normalize(in)
		for _, out := range dirs {
			out = geom.Normalize(out)
			v := CookTorrance(in, out, n, mat)
			if v.X < 0 || v.Y < 0 || v.Z < 0 {
				t.Fatalf("negative BSDF value for in=%+v out=%+v: %+v", in, out, v)
			}
		}
	}
}

func TestRoughnessFromNsMonotonicDecreasing(t *testing.T) {
	low := RoughnessFromNs(5)
	high := RoughnessFromNs(500)
	if !(high < low) {
		t.Errorf("expected roughness to decrease as ns grows: RoughnessFromNs(5)=%v RoughnessFromNs(500)=%v", low, high)
	}
}

func TestIsEmissive(t *testing.T) {
	dark := Material{}
	if dark.IsEmissive() {
		t.Error("zero-value material should not be emissive")
	}
	lit := Material{Ke: geom.Vec3{X: 1, Y: 1, Z: 1}}
	if !lit.IsEmissive() {
		t.Error("material with positive Ke should be emissive")
	}
}
