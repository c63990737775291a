package sampler

import (
	"math/rand"
	"testing"

	"github.com/kdpath/tracer/internal/geom"
)

func approxEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestCosineUnitVectorUpperHemisphere(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := Cosine{}
	for i := 0; i < 200; i++ {
		v, p := s.Sample(rng)
		if !approxEqual(geom.Length(v), 1, 1e-4) {
			t.Fatalf("sample %d not unit length: %+v", i, v)
		}
		if v.Y < 0 {
			t.Fatalf("sample %d below hemisphere: %+v", i, v)
		}
		if p <= 0 {
			t.Fatalf("sample %d non-positive pdf: %v", i, p)
		}
	}
}

func TestUniformUnitVectorUpperHemisphere(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	s := Uniform{}
	for i := 0; i < 200; i++ {
		v, p := s.Sample(rng)
		if !approxEqual(geom.Length(v), 1, 1e-4) {
			t.Fatalf("sample %d not unit length: %+v", i, v)
		}
		if v.Y < 0 {
			t.Fatalf("sample %d below hemisphere: %+v", i, v)
		}
		if !approxEqual(p, uniformPDF, 1e-6) {
			t.Fatalf("sample %d pdf = %v, want constant %v", i, p, uniformPDF)
		}
	}
}

func TestBeckmannUnitVectorUpperHemisphere(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := Beckmann{Roughness: 0.4}
	for i := 0; i < 200; i++ {
		v, p := s.Sample(rng)
		if !approxEqual(geom.Length(v), 1, 1e-3) {
			t.Fatalf("sample %d not unit length: %+v", i, v)
		}
		if v.Y < 0 {
			t.Fatalf("sample %d below hemisphere: %+v", i, v)
		}
		if p <= 0 {
			t.Fatalf("sample %d non-positive pdf: %v", i, p)
		}
	}
}

func TestRotateToNormalPreservesPole(t *testing.T) {
	n := geom.Vec3{X: 0, Y: 1, Z: 0}
	s := geom.Vec3{X: 0.3, Y: 0.9, Z: 0.1}
	got := RotateToNormal(s, n)
	if !approxEqual(got.X, s.X, 1e-5) || !approxEqual(got.Y, s.Y, 1e-5) || !approxEqual(got.Z, s.Z, 1e-5) {
		t.Fatalf("RotateToNormal with n=up should be identity, got %+v want %+v", got, s)
	}
}

func TestRotateToNormalPreservesLength(t *testing.T) {
	ns := []geom.Vec3{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: -1, Z: 0},
		geom.Normalize(geom.Vec3{X: 1, Y: 1, Z: 1}),
		geom.Normalize(geom.Vec3{X: -1, Y: 0.2, Z: 0.4}),
	}
	s := geom.Vec3{X: 0.3, Y: 0.9, Z: 0.1}
	for _, n := range ns {
		got := RotateToNormal(s, n)
		if !approxEqual(geom.Length(got), geom.Length(s), 1e-4) {
			t.Fatalf("rotation changed length for n=%+v: got %+v", n, got)
		}
		// The rotated sample's angle from n should match s's angle from the
		// canonical pole (0,1,0): rotation preserves the dot product.
		if !approxEqual(geom.Dot(got, n), s.Y, 1e-4) {
			t.Fatalf("rotation did not preserve pole angle for n=%+v: dot=%v want %v", n, geom.Dot(got, n), s.Y)
		}
	}
}

func TestCosinePDFMatchesFormula(t *testing.T) {
	v := geom.Vec3{X: 0.5, Y: 0.8, Z: 0.3}
	if got, want := cosinePDF(v), v.Y/piFor(t); !approxEqual(got, want, 1e-6) {
		t.Errorf("cosinePDF = %v, want %v", got, want)
	}
}

func piFor(t *testing.T) float32 {
	t.Helper()
	return float32(3.14159265358979323846)
}
