package material

import (
	"math"

	"github.com/kdpath/tracer/internal/geom"
)

// BSDF evaluates bidirectional reflectance for a shading event. in and out
// are unit vectors in world space; the callee does not normalize them.
// Values may exceed one, it is a density, not a reflectance fraction.
type BSDF func(in, out, n geom.Vec3, mat Material) geom.Vec3

// CookTorrance implements a microfacet BSDF: a Lambertian diffuse term
// plus a Beckmann-distributed specular lobe with Schlick Fresnel and a
// Cook-Torrance geometry term.
func CookTorrance(in, out, n geom.Vec3, mat Material) geom.Vec3 {
	half := geom.Normalize(geom.Add(in, out))
	cosI := geom.Dot(n, in)
	cosO := geom.Dot(n, out)
	cosB := geom.Dot(half, out)
	thetaH := acos32(geom.Dot(n, half))

	diffuse := geom.Scale(1/math.Pi, mat.Kd)
	if cosI <= 0 || cosO <= 0 || cosB <= 0 {
		return diffuse
	}

	d := beckmannD(thetaH, mat.Roughness)
	g := geometryTerm(thetaH, cosI, cosO, cosB)
	f := fresnelSchlick(cosB, mat.Ni)

	spec := geom.Scale(f*d*g/(math.Pi*cosI*cosO), mat.Ks)
	return geom.Add(diffuse, spec)
}

// beckmannD is the Beckmann microfacet distribution term evaluated at the
// half-vector angle thetaH.
func beckmannD(thetaH, roughness float32) float32 {
	if roughness <= 0 {
		roughness = 1e-3
	}
	m2 := roughness * roughness
	cosH := cos32(thetaH)
	cos2 := cosH * cosH
	cos4 := cos2 * cos2
	tan2 := tan32(thetaH) * tan32(thetaH)
	return exp32(-tan2/m2) / (m2 * cos4)
}

// geometryTerm is the Cook-Torrance masking-shadowing term.
func geometryTerm(thetaH, cosI, cosO, cosB float32) float32 {
	cosH := cos32(thetaH)
	two := 2 * cosH / cosB
	g := two * cosI
	if alt := two * cosO; alt < g {
		g = alt
	}
	if g > 1 {
		g = 1
	}
	return g
}

// fresnelSchlick is Schlick's approximation to the Fresnel reflectance.
func fresnelSchlick(cosB, ni float32) float32 {
	f0 := (1 - ni) / (1 + ni)
	f0 *= f0
	return f0 + (1-f0)*pow5(1-cosB)
}

// ModifiedPhong is an alternate BSDF: a Lambertian diffuse term plus a
// Phong specular lobe about the mirror reflection direction.
func ModifiedPhong(in, out, n geom.Vec3, mat Material) geom.Vec3 {
	diffuse := geom.Scale(1/math.Pi, mat.Kd)

	reflected := geom.Sub(geom.Scale(2*geom.Dot(n, in), n), in)
	cosAlpha := geom.Dot(out, reflected)
	if cosAlpha <= 0 {
		return diffuse
	}

	coeff := (mat.Ns + 2) / (2 * math.Pi) * pow32(cosAlpha, mat.Ns)
	spec := geom.Scale(coeff, mat.Ks)
	return geom.Add(diffuse, spec)
}

func acos32(x float32) float32 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return float32(math.Acos(float64(x)))
}

func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }
func tan32(x float32) float32 { return float32(math.Tan(float64(x))) }
func exp32(x float32) float32 { return float32(math.Exp(float64(x))) }
func pow32(x, y float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Pow(float64(x), float64(y)))
}
func pow5(x float32) float32 {
	x2 := x * x
	return x2 * x2 * x
}
