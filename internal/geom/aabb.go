package geom

// AABB is an axis-aligned bounding box: three [lo, hi] intervals.
type AABB struct {
	Lo, Hi Vec3
}

// EmptyAABB returns a box with inverted bounds, the identity element for
// Union: unioning it with any box yields that box unchanged.
func EmptyAABB() AABB {
	const inf = 1e30
	return AABB{Lo: Vec3{inf, inf, inf}, Hi: Vec3{-inf, -inf, -inf}}
}

// Union returns the smallest box containing both a and b.
func Union(a, b AABB) AABB {
	return AABB{Lo: MinComp(a.Lo, b.Lo), Hi: MaxComp(a.Hi, b.Hi)}
}

// UnionPoint returns the smallest box containing a and the point p.
func UnionPoint(a AABB, p Vec3) AABB {
	return AABB{Lo: MinComp(a.Lo, p), Hi: MaxComp(a.Hi, p)}
}

// AxisBounds returns the [lo, hi] interval for the given axis.
func (b AABB) AxisBounds(axis int) (lo, hi float32) {
	return b.Lo.Axis(axis), b.Hi.Axis(axis)
}

// DimLength returns the length of the box along axis, clamped to >= 0.
func (b AABB) DimLength(axis int) float32 {
	lo, hi := b.AxisBounds(axis)
	d := hi - lo
	if d < 0 {
		return 0
	}
	return d
}

// WithLower returns a copy of b with axis's lower bound replaced by v.
func (b AABB) WithLower(axis int, v float32) AABB {
	out := b
	switch axis {
	case 0:
		out.Lo.X = v
	case 1:
		out.Lo.Y = v
	case 2:
		out.Lo.Z = v
	default:
		panic("geom: axis out of range")
	}
	return out
}

// WithUpper returns a copy of b with axis's upper bound replaced by v.
func (b AABB) WithUpper(axis int, v float32) AABB {
	out := b
	switch axis {
	case 0:
		out.Hi.X = v
	case 1:
		out.Hi.Y = v
	case 2:
		out.Hi.Z = v
	default:
		panic("geom: axis out of range")
	}
	return out
}

// SurfaceArea returns 2*(xy + yz + zx) for the box's three dimensions.
func (b AABB) SurfaceArea() float32 {
	dx, dy, dz := b.DimLength(0), b.DimLength(1), b.DimLength(2)
	return 2 * (dx*dy + dy*dz + dz*dx)
}

// Diagonal returns the length of the box's space diagonal.
func (b AABB) Diagonal() float32 {
	return Length(Sub(b.Hi, b.Lo))
}

// Contains reports whether p lies within b (inclusive of the boundary).
func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Lo.X && p.X <= b.Hi.X &&
		p.Y >= b.Lo.Y && p.Y <= b.Hi.Y &&
		p.Z >= b.Lo.Z && p.Z <= b.Hi.Z
}
