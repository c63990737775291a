package kdtree

import "github.com/kdpath/tracer/internal/geom"

// todoEntry is one deferred branch of an explicit-stack traversal: a node
// to visit along with the ray-parameter range valid for it.
type todoEntry struct {
	node     uint32
	tMin, tMax float32
}

const maxTraversalDepth = 64

// NearestHit finds the closest ray/triangle intersection, if any. The ray
// origin is offset by the tree's ray-range bias before traversal begins to
// suppress self-intersection at the previous hit point.
func (k *KDTree) NearestHit(r geom.Ray) (Hit, bool) {
	r = r.Offset(k.rayRangeBias)

	var stack [maxTraversalDepth]todoEntry
	sp := 0

	nodeIdx := uint32(0)
	tMin, tMax := r.TMin, r.TMax

	var best Hit
	found := false
	tNearest := tMax

	for {
		if tMin > tMax {
			break
		}
		n := &k.nodes[nodeIdx]

		if !n.isLeaf() {
			axis := n.splitAxis()
			splitPos := n.splitPos()
			origin := r.Origin.Axis(axis)
			dir := r.Dir.Axis(axis)

			var first, second uint32
			below := origin < splitPos || (origin == splitPos && dir <= 0)
			if below {
				first, second = nodeIdx+1, n.aboveChildIdx()
			} else {
				first, second = n.aboveChildIdx(), nodeIdx+1
			}

			var tPlane float32
			if dir != 0 {
				tPlane = (splitPos - origin) / dir
			} else {
				tPlane = 1e30
				if origin >= splitPos {
					tPlane = -1e30
				}
			}

			switch {
			case tPlane > tMax || tPlane <= 0:
				nodeIdx = first
			case tPlane < tMin:
				nodeIdx = second
			default:
				stack[sp] = todoEntry{node: second, tMin: tPlane, tMax: tMax}
				sp++
				nodeIdx = first
				tMax = tPlane
			}
			continue
		}

		count := n.trianglesCount()
		for i := uint32(0); i < count; i++ {
			triIdx := k.leafElements[uint64(n.leafOffset)+uint64(i)]
			tri := k.tris[triIdx]
			a, b, c := k.verts[tri.I0], k.verts[tri.I1], k.verts[tri.I2]
			h, ok := geom.IntersectTriangle(r, a.Pos, b.Pos, c.Pos)
			if !ok {
				continue
			}
			if r.TMin-k.rayRangeBias < h.T && h.T < tNearest {
				tNearest = h.T
				best = Hit{
					T:      h.T,
					Normal: geom.InterpolateNormal(a, b, c, h),
					TriIdx: triIdx,
				}
				found = true
			}
		}

		if sp == 0 {
			break
		}
		sp--
		nodeIdx = stack[sp].node
		tMin = stack[sp].tMin
		tMax = stack[sp].tMax
	}

	return best, found
}

// Occluded reports whether any surface blocks the ray before parametric
// distance tLight, used for shadow-ray visibility tests against next-event
// light samples. It returns on the first blocking hit rather than finding
// the nearest one.
func (k *KDTree) Occluded(r geom.Ray, tLight float32) bool {
	r = r.Offset(k.rayRangeBias)

	var stack [maxTraversalDepth]todoEntry
	sp := 0

	nodeIdx := uint32(0)
	tMin, tMax := r.TMin, r.TMax

	for {
		if tMin > tMax {
			return false
		}
		n := &k.nodes[nodeIdx]

		if !n.isLeaf() {
			axis := n.splitAxis()
			splitPos := n.splitPos()
			origin := r.Origin.Axis(axis)
			dir := r.Dir.Axis(axis)

			var first, second uint32
			below := origin < splitPos || (origin == splitPos && dir <= 0)
			if below {
				first, second = nodeIdx+1, n.aboveChildIdx()
			} else {
				first, second = n.aboveChildIdx(), nodeIdx+1
			}

			var tPlane float32
			if dir != 0 {
				tPlane = (splitPos - origin) / dir
			} else {
				tPlane = 1e30
				if origin >= splitPos {
					tPlane = -1e30
				}
			}

			switch {
			case tPlane > tMax || tPlane <= 0:
				nodeIdx = first
			case tPlane < tMin:
				nodeIdx = second
			default:
				stack[sp] = todoEntry{node: second, tMin: tPlane, tMax: tMax}
				sp++
				nodeIdx = first
				tMax = tPlane
			}
			continue
		}

		count := n.trianglesCount()
		for i := uint32(0); i < count; i++ {
			triIdx := k.leafElements[uint64(n.leafOffset)+uint64(i)]
			tri := k.tris[triIdx]
			a, b, c := k.verts[tri.I0], k.verts[tri.I1], k.verts[tri.I2]
			h, ok := geom.IntersectTriangle(r, a.Pos, b.Pos, c.Pos)
			if !ok {
				continue
			}
			if r.TMin+k.rayRangeBias < h.T && h.T < tLight {
				return true
			}
		}

		if sp == 0 {
			return false
		}
		sp--
		nodeIdx = stack[sp].node
		tMin = stack[sp].tMin
		tMax = stack[sp].tMax
	}
}
