package kdtree

import (
	"math"
	"sort"

	"github.com/kdpath/tracer/internal/geom"
)

// BuildParams carries the SAH build's cost model and termination policy.
type BuildParams struct {
	MaxDepth       int
	MaxLeafCap     int
	EmptyBonus     float32
	TraversalCost  float32
	IsectCost      float32
	RayRangeBias   float32 // if 0, derived from the scene diagonal on build
}

// DefaultParams returns the parameter set the reference renderer uses when
// a scene config does not override them.
func DefaultParams() BuildParams {
	return BuildParams{
		MaxDepth:      -1, // resolved against triangle count in Build
		MaxLeafCap:    1,
		EmptyBonus:    0.2,
		TraversalCost: 1,
		IsectCost:     80,
	}
}

// edgeType distinguishes the two edges a triangle's AABB contributes to a
// per-axis sweep.
type edgeType uint8

const (
	edgeStart edgeType = iota
	edgeEnd
)

type boundEdge struct {
	t    float32
	tri  uint32
	kind edgeType
}

// buildState holds the three reusable per-axis edge buffers the
// construction sweeps over, allocated once and reused across the entire
// recursion to keep construction close to linear in extra memory.
type buildState struct {
	verts  []geom.Vertex
	tris   []geom.Triangle
	bounds []geom.AABB // per-triangle, indexed like tris

	edges [3][]boundEdge

	nodes        []node
	leafElements []uint32
	params       BuildParams
}

// Build constructs a KD-tree over tris/verts using the surface-area
// heuristic, following the PBRT design: at each node, candidate splits on
// all three axes (longest first) are swept via a sorted edge list, and the
// minimum-cost split wins subject to a degenerate-split bailout policy.
func Build(tris []geom.Triangle, verts []geom.Vertex, params BuildParams) *KDTree {
	if len(tris) == 0 {
		panic("kdtree: cannot build over an empty triangle set")
	}
	if params.MaxDepth < 0 {
		params.MaxDepth = int(8 + 1.3*log2(float64(len(tris))))
	}
	if params.MaxLeafCap <= 0 {
		params.MaxLeafCap = 1
	}

	bounds := make([]geom.AABB, len(tris))
	sceneBounds := geom.EmptyAABB()
	for i, t := range tris {
		bounds[i] = t.Bounds(verts)
		sceneBounds = geom.Union(sceneBounds, bounds[i])
	}

	st := &buildState{
		verts:  verts,
		tris:   tris,
		bounds: bounds,
		params: params,
	}
	for axis := 0; axis < 3; axis++ {
		st.edges[axis] = make([]boundEdge, 2*len(tris))
	}

	indices := make([]uint32, len(tris))
	for i := range indices {
		indices[i] = uint32(i)
	}

	st.recurse(indices, sceneBounds, params.MaxDepth, noParent, false, 0)

	bias := params.RayRangeBias
	if bias == 0 {
		bias = 5e-5 * sceneBounds.Diagonal()
	}

	return &KDTree{
		nodes:        st.nodes,
		leafElements: st.leafElements,
		bounds:       sceneBounds,
		rayRangeBias: bias,
		tris:         tris,
		verts:        verts,
	}
}

const noParent = ^uint32(0)

func log2(x float64) float64 { return math.Log2(x) }

func (st *buildState) recurse(indices []uint32, bounds geom.AABB, depth int, parent uint32, parentAbove bool, badRefines int) {
	if len(indices) <= st.params.MaxLeafCap || depth == 0 {
		st.createLeaf(indices, parent, parentAbove)
		return
	}

	axes := [3]int{0, 1, 2}
	sort.Slice(axes[:], func(i, j int) bool {
		return bounds.DimLength(axes[i]) > bounds.DimLength(axes[j])
	})

	bestAxis := -1
	bestOffset := -1
	bestCost := float32(math.MaxFloat32)
	oldCost := st.params.IsectCost * float32(len(indices))
	totalSA := bounds.SurfaceArea()

	// Evaluate every axis and keep the global minimum-cost split; within an
	// axis ties resolve to the first edge encountered during the sweep.
	for _, axis := range axes {
		edges := st.edges[axis][:2*len(indices)]
		for j, idx := range indices {
			lo, hi := st.bounds[idx].AxisBounds(axis)
			edges[2*j] = boundEdge{t: lo, tri: idx, kind: edgeStart}
			edges[2*j+1] = boundEdge{t: hi, tri: idx, kind: edgeEnd}
		}
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].t == edges[j].t {
				return edges[i].kind < edges[j].kind
			}
			return edges[i].t < edges[j].t
		})

		loBound, hiBound := bounds.AxisBounds(axis)
		otherA, otherB := (axis+1)%3, (axis+2)%3
		lenA, lenB := bounds.DimLength(otherA), bounds.DimLength(otherB)

		nBelow, nAbove := 0, len(indices)

		for j, e := range edges {
			if e.kind == edgeEnd {
				nAbove--
			}
			if e.t > loBound && e.t < hiBound {
				belowSA := 2 * (lenA*lenB + (e.t-loBound)*(lenA+lenB))
				aboveSA := 2 * (lenA*lenB + (hiBound-e.t)*(lenA+lenB))
				pBelow := belowSA / totalSA
				pAbove := aboveSA / totalSA
				eb := float32(0)
				if nAbove == 0 || nBelow == 0 {
					eb = st.params.EmptyBonus
				}
				cost := st.params.TraversalCost + st.params.IsectCost*(1-eb)*(pBelow*float32(nBelow)+pAbove*float32(nAbove))
				if cost < bestCost {
					bestCost = cost
					bestAxis = axis
					bestOffset = j
				}
			}
			if e.kind == edgeStart {
				nBelow++
			}
		}
	}

	if bestAxis >= 0 && bestCost > oldCost {
		badRefines++
	}
	if bestAxis < 0 || (bestCost > 4*oldCost && len(indices) < 16) || badRefines >= 3 {
		st.createLeaf(indices, parent, parentAbove)
		return
	}

	axisEdges := st.edges[bestAxis][:2*len(indices)]
	var below, above []uint32
	for i := 0; i < bestOffset; i++ {
		if axisEdges[i].kind == edgeStart {
			below = append(below, axisEdges[i].tri)
		}
	}
	for i := bestOffset + 1; i < len(axisEdges); i++ {
		if axisEdges[i].kind == edgeEnd {
			above = append(above, axisEdges[i].tri)
		}
	}

	split := axisEdges[bestOffset].t

	var n node
	n.initInterior(bestAxis, split)
	st.nodes = append(st.nodes, n)
	nodeIdx := uint32(len(st.nodes) - 1)
	if parent != noParent && parentAbove {
		st.nodes[parent].setAboveChild(nodeIdx)
	}

	belowBounds := bounds.WithUpper(bestAxis, split)
	aboveBounds := bounds.WithLower(bestAxis, split)

	st.recurse(below, belowBounds, depth-1, nodeIdx, false, badRefines)
	st.recurse(above, aboveBounds, depth-1, nodeIdx, true, badRefines)
}

func (st *buildState) createLeaf(indices []uint32, parent uint32, parentAbove bool) {
	var n node
	offset := uint32(len(st.leafElements))
	n.initLeaf(uint32(len(indices)), offset)
	st.leafElements = append(st.leafElements, indices...)
	st.nodes = append(st.nodes, n)
	if parent != noParent && parentAbove {
		st.nodes[parent].setAboveChild(uint32(len(st.nodes) - 1))
	}
}
