package kdtree

import "github.com/kdpath/tracer/internal/geom"

// KDTree owns a sequential packed node array, a flat leaf-triangle index
// array, the scene bounds, and the build parameters needed to bias
// traversal rays off surfaces. Built once from immutable geometry; safe
// for concurrent read-only use by any number of workers thereafter.
type KDTree struct {
	nodes        []node
	leafElements []uint32
	bounds       geom.AABB
	rayRangeBias float32

	tris  []geom.Triangle
	verts []geom.Vertex
}

// Bounds returns the tree's scene-level bounding box.
func (k *KDTree) Bounds() geom.AABB { return k.bounds }

// NodeCount reports the number of packed nodes, exposed for render
// manifests and diagnostics.
func (k *KDTree) NodeCount() int { return len(k.nodes) }

// RayRangeBias returns the epsilon used to offset ray origins against
// self-intersection.
func (k *KDTree) RayRangeBias() float32 { return k.rayRangeBias }

// Hit is the result of a nearest-hit query: the hit distance, the
// interpolated shading normal, and the index of the hit triangle.
type Hit struct {
	T       float32
	Normal  geom.Vec3
	TriIdx  uint32
}
