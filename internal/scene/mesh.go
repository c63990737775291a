// Package scene aggregates a loaded mesh, its materials, and the derived
// acceleration structures (KD-tree, light sample set) into the immutable
// world the integrator renders against.
package scene

import (
	"github.com/kdpath/tracer/internal/geom"
	"github.com/kdpath/tracer/internal/kdtree"
	"github.com/kdpath/tracer/internal/lights"
	"github.com/kdpath/tracer/internal/material"
)

// Mesh is the immutable vertex/triangle/material data produced by a
// loader. TriMaterial maps each triangle to an index into Materials.
type Mesh struct {
	Verts       []geom.Vertex
	Tris        []geom.Triangle
	Materials   []material.Material
	TriMaterial []uint32
}

// World bundles a loaded Mesh with the acceleration structures built over
// it. Constructed once before rendering begins; read-only and safely
// shared across every worker goroutine thereafter.
type World struct {
	Mesh   *Mesh
	Tree   *kdtree.KDTree
	Lights *lights.Set
}

// NewWorld builds the KD-tree and light sample set for mesh and returns
// the resulting World.
func NewWorld(mesh *Mesh, params kdtree.BuildParams) *World {
	tree := kdtree.Build(mesh.Tris, mesh.Verts, params)
	lightSet := lights.Build(mesh.Tris, mesh.Verts, mesh.Materials, mesh.TriMaterial)
	return &World{Mesh: mesh, Tree: tree, Lights: lightSet}
}

// MaterialFor returns the material bound to triangle triIdx.
func (w *World) MaterialFor(triIdx uint32) material.Material {
	return w.Mesh.Materials[w.Mesh.TriMaterial[triIdx]]
}

// Triangle returns the triangle at triIdx.
func (w *World) Triangle(triIdx uint32) geom.Triangle {
	return w.Mesh.Tris[triIdx]
}
