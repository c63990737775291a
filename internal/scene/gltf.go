package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/kdpath/tracer/internal/geom"
	"github.com/kdpath/tracer/internal/material"
)

// mat4 is a row-major 4x4 transform matrix.
type mat4 [16]float32

func identity() mat4 {
	return mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func mulMat4(a, b mat4) mat4 {
	var r mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[row*4+k] * b[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

func translationRotationScale(t, s [3]float32, q [4]float32) mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	r := mat4{
		(1 - (yy + zz)) * s[0], (xy - wz) * s[1], (xz + wy) * s[2], t[0],
		(xy + wz) * s[0], (1 - (xx + zz)) * s[1], (yz - wx) * s[2], t[1],
		(xz - wy) * s[0], (yz + wx) * s[1], (1 - (xx + yy)) * s[2], t[2],
		0, 0, 0, 1,
	}
	return r
}

func transformPoint(m mat4, v geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z + m[3],
		Y: m[4]*v.X + m[5]*v.Y + m[6]*v.Z + m[7],
		Z: m[8]*v.X + m[9]*v.Y + m[10]*v.Z + m[11],
	}
}

// transformNormal applies the linear (3x3) part of m, which is exact for
// rigid transforms and uniform scale; it is an approximation (skipping
// the inverse-transpose) under non-uniform scale, noted as a known
// limitation rather than pulling in a full matrix-inverse routine for a
// case glTF scenes rarely exercise.
func transformNormal(m mat4, v geom.Vec3) geom.Vec3 {
	return geom.Normalize(geom.Vec3{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[4]*v.X + m[5]*v.Y + m[6]*v.Z,
		Z: m[8]*v.X + m[9]*v.Y + m[10]*v.Z,
	})
}

// LoadGLTF opens a .gltf or .glb document and flattens its node hierarchy,
// materials, and mesh primitives into a single immutable Mesh, composing
// each node's TRS transform down from the scene roots. A node's "matrix"
// property is not read; a node that carries only a matrix is placed with
// the identity transform.
// Missing normals are generated from face winding; inward-facing normals
// are flipped; vertices that collapse to the same position and normal
// after transform are merged.
func LoadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: gltf open %q: %w", path, err)
	}

	mats := loadMaterials(doc)

	mesh := &Mesh{}
	dedup := make(map[vertexKey]uint32)

	roots := sceneRoots(doc)
	for _, idx := range roots {
		if err := walkNode(doc, idx, identity(), mats, mesh, dedup); err != nil {
			return nil, fmt.Errorf("scene: gltf %q: %w", path, err)
		}
	}

	if len(mesh.Tris) == 0 {
		return nil, fmt.Errorf("scene: gltf document %q contains no triangles", path)
	}
	return mesh, nil
}

func sceneRoots(doc *gltf.Document) []uint32 {
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func nodeLocalTransform(n *gltf.Node) mat4 {
	return translationRotationScale(n.TranslationOrDefault(), n.ScaleOrDefault(), n.RotationOrDefault())
}

func walkNode(doc *gltf.Document, idx uint32, parent mat4, mats []material.Material, mesh *Mesh, dedup map[vertexKey]uint32) error {
	n := doc.Nodes[idx]
	world := mulMat4(parent, nodeLocalTransform(n))

	if n.Mesh != nil && int(*n.Mesh) < len(doc.Meshes) {
		if err := appendMeshPrimitives(doc, doc.Meshes[*n.Mesh], world, mats, mesh, dedup); err != nil {
			return err
		}
	}

	for _, childIdx := range n.Children {
		if err := walkNode(doc, childIdx, world, mats, mesh, dedup); err != nil {
			return err
		}
	}
	return nil
}

type vertexKey struct {
	px, py, pz int32
	nx, ny, nz int32
}

// quantize collapses a float32 to a fixed grid for dedup-key purposes.
func quantize(v float32) int32 { return int32(v * 1e4) }

func keyFor(pos, norm geom.Vec3) vertexKey {
	return vertexKey{
		px: quantize(pos.X), py: quantize(pos.Y), pz: quantize(pos.Z),
		nx: quantize(norm.X), ny: quantize(norm.Y), nz: quantize(norm.Z),
	}
}

func appendMeshPrimitives(doc *gltf.Document, gm *gltf.Mesh, world mat4, mats []material.Material, mesh *Mesh, dedup map[vertexKey]uint32) error {
	for _, prim := range gm.Primitives {
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			continue
		}

		var normals [][3]float32
		if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, _ = modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				continue
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		matIdx := uint32(0)
		if prim.Material != nil {
			matIdx = localMaterialOffset(mesh, mats, int(*prim.Material))
		} else {
			matIdx = localMaterialOffset(mesh, mats, -1)
		}

		localIdx := make([]uint32, len(positions))
		for i, p := range positions {
			pos := transformPoint(world, geom.Vec3{X: p[0], Y: p[1], Z: p[2]})
			var norm geom.Vec3
			hasNormal := i < len(normals)
			if hasNormal {
				n := normals[i]
				norm = transformNormal(world, geom.Vec3{X: n[0], Y: n[1], Z: n[2]})
			}
			key := keyFor(pos, norm)
			if existing, ok := dedup[key]; ok && hasNormal {
				localIdx[i] = existing
				continue
			}
			vIdx := uint32(len(mesh.Verts))
			mesh.Verts = append(mesh.Verts, geom.Vertex{Pos: pos, Norm: norm})
			if hasNormal {
				dedup[key] = vIdx
			}
			localIdx[i] = vIdx
		}

		faces, err := triangulate(indices, prim.Mode)
		if err != nil {
			return fmt.Errorf("scene: primitive: %w", err)
		}

		for _, face := range faces {
			i0, i1, i2 := localIdx[face[0]], localIdx[face[1]], localIdx[face[2]]
			tri := geom.Triangle{I0: i0, I1: i1, I2: i2}

			genNormal := geom.Normalize(tri.GeometricNormal(mesh.Verts))
			if mesh.Verts[i0].Norm == (geom.Vec3{}) {
				mesh.Verts[i0].Norm = genNormal
				mesh.Verts[i1].Norm = genNormal
				mesh.Verts[i2].Norm = genNormal
			} else {
				for _, vi := range [3]uint32{i0, i1, i2} {
					if geom.Dot(mesh.Verts[vi].Norm, genNormal) < 0 {
						mesh.Verts[vi].Norm = geom.Neg(mesh.Verts[vi].Norm)
					}
				}
			}

			mesh.Tris = append(mesh.Tris, tri)
			mesh.TriMaterial = append(mesh.TriMaterial, matIdx)
		}
	}
	return nil
}

// triangulate expands a primitive's index list into a flat list of
// triangle-index triples according to its topology. TRIANGLE_STRIP shares
// each edge with the previous triangle, alternating winding every other
// triangle to keep a consistent front face; TRIANGLE_FAN shares every
// triangle's first vertex with the primitive's first index. Any mode
// other than TRIANGLES/TRIANGLE_STRIP/TRIANGLE_FAN is out of scope for a
// triangle-mesh loader and is reported as a load error rather than
// silently emitting garbage triangles.
func triangulate(indices []uint32, mode gltf.PrimitiveMode) ([][3]uint32, error) {
	switch mode {
	case gltf.PrimitiveTriangles:
		var faces [][3]uint32
		for i := 0; i+2 < len(indices); i += 3 {
			faces = append(faces, [3]uint32{indices[i], indices[i+1], indices[i+2]})
		}
		return faces, nil

	case gltf.PrimitiveTriangleStrip:
		var faces [][3]uint32
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				faces = append(faces, [3]uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				faces = append(faces, [3]uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
		return faces, nil

	case gltf.PrimitiveTriangleFan:
		var faces [][3]uint32
		for i := 1; i+1 < len(indices); i++ {
			faces = append(faces, [3]uint32{indices[0], indices[i], indices[i+1]})
		}
		return faces, nil

	default:
		return nil, fmt.Errorf("unsupported primitive mode %d (want TRIANGLES, TRIANGLE_STRIP, or TRIANGLE_FAN)", mode)
	}
}

// localMaterialOffset maps a glTF material index (or -1 for "no
// material") onto mesh.Materials, appending materials the first time each
// is referenced.
func localMaterialOffset(mesh *Mesh, mats []material.Material, gltfIdx int) uint32 {
	if gltfIdx < 0 {
		gltfIdx = len(mats) // sentinel slot for "default", appended once below
	}
	for len(mesh.Materials) <= gltfIdx {
		if len(mesh.Materials) < len(mats) {
			mesh.Materials = append(mesh.Materials, mats[len(mesh.Materials)])
		} else {
			mesh.Materials = append(mesh.Materials, material.Default())
		}
	}
	return uint32(gltfIdx)
}

func loadMaterials(doc *gltf.Document) []material.Material {
	out := make([]material.Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		m := material.Default()
		m.Name = gm.Name

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			m.Kd = geom.Vec3{X: cf[0], Y: cf[1], Z: cf[2]}

			roughness := pbr.RoughnessFactorOrDefault()
			m.Roughness = roughness
			if roughness > 1e-4 {
				m.Ns = 2/(roughness*roughness) - 2
			} else {
				m.Ns = 2000
			}

			metallic := pbr.MetallicFactorOrDefault()
			spec := 0.04 + metallic*0.92
			m.Ks = geom.Vec3{X: spec, Y: spec, Z: spec}
		}
		m.Ni = 1.5

		ef := gm.EmissiveFactorOrDefault()
		m.Ke = geom.Vec3{X: ef[0], Y: ef[1], Z: ef[2]}

		out[i] = m
	}
	return out
}
