// Package kdtree implements a surface-area-heuristic KD-tree over a
// triangle mesh: packed node construction and deterministic ray
// traversal (nearest-hit and occlusion).
package kdtree

// node is the packed, fixed-width tree record described by the data
// model. word's low 2 bits discriminate: 00/01/10 select the split axis
// X/Y/Z, 11 marks a leaf; the remaining 30 bits hold the above-child
// index (interior) or triangle count (leaf) — the below-child is always
// the following array slot. Go has no C-style union, so the two scalar
// payloads that the reference implementation overlays onto one machine
// word (split position, leaf offset) get separate typed fields instead;
// the 2-bit/30-bit packing itself is kept faithfully in word.
type node struct {
	word       uint32
	split      float32 // interior only
	leafOffset uint32  // leaf only: offset into leafElements
}

const (
	axisX    = 0
	axisY    = 1
	axisZ    = 2
	leafFlag = 0b11
	flagBits = 2
)

func (n *node) initLeaf(count, offset uint32) {
	n.word = leafFlag | count<<flagBits
	n.leafOffset = offset
}

func (n *node) initInterior(axis int, split float32) {
	if axis < 0 || axis > 2 {
		panic("kdtree: split axis out of range")
	}
	n.word = uint32(axis)
	n.split = split
}

func (n *node) isLeaf() bool { return n.word&0b11 == leafFlag }

func (n *node) splitAxis() int { return int(n.word & 0b11) }

func (n *node) splitPos() float32 { return n.split }

func (n *node) trianglesCount() uint32 { return n.word >> flagBits }

func (n *node) setAboveChild(idx uint32) {
	n.word = n.word&0b11 | idx<<flagBits
}

func (n *node) aboveChildIdx() uint32 { return n.word >> flagBits }
