package world

// Sparse octree encoding of a cubic voxel region into fixed-width words
// for the ray-march shader. Layout: the array is a pool of nodes, eight
// words each, root first. Each word describes one child octant:
//
//	0x00000000            empty subtree
//	0x80000000 | palette  uniform leaf (block id in the low 16 bits)
//	word index / 8        interior child node
//
// Children are ordered x-minor: octant i has bit0=+x, bit1=+y, bit2=+z.

const leafBit = 0x80000000

// BuildOctree encodes the size^3 region sampled by sample (region-local
// coordinates). size must be a power of two. Uniform subtrees collapse to
// a single leaf word, empty subtrees to zero.
func BuildOctree(sample func(x, y, z int) uint16, size int) []uint32 {
	b := &octreeBuilder{sample: sample}
	b.words = append(b.words, make([]uint32, 8)...)
	for i := 0; i < 8; i++ {
		b.words[i] = b.encode(octantOrigin(0, 0, 0, i, size/2), size/2)
	}
	return b.words
}

type octreeBuilder struct {
	sample func(x, y, z int) uint16
	words  []uint32
}

type vec struct{ x, y, z int }

func octantOrigin(x, y, z, i, half int) vec {
	if i&1 != 0 {
		x += half
	}
	if i&2 != 0 {
		y += half
	}
	if i&4 != 0 {
		z += half
	}
	return vec{x, y, z}
}

func (b *octreeBuilder) encode(o vec, size int) uint32 {
	if size == 1 {
		return leafWord(b.sample(o.x, o.y, o.z))
	}
	var children [8]uint32
	uniform := true
	for i := 0; i < 8; i++ {
		children[i] = b.encode(octantOrigin(o.x, o.y, o.z, i, size/2), size/2)
		if children[i] != children[0] || children[i]&leafBit == 0 && children[i] != 0 {
			uniform = false
		}
	}
	if uniform {
		// All eight octants are the same leaf (or all empty).
		return children[0]
	}
	idx := len(b.words)
	b.words = append(b.words, children[:]...)
	return uint32(idx / 8)
}

func leafWord(block uint16) uint32 {
	if block == Air {
		return 0
	}
	return leafBit | uint32(block)
}

// OctreeLookup resolves the block at region-local coordinates from an
// encoded tree. Used by tests and debugging, not by the render path.
func OctreeLookup(words []uint32, size, x, y, z int) uint16 {
	node := 0
	for size > 1 {
		half := size / 2
		i := 0
		if x >= half {
			i |= 1
			x -= half
		}
		if y >= half {
			i |= 2
			y -= half
		}
		if z >= half {
			i |= 4
			z -= half
		}
		w := words[node*8+i]
		switch {
		case w == 0:
			return Air
		case w&leafBit != 0:
			return uint16(w &^ leafBit)
		default:
			node = int(w)
			size = half
		}
	}
	// Interior nodes never reach voxel scale; encode emits leaves there.
	return Air
}
