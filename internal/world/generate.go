package world

// Local procedural terrain, used when no chunk feed is configured and as
// the fallback for chunks the feed does not know. Deterministic in the
// seed so cached and regenerated chunks agree.

type Generator struct {
	Seed int64
}

func hash3(seed int64, x, y, z int) uint64 {
	h := uint64(seed)*0x9E3779B97F4A7C15 ^ uint64(int64(x))*0xBF58476D1CE4E5B9 ^
		uint64(int64(y))*0x94D049BB133111EB ^ uint64(int64(z))*0xD6E8FEB86659FD93
	h ^= h >> 31
	h *= 0xC2B2AE3D27D4EB4F
	h ^= h >> 29
	return h
}

// surfaceHeight is a coarse rolling height field: a blend of hashed lattice
// values at two scales, in the range [4, 44).
func (g *Generator) surfaceHeight(wx, wz int) int {
	coarse := int(hash3(g.Seed, floorDiv(wx, 64), 0, floorDiv(wz, 64)) % 32)
	fine := int(hash3(g.Seed+1, floorDiv(wx, 8), 0, floorDiv(wz, 8)) % 8)
	return 4 + coarse + fine
}

func (g *Generator) blockAt(wx, wy, wz int) uint16 {
	h := g.surfaceHeight(wx, wz)
	switch {
	case wy > h:
		return Air
	case wy == h:
		if h < 8 {
			return Sand
		}
		return Grass
	case wy > h-4:
		return Dirt
	default:
		// Sparse ore pockets in the stone layer.
		roll := hash3(g.Seed+2, wx, wy, wz) % 1000
		switch {
		case roll < 2:
			return CrystalOre
		case roll < 12:
			return IronOre
		default:
			return Stone
		}
	}
}

func (g *Generator) Generate(coord ChunkCoord) *Chunk {
	ch := NewChunk(coord)
	for y := 0; y < ChunkSize; y++ {
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				wx := coord.X*ChunkSize + x
				wy := coord.Y*ChunkSize + y
				wz := coord.Z*ChunkSize + z
				ch.Set(x, y, z, g.blockAt(wx, wy, wz))
			}
		}
	}
	return ch
}
