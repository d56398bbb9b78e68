package world

// ChunkSize is the voxel edge length of one chunk, in world units.
const ChunkSize = 16

// Block palette ids. Zero is air everywhere in the pipeline.
const (
	Air uint16 = iota
	Stone
	Dirt
	Grass
	Sand
	IronOre
	CrystalOre
)

type ChunkCoord struct{ X, Y, Z int }

type Chunk struct {
	Coord  ChunkCoord
	Blocks []uint16 // ChunkSize^3, x-fastest then z then y
}

func NewChunk(c ChunkCoord) *Chunk {
	return &Chunk{Coord: c, Blocks: make([]uint16, ChunkSize*ChunkSize*ChunkSize)}
}

func blockIndex(x, y, z int) int {
	return (y*ChunkSize+z)*ChunkSize + x
}

// At returns the block at chunk-local coordinates.
func (c *Chunk) At(x, y, z int) uint16 {
	return c.Blocks[blockIndex(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b uint16) {
	c.Blocks[blockIndex(x, y, z)] = b
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
