package world

import (
	"context"
	"fmt"
	"log"
)

// Connection is the worker's opaque network handle to a chunk feed. Fetch
// may block on I/O; the worker is the only caller.
type Connection interface {
	Fetch(ctx context.Context, coords [][3]int) (map[[3]int][]uint16, error)
	Close() error
}

// Cache persists chunk block data across runs.
type Cache interface {
	Get(x, y, z int) ([]uint16, bool, error)
	Put(x, y, z int, blocks []uint16) error
}

// Store holds the worker's authoritative loaded-chunk state. Resolution
// order for a missing chunk: cache, feed, local generation. Owned by the
// worker goroutine; no locking.
type Store struct {
	chunks map[ChunkCoord]*Chunk
	gen    *Generator
	conn   Connection
	cache  Cache
	logger *log.Logger
}

func NewStore(gen *Generator, conn Connection, cache Cache, logger *log.Logger) *Store {
	return &Store{
		chunks: make(map[ChunkCoord]*Chunk),
		gen:    gen,
		conn:   conn,
		cache:  cache,
		logger: logger,
	}
}

// Ensure loads every chunk in coords that is not already resident.
func (s *Store) Ensure(ctx context.Context, coords []ChunkCoord) error {
	var missing []ChunkCoord
	for _, c := range coords {
		if _, ok := s.chunks[c]; ok {
			continue
		}
		if s.cache != nil {
			blocks, ok, err := s.cache.Get(c.X, c.Y, c.Z)
			if err != nil {
				s.logger.Printf("chunk cache get %v: %v", c, err)
			} else if ok && len(blocks) == ChunkSize*ChunkSize*ChunkSize {
				s.chunks[c] = &Chunk{Coord: c, Blocks: blocks}
				continue
			}
		}
		missing = append(missing, c)
	}
	if len(missing) == 0 {
		return nil
	}

	if s.conn != nil {
		req := make([][3]int, len(missing))
		for i, c := range missing {
			req[i] = [3]int{c.X, c.Y, c.Z}
		}
		got, err := s.conn.Fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("fetch %d chunks: %w", len(missing), err)
		}
		rest := missing[:0]
		for _, c := range missing {
			blocks, ok := got[[3]int{c.X, c.Y, c.Z}]
			if !ok || len(blocks) != ChunkSize*ChunkSize*ChunkSize {
				rest = append(rest, c)
				continue
			}
			s.adopt(&Chunk{Coord: c, Blocks: blocks})
		}
		missing = rest
	}

	// Anything the feed did not return is generated locally.
	for _, c := range missing {
		s.adopt(s.gen.Generate(c))
	}
	return nil
}

func (s *Store) adopt(ch *Chunk) {
	s.chunks[ch.Coord] = ch
	if s.cache != nil {
		if err := s.cache.Put(ch.Coord.X, ch.Coord.Y, ch.Coord.Z, ch.Blocks); err != nil {
			s.logger.Printf("chunk cache put %v: %v", ch.Coord, err)
		}
	}
}

// Block returns the block at world voxel coordinates; unloaded space is air.
func (s *Store) Block(wx, wy, wz int) uint16 {
	coord := ChunkCoord{floorDiv(wx, ChunkSize), floorDiv(wy, ChunkSize), floorDiv(wz, ChunkSize)}
	ch, ok := s.chunks[coord]
	if !ok {
		return Air
	}
	return ch.At(floorMod(wx, ChunkSize), floorMod(wy, ChunkSize), floorMod(wz, ChunkSize))
}

// Evict drops chunks outside radius (in chunks) around center, keeping the
// resident set bounded as the player travels.
func (s *Store) Evict(center ChunkCoord, radius int) {
	for c := range s.chunks {
		if abs(c.X-center.X) > radius || abs(c.Y-center.Y) > radius || abs(c.Z-center.Z) > radius {
			delete(s.chunks, c)
		}
	}
}

func (s *Store) Resident() int { return len(s.chunks) }

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
