package gpu

import "sync"

// IndexBuffer is the device-resident spatial index: fixed-width words
// encoding a sparse octree. The worker writes it only through an upload
// command executed under the orchestrator's fence barrier, so readers only
// ever see a fully committed generation.
type IndexBuffer struct {
	mu    sync.RWMutex
	words []uint32
	gen   uint64
}

func NewIndexBuffer() *IndexBuffer {
	return &IndexBuffer{}
}

// Commit replaces the buffer contents and bumps the generation. Called by
// the backend while executing an upload command, never directly.
func (b *IndexBuffer) Commit(words []uint32) uint64 {
	cp := make([]uint32, len(words))
	copy(cp, words)
	b.mu.Lock()
	b.words = cp
	b.gen++
	gen := b.gen
	b.mu.Unlock()
	return gen
}

// Snapshot returns the current contents and their generation.
func (b *IndexBuffer) Snapshot() ([]uint32, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.words, b.gen
}

func (b *IndexBuffer) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gen
}

func (b *IndexBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.words)
}
