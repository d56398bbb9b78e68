package headless

import (
	"sync"

	"quanta.gg/internal/gpu"
)

// DrawRecord is what the software pipeline observed for one draw call.
type DrawRecord struct {
	Push       gpu.PushConstants
	Vertices   int
	Instances  int
	Generation uint64
	Words      int
}

// Pipeline is the fixed triangle-strip ray-march pipeline. Without a real
// shader it records every draw with the index-buffer generation it sampled,
// which is what the no-tear property is stated over.
type Pipeline struct {
	mu    sync.Mutex
	draws []DrawRecord
}

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) Draw(target gpu.RenderTarget, storage *gpu.IndexBuffer, pc gpu.PushConstants, vertices, instances int) error {
	var gen uint64
	var words int
	if storage != nil {
		w, g := storage.Snapshot()
		gen = g
		words = len(w)
	}
	p.mu.Lock()
	p.draws = append(p.draws, DrawRecord{
		Push:       pc,
		Vertices:   vertices,
		Instances:  instances,
		Generation: gen,
		Words:      words,
	})
	p.mu.Unlock()
	return nil
}

// Draws returns a copy of everything drawn so far.
func (p *Pipeline) Draws() []DrawRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]DrawRecord, len(p.draws))
	copy(out, p.draws)
	return out
}
