package headless

import (
	"sync"

	"quanta.gg/internal/gpu"
)

type target struct{ w, h int }

func (t *target) TargetSize() (int, int) { return t.w, t.h }

// Window is the software swapchain: a ring of image indices, immediate
// acquisition, presentation counted after the frame's fence signals.
type Window struct {
	queue *Queue

	mu        sync.Mutex
	w, h      int
	images    int
	next      int
	stale     bool
	failNext  bool
	presented uint64
}

func NewWindow(w, h int, q *Queue) *Window {
	return &Window{queue: q, w: w, h: h, images: 3}
}

func (win *Window) Size() (int, int) {
	win.mu.Lock()
	defer win.mu.Unlock()
	return win.w, win.h
}

func (win *Window) Queue() gpu.Queue { return win.queue }

func (win *Window) Frame() (*gpu.Frame, error) {
	win.mu.Lock()
	defer win.mu.Unlock()
	if win.stale {
		return nil, gpu.ErrStaleSurface
	}
	idx := win.next
	win.next = (win.next + 1) % win.images
	return &gpu.Frame{
		Index:   idx,
		Acquire: gpu.Signaled(),
		Target:  &target{w: win.w, h: win.h},
	}, nil
}

func (win *Window) Present(f *gpu.Frame, after gpu.Fence) error {
	win.mu.Lock()
	stale := win.stale
	win.mu.Unlock()
	if stale {
		return gpu.ErrStaleSurface
	}
	go func() {
		<-after.Done()
		win.mu.Lock()
		win.presented++
		win.mu.Unlock()
	}()
	return nil
}

func (win *Window) Recreate() bool {
	win.mu.Lock()
	defer win.mu.Unlock()
	if win.failNext {
		win.failNext = false
		return false
	}
	win.stale = false
	return true
}

func (win *Window) Update() {}

// Resize marks the surface stale, as a platform resize callback would.
func (win *Window) Resize(w, h int) {
	win.mu.Lock()
	win.w, win.h = w, h
	win.stale = true
	win.mu.Unlock()
}

// FailNextRecreate makes the next Recreate report failure. Test hook.
func (win *Window) FailNextRecreate() {
	win.mu.Lock()
	win.failNext = true
	win.mu.Unlock()
}

func (win *Window) Presented() uint64 {
	win.mu.Lock()
	defer win.mu.Unlock()
	return win.presented
}
