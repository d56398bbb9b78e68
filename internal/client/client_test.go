package client

import (
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"quanta.gg/internal/camera"
	"quanta.gg/internal/event"
	"quanta.gg/internal/gpu"
	"quanta.gg/internal/gpu/headless"
	"quanta.gg/internal/protocol"
)

type fakeTarget struct{}

func (fakeTarget) TargetSize() (int, int) { return 320, 240 }

// fakeWindow wraps the headless queue with scriptable acquisition and
// recreation failures, recording the call order the loop makes.
type fakeWindow struct {
	queue gpu.Queue

	frameCalls    int
	recreateCalls int
	frameErr      map[int]error // keyed by frame-call ordinal
	recreateFail  map[int]bool
	presentErr    error

	calls []string
}

func newFakeWindow(q gpu.Queue) *fakeWindow {
	return &fakeWindow{
		queue:        q,
		frameErr:     map[int]error{},
		recreateFail: map[int]bool{},
	}
}

func (w *fakeWindow) Size() (int, int) { return 320, 240 }
func (w *fakeWindow) Queue() gpu.Queue { return w.queue }

func (w *fakeWindow) Frame() (*gpu.Frame, error) {
	w.frameCalls++
	w.calls = append(w.calls, "frame")
	if err := w.frameErr[w.frameCalls]; err != nil {
		return nil, err
	}
	return &gpu.Frame{Index: 0, Acquire: gpu.Signaled(), Target: fakeTarget{}}, nil
}

func (w *fakeWindow) Present(f *gpu.Frame, after gpu.Fence) error {
	w.calls = append(w.calls, "present")
	return w.presentErr
}

func (w *fakeWindow) Recreate() bool {
	w.recreateCalls++
	w.calls = append(w.calls, "recreate")
	return !w.recreateFail[w.recreateCalls]
}

func (w *fakeWindow) Update() {}

type rig struct {
	c      *Client
	win    *fakeWindow
	pipe   *headless.Pipeline
	buf    *gpu.IndexBuffer
	events *event.Queue
	render *protocol.RenderEnd
	worker *protocol.WorkerEnd
	queue  *headless.Queue

	fatals []string
}

func newRig(t *testing.T) *rig {
	t.Helper()
	q := headless.NewQueue()
	t.Cleanup(q.Close)

	r := &rig{
		win:    newFakeWindow(q),
		pipe:   headless.NewPipeline(),
		buf:    gpu.NewIndexBuffer(),
		events: event.NewQueue(),
		queue:  q,
	}
	r.render, r.worker = protocol.NewLink()
	logger := log.New(os.Stdout, "[viewer-test] ", 0)
	r.c = New(r.win, r.pipe, r.buf, camera.New(10, 0.01), r.events, r.render, logger)
	r.c.fatalf = func(format string, args ...any) {
		r.fatals = append(r.fatals, fmt.Sprintf(format, args...))
	}
	return r
}

func (r *rig) drainMoves(t *testing.T) []protocol.PlayerMove {
	t.Helper()
	var out []protocol.PlayerMove
	for {
		m, ok := r.worker.TryRecv()
		if !ok {
			return out
		}
		mv, isMove := m.(protocol.PlayerMove)
		require.True(t, isMove, "worker received %T", m)
		out = append(out, mv)
	}
}

func (r *rig) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, r.c.pending.Wait(time.Second))
}

// Scenario: the worker answers the first position report with a rebuilt
// index; the next frame's push constants carry exactly the submitted
// origin and root size, and the application took exactly two fence waits.
func TestSubmitApplication(t *testing.T) {
	r := newRig(t)

	words := []uint32{0, leaf(1), 0, 0, 0, 0, 0, 0}
	cmd := gpu.NewCommandBuffer().Upload(r.buf, words)
	require.NoError(t, r.worker.Send(protocol.Submit{
		Cmd:      cmd,
		Origin:   mgl32.Vec3{0, 0, 0},
		RootSize: 64,
	}))

	r.c.iterate(0.016)
	require.Empty(t, r.fatals)
	require.Equal(t, uint64(2), r.c.fenceWaits, "two-wait barrier")
	require.Equal(t, float32(64), r.c.rootSize)
	require.Equal(t, uint64(1), r.buf.Generation())

	moves := r.drainMoves(t)
	require.Len(t, moves, 1)
	require.Equal(t, mgl32.Vec3{0, 0, 0}, moves[0].Pos)

	r.c.iterate(0.016)
	r.settle(t)

	draws := r.pipe.Draws()
	require.Len(t, draws, 2)
	last := draws[len(draws)-1]
	require.Equal(t, mgl32.Vec3{0, 0, 0}, last.Push.Origin)
	require.Equal(t, float32(64), last.Push.RootSize)
	require.Equal(t, uint64(1), last.Generation, "draw must sample the committed contents")
	require.Equal(t, 4, last.Vertices)
	require.Equal(t, 1, last.Instances)
}

// Scenario: stale surface on iteration 5. That iteration produces no draw
// and no present; iteration 6 recreates before acquiring again.
func TestStaleSurfaceRecovery(t *testing.T) {
	r := newRig(t)
	r.win.frameErr[5] = gpu.ErrStaleSurface

	for i := 0; i < 4; i++ {
		r.c.iterate(0.016)
	}
	r.settle(t)
	require.Len(t, r.pipe.Draws(), 4)

	start := len(r.win.calls)
	r.c.iterate(0.016) // iteration 5
	r.settle(t)
	require.Len(t, r.pipe.Draws(), 4, "stale frame must not draw")
	require.Equal(t, []string{"frame"}, r.win.calls[start:], "no present on the stale frame")
	require.Len(t, r.drainMoves(t), 4, "stale frame skips the message exchange")

	start = len(r.win.calls)
	r.c.iterate(0.016) // iteration 6
	r.settle(t)
	require.GreaterOrEqual(t, len(r.win.calls), start+2)
	require.Equal(t, "recreate", r.win.calls[start], "recreate must precede acquisition")
	require.Equal(t, "frame", r.win.calls[start+1])
	require.Len(t, r.pipe.Draws(), 5)
}

func TestRecreateFailureSkipsIteration(t *testing.T) {
	r := newRig(t)
	r.win.frameErr[1] = gpu.ErrStaleSurface
	r.win.recreateFail[1] = true

	r.c.iterate(0.016) // flags recreate
	before := r.c.origin
	r.c.iterate(0.016) // recreate fails: no acquisition, nothing changes
	require.Equal(t, 1, r.win.frameCalls)
	require.Equal(t, before, r.c.origin)
	require.Empty(t, r.drainMoves(t))

	r.c.iterate(0.016) // second attempt succeeds
	require.Equal(t, 2, r.win.recreateCalls)
	require.Equal(t, 2, r.win.frameCalls)
}

func TestOneMovePerIteration(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 3; i++ {
		r.c.iterate(0.016)
	}
	moves := r.drainMoves(t)
	require.Len(t, moves, 3)
	for _, mv := range moves {
		require.Equal(t, r.c.cam.Pos(), mv.Pos)
	}
}

func TestProtocolViolationIsFatal(t *testing.T) {
	r := newRig(t)
	// A PlayerMove has no business arriving at the render thread.
	require.NoError(t, r.worker.Send(protocol.PlayerMove{}))
	r.c.iterate(0.016)
	require.Len(t, r.fatals, 1)
	require.Contains(t, r.fatals[0], "unexpected message")
	require.True(t, r.c.done)
}

func TestDeadWorkerIsFatal(t *testing.T) {
	r := newRig(t)
	r.worker.Close()
	r.c.iterate(0.016)
	require.Len(t, r.fatals, 1)
	require.Contains(t, r.fatals[0], "player move")
}

func TestPresentErrorsFollowPolicy(t *testing.T) {
	r := newRig(t)
	r.win.presentErr = gpu.ErrStaleSurface
	r.c.iterate(0.016)
	require.True(t, r.c.recreate, "stale present flags recreation")
	require.Empty(t, r.fatals)

	r2 := newRig(t)
	r2.win.presentErr = fmt.Errorf("transient present hiccup")
	for i := 0; i < 3; i++ {
		r2.c.iterate(0.016)
	}
	require.Empty(t, r2.fatals, "non-stale present errors must not abort")
	require.Len(t, r2.drainMoves(t), 3)
}

func TestQuitEventStopsLoop(t *testing.T) {
	r := newRig(t)
	r.events.Push(event.Quit{})
	done := make(chan struct{})
	go func() {
		r.c.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop on quit")
	}
}

func TestResizeEventFlagsRecreate(t *testing.T) {
	r := newRig(t)
	r.events.Push(event.Resize{W: 100, H: 100})
	r.c.iterate(0.016)
	require.True(t, r.c.recreate)
}

func leaf(block uint16) uint32 { return 0x80000000 | uint32(block) }
