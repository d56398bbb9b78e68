// Package headless is the software reference device: a FIFO queue goroutine
// interprets recorded command buffers, fences are plain signals, and the
// swapchain is a counter. It stands in for a platform backend behind the
// gpu interfaces and gives tests a real ordering model to run against.
package headless

import (
	"fmt"
	"sync"

	"quanta.gg/internal/gpu"
)

type submission struct {
	cb    *gpu.CommandBuffer
	after []gpu.Fence
	done  *gpu.Signal
}

// Queue executes submissions in order on a single goroutine. Each
// submission waits for its dependency fences before running, which is
// exactly the ordering contract gpu.Queue promises.
type Queue struct {
	subs chan submission

	closeOnce sync.Once
	closed    chan struct{}
	drained   sync.WaitGroup
}

func NewQueue() *Queue {
	q := &Queue{
		subs:   make(chan submission, 64),
		closed: make(chan struct{}),
	}
	q.drained.Add(1)
	go q.run()
	return q
}

func (q *Queue) Execute(cb *gpu.CommandBuffer, after ...gpu.Fence) (gpu.Fence, error) {
	done := gpu.NewSignal()
	dep := make([]gpu.Fence, len(after))
	copy(dep, after)
	select {
	case <-q.closed:
		return nil, gpu.ErrQueueClosed
	case q.subs <- submission{cb: cb, after: dep, done: done}:
		return done, nil
	}
}

func (q *Queue) run() {
	defer q.drained.Done()
	for {
		select {
		case <-q.closed:
			return
		case sub := <-q.subs:
			for _, f := range sub.after {
				<-f.Done()
			}
			sub.done.Complete(q.interpret(sub.cb))
		}
	}
}

func (q *Queue) interpret(cb *gpu.CommandBuffer) error {
	var target gpu.RenderTarget
	var pipe gpu.RenderPipeline
	var storage *gpu.IndexBuffer
	for _, op := range cb.Ops() {
		switch o := op.(type) {
		case gpu.BeginRenderPass:
			target = o.Target
		case gpu.BindPipeline:
			pipe = o.Pipeline
		case gpu.BindStorage:
			storage = o.Buffer
		case gpu.DrawOp:
			if target == nil || pipe == nil {
				return fmt.Errorf("headless: draw outside render pass")
			}
			if err := pipe.Draw(target, storage, o.Push, o.Vertices, o.Instances); err != nil {
				return err
			}
		case gpu.EndRenderPass:
			target = nil
		case gpu.UploadIndex:
			o.Dst.Commit(o.Words)
		default:
			return fmt.Errorf("headless: unknown op %T", op)
		}
	}
	return nil
}

// Close stops the queue goroutine. In-flight submissions may be dropped;
// only call once the frame loop has exited.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
	q.drained.Wait()
}
