package protocol

// Link endpoints: two independent unidirectional queues form the
// bidirectional connection between the render thread and the worker.
// Render->worker carries only PlayerMove; worker->render only Submit.

type RenderEnd struct {
	out *Queue // PlayerMove
	in  *Queue // Submit
}

type WorkerEnd struct {
	in  *Queue // PlayerMove
	out *Queue // Submit
}

func NewLink() (*RenderEnd, *WorkerEnd) {
	toWorker := NewQueue()
	toRender := NewQueue()
	return &RenderEnd{out: toWorker, in: toRender},
		&WorkerEnd{in: toWorker, out: toRender}
}

func (r *RenderEnd) Send(m ClientMessage) error   { return r.out.Send(m) }
func (r *RenderEnd) TryRecv() (ClientMessage, bool) { return r.in.TryRecv() }
func (r *RenderEnd) Close()                        { r.out.Close() }

func (w *WorkerEnd) Send(m ClientMessage) error   { return w.out.Send(m) }
func (w *WorkerEnd) TryRecv() (ClientMessage, bool) { return w.in.TryRecv() }
func (w *WorkerEnd) Ready() <-chan struct{}        { return w.in.Ready() }

// OutboxDrained reports whether every Submit sent so far has been consumed
// by the render thread. The worker never starts a new build while this is
// false (single-outstanding-update discipline).
func (w *WorkerEnd) OutboxDrained() bool { return w.out.Len() == 0 }

// Close tears down both directions: a dead worker must make the render
// thread's next send fail, not silently queue forever.
func (w *WorkerEnd) Close() {
	w.out.Close()
	w.in.Close()
}
