package protocol

import (
	"errors"
	"sync"
)

// ErrLinkClosed means the peer endpoint is gone. The render thread treats
// this as fatal: the worker died or was never started.
var ErrLinkClosed = errors.New("protocol: link closed")

// Queue is an unbounded ordered single-producer/single-consumer message
// queue. FIFO; no duplication, no reordering.
type Queue struct {
	mu     sync.Mutex
	items  []ClientMessage
	closed bool

	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Send appends m. It never blocks; it fails only when the queue is closed.
func (q *Queue) Send(m ClientMessage) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrLinkClosed
	}
	q.items = append(q.items, m)
	q.mu.Unlock()
	q.wake()
	return nil
}

// TryRecv pops the oldest message without blocking.
func (q *Queue) TryRecv() (ClientMessage, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	m := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	rest := len(q.items)
	q.mu.Unlock()
	if rest > 0 {
		q.wake()
	}
	return m, true
}

// Ready is signaled whenever the queue may be non-empty. Consumers select
// on it together with their cancellation channel, then drain with TryRecv.
func (q *Queue) Ready() <-chan struct{} { return q.notify }

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
