package event

import "sync"

// Event is one decoded input event. Decoding from the platform layer
// happens outside this package.
type Event interface{ isEvent() }

type Resize struct{ W, H int }

type Quit struct{}

type Key struct {
	Code    KeyCode
	Pressed bool
}

type MouseMove struct{ DX, DY float32 }

func (Resize) isEvent()    {}
func (Quit) isEvent()      {}
func (Key) isEvent()       {}
func (MouseMove) isEvent() {}

type KeyCode int

const (
	KeyForward KeyCode = iota
	KeyBack
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

// Queue buffers input events between platform callbacks and the frame
// loop. Poll drains the whole backlog in order, synchronously.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

func (q *Queue) Poll(fn func(Event)) {
	q.mu.Lock()
	batch := q.events
	q.events = nil
	q.mu.Unlock()
	for _, ev := range batch {
		fn(ev)
	}
}
