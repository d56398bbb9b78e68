package gpu

import (
	"sync"
	"time"
)

// Fence reports completion of one piece of device work. Done is closed
// exactly once; Err is meaningful only after Done is closed.
type Fence interface {
	Done() <-chan struct{}
	Err() error
}

// Signal is a fence completed by the backend that scheduled the work.
type Signal struct {
	ch   chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Complete closes the fence. Later calls are no-ops.
func (s *Signal) Complete(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.ch)
	})
}

func (s *Signal) Done() <-chan struct{} { return s.ch }

func (s *Signal) Err() error {
	select {
	case <-s.ch:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.err
	default:
		return nil
	}
}

var signaledCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

type signaledFence struct{}

func (signaledFence) Done() <-chan struct{} { return signaledCh }
func (signaledFence) Err() error            { return nil }

// Signaled returns a fence that is already complete.
func Signaled() Fence { return signaledFence{} }

// WaitFence blocks until f completes or the timeout elapses. A zero timeout
// means wait forever.
func WaitFence(f Fence, timeout time.Duration) error {
	if timeout <= 0 {
		<-f.Done()
		return f.Err()
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-f.Done():
		return f.Err()
	case <-t.C:
		return ErrFenceTimeout
	}
}
