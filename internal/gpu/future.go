package gpu

import "time"

// PendingWork is a chain token for in-flight device operations. Exactly one
// token is current at a time; every operation returns the new token and the
// caller discards the old one. A zero-length chain is the "now" token.
type PendingWork struct {
	fences []Fence
}

// Now returns an empty chain token: nothing outstanding.
func Now() *PendingWork { return &PendingWork{} }

// FromFence wraps a single fence as a chain token.
func FromFence(f Fence) *PendingWork {
	return &PendingWork{fences: []Fence{f}}
}

// Join merges two chains into one token covering both.
func (w *PendingWork) Join(other *PendingWork) *PendingWork {
	merged := make([]Fence, 0, len(w.fences)+len(other.fences))
	merged = append(merged, w.fences...)
	merged = append(merged, other.fences...)
	return &PendingWork{fences: merged}
}

// ExecuteThen schedules cb on q after everything in the chain and returns
// the extended chain.
func (w *PendingWork) ExecuteThen(q Queue, cb *CommandBuffer) (*PendingWork, error) {
	f, err := q.Execute(cb, w.fences...)
	if err != nil {
		return nil, err
	}
	next := make([]Fence, 0, len(w.fences)+1)
	next = append(next, w.fences...)
	next = append(next, f)
	return &PendingWork{fences: next}, nil
}

// SignalAndFlush returns one fence that completes when the whole chain has.
func (w *PendingWork) SignalAndFlush() Fence {
	if len(w.fences) == 0 {
		return Signaled()
	}
	s := NewSignal()
	fences := w.fences
	go func() {
		var firstErr error
		for _, f := range fences {
			<-f.Done()
			if err := f.Err(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		s.Complete(firstErr)
	}()
	return s
}

// Wait blocks until the chain completes. A zero timeout waits forever.
func (w *PendingWork) Wait(timeout time.Duration) error {
	return WaitFence(w.SignalAndFlush(), timeout)
}

// ReclaimCompleted prunes fences that have already signaled so the chain
// does not grow without bound across frames.
func (w *PendingWork) ReclaimCompleted() {
	live := w.fences[:0]
	for _, f := range w.fences {
		select {
		case <-f.Done():
		default:
			live = append(live, f)
		}
	}
	w.fences = live
}

// Outstanding reports how many chain segments have not yet signaled.
func (w *PendingWork) Outstanding() int {
	n := 0
	for _, f := range w.fences {
		select {
		case <-f.Done():
		default:
			n++
		}
	}
	return n
}
