package build

import "sync"

// Handle is the caller's view of a running build.
type Handle struct {
	ID string

	events     <-chan Event
	release    func()
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
}

func newHandle(id string, q *eventQueue) *Handle {
	return &Handle{
		ID:      id,
		events:  q.out,
		release: q.release,
		cancel:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Events returns the ordered event stream. It ends with exactly one terminal
// event and is then closed.
func (h *Handle) Events() <-chan Event {
	return h.events
}

// Cancel asks the build to stop. It is safe to call more than once and after
// the build finished. The Cancelled event follows only once the compiler exited.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() { close(h.cancel) })
}

// Close cancels the build if it is still running and discards every event
// not yet read; Events is closed without a terminal event. Callers that stop
// reading the stream must call Close so its buffer can be freed.
func (h *Handle) Close() {
	h.Cancel()
	h.release()
}

// Done is closed when the worker has finished, after the terminal event was queued.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) cancelRequested() bool {
	select {
	case <-h.cancel:
		return true
	default:
		return false
	}
}

// Drain reads the stream to the end and returns every event.
func Drain(h *Handle) []Event {
	var events []Event
	for e := range h.Events() {
		events = append(events, e)
	}
	return events
}
