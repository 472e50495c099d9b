package build

import "sync"

// eventQueue is an unbounded FIFO between the worker and the consumer.
// push never waits on the consumer, so a slow or absent reader cannot stall
// the compiler pipes.
type eventQueue struct {
	in  chan Event
	out chan Event

	quit     chan struct{}
	quitOnce sync.Once
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		in:   make(chan Event),
		out:  make(chan Event),
		quit: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *eventQueue) run() {
	defer close(q.out)

	var pending []Event
	in := q.in
	for in != nil || len(pending) > 0 {
		var out chan Event
		var next Event
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}

		select {
		case e, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, e)
		case out <- next:
			pending[0] = nil
			pending = pending[1:]
		case <-q.quit:
			return
		}
	}
}

func (q *eventQueue) push(e Event) {
	select {
	case q.in <- e:
	case <-q.quit:
	}
}

// close ends the stream once every pushed event has been delivered.
func (q *eventQueue) close() {
	close(q.in)
}

// release drops undelivered events and closes the stream right away.
func (q *eventQueue) release() {
	q.quitOnce.Do(func() { close(q.quit) })
}
