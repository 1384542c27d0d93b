package shell

import (
	"sync"

	"github.com/roach88/storefront/internal/viewmodel"
)

// EventType distinguishes event kinds.
type EventType int

const (
	// EventInput carries one line typed by the user, or EOF.
	EventInput EventType = iota + 1
	// EventListState carries a new catalog list state.
	EventListState
	// EventDetailState carries a new detail state.
	EventDetailState
	// EventFormState carries a new form state.
	EventFormState
	// EventNotice carries a transient message.
	EventNotice
	// EventNavigate carries a navigation request.
	EventNavigate
	// EventPrompt carries a confirmation request awaiting an answer.
	EventPrompt
	// EventOpDone reports that a background operation finished.
	EventOpDone
)

// Event is one unit of work for the loop.
type Event struct {
	Type EventType

	Line string
	EOF  bool

	List   viewmodel.ListState
	Detail viewmodel.DetailState
	Form   viewmodel.FormState
	Source any // view-model that produced a detail or form state

	Notice viewmodel.Notice

	Screen viewmodel.Screen
	Params viewmodel.Params
	Back   bool

	Prompt viewmodel.Prompt
	Answer chan<- bool
}

// eventQueue is a thread-safe, unbounded FIFO queue for events.
//
// View-model goroutines enqueue state changes, notices and navigation
// requests; the Run loop dequeues. A buffered signal channel of size 1
// lets the loop wait on the queue and on its context at the same time.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue. It returns false once
// the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that signals when events may be available. It
// is closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops accepting events and wakes the loop.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
