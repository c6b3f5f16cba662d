package xrsim

import "sync"

// EventType tags the kind of notification delivered by PollEvent.
type EventType int

const (
	// EventSessionStateChanged reports a session lifecycle transition.
	EventSessionStateChanged EventType = iota + 1
)

// Event is an asynchronous runtime notification. Events are delivered in
// the exact order their triggering calls occurred, exactly once each.
type Event struct {
	Type    EventType
	Session SessionHandle
	State   SessionState
	Time    Time
}

// eventQueue is an ordered FIFO of pending events. Access is serialized
// with a mutex because window-system callbacks (focus changes, close
// requests) produce events from outside the client's polling thread.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
}

// push appends an event to the tail.
func (q *eventQueue) push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// poll removes and returns the head event. The second return is false when
// the queue is empty. No coalescing: consecutive duplicate state changes
// are delivered individually.
func (q *eventQueue) poll() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	q.events = q.events[1:]
	return e, true
}

// len returns the number of pending events.
func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// PollEvent removes and returns the oldest pending event. When the queue
// is empty it returns ErrEventUnavailable — a status, not a failure — and
// never blocks.
func (r *Runtime) PollEvent() (Event, error) {
	e, ok := r.events.poll()
	if !ok {
		return Event{}, resultErr("PollEvent", CodeEventUnavailable)
	}
	Logger().Debug("event delivered", "type", e.Type, "state", e.State.String(), "pending", r.events.len())
	return e, nil
}
