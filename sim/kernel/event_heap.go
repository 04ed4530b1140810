package kernel

import "container/heap"

// Event priority classes for events sharing a timestamp (lower first).
const (
	priorityResume  = 0 // process start, store delivery, resource grant wakeups
	priorityTimeout = 1 // Delay expirations
	priorityGrant   = 2 // resource grant decisions, after all same-instant requests
)

// event is a timed callback executed by the dispatcher loop.
type event struct {
	time     float64
	priority int
	seqID    uint64
	fire     func()
}

// eventHeap implements a priority queue with deterministic ordering.
// Ordering: timestamp → priority class → sequence ID.
type eventHeap struct {
	events []*event
}

func newEventHeap() *eventHeap {
	h := &eventHeap{events: make([]*event, 0)}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *eventHeap) Len() int { return len(h.events) }

// Less implements heap.Interface with deterministic ordering
func (h *eventHeap) Less(i, j int) bool {
	ei, ej := h.events[i], h.events[j]
	if ei.time != ej.time {
		return ei.time < ej.time
	}
	if ei.priority != ej.priority {
		return ei.priority < ej.priority
	}
	return ei.seqID < ej.seqID
}

// Swap implements heap.Interface
func (h *eventHeap) Swap(i, j int) { h.events[i], h.events[j] = h.events[j], h.events[i] }

// Push implements heap.Interface
func (h *eventHeap) Push(x any) { h.events = append(h.events, x.(*event)) }

// Pop implements heap.Interface
func (h *eventHeap) Pop() any {
	old := h.events
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.events = old[:n-1]
	return item
}

func (h *eventHeap) schedule(e *event) { heap.Push(h, e) }

func (h *eventHeap) popNext() *event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*event)
}

func (h *eventHeap) peek() *event {
	if h.Len() == 0 {
		return nil
	}
	return h.events[0]
}
