package sim

import "container/heap"

// pendingEvent is a scheduled trace event plus its scheduling sequence number.
type pendingEvent struct {
	ev  Event
	seq uint64
}

// EventHeap holds trace events not yet applied. Events pop in tick order;
// events sharing a tick pop by EventTypePriority, then in scheduling order,
// so a trace replays identically on every run.
type EventHeap struct {
	pending []pendingEvent
	seq     uint64
}

// NewEventHeap creates an empty EventHeap.
func NewEventHeap() *EventHeap {
	return &EventHeap{}
}

func (h *EventHeap) Len() int { return len(h.pending) }

func (h *EventHeap) Less(i, j int) bool {
	a, b := h.pending[i], h.pending[j]
	if ta, tb := a.ev.Timestamp(), b.ev.Timestamp(); ta != tb {
		return ta < tb
	}
	if pa, pb := EventTypePriority[a.ev.Type()], EventTypePriority[b.ev.Type()]; pa != pb {
		return pa < pb
	}
	return a.seq < b.seq
}

func (h *EventHeap) Swap(i, j int) { h.pending[i], h.pending[j] = h.pending[j], h.pending[i] }

// Push is for container/heap; use Schedule.
func (h *EventHeap) Push(x any) { h.pending = append(h.pending, x.(pendingEvent)) }

// Pop is for container/heap; use PopNext.
func (h *EventHeap) Pop() any {
	last := len(h.pending) - 1
	item := h.pending[last]
	h.pending = h.pending[:last]
	return item
}

// Schedule adds an event.
func (h *EventHeap) Schedule(e Event) {
	heap.Push(h, pendingEvent{ev: e, seq: h.seq})
	h.seq++
}

// PopNext removes and returns the next event, or nil when empty.
func (h *EventHeap) PopNext() Event {
	if len(h.pending) == 0 {
		return nil
	}
	return heap.Pop(h).(pendingEvent).ev
}

// Peek returns the next event without removing it, or nil when empty.
func (h *EventHeap) Peek() Event {
	if len(h.pending) == 0 {
		return nil
	}
	return h.pending[0].ev
}
