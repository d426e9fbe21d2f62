// ABOUTME: Heap orderings for the task queue
// ABOUTME: Delay heap by scheduled time and ready heap by priority, both tracking entry indexes
package queue

import "github.com/DoniaKassem/AIRevenueOrc-sub002/models"

type location int

const (
	inNone location = iota
	inDelayed
	inReady
)

type entry struct {
	task  *models.Task
	seq   uint64
	index int
	where location
}

// delayHeap orders by scheduled time, then insertion order.
type delayHeap []*entry

func (h delayHeap) Len() int { return len(h) }

func (h delayHeap) Less(i, j int) bool {
	a, b := h[i].task.ScheduledFor, h[j].task.ScheduledFor
	if a.Equal(b) {
		return h[i].seq < h[j].seq
	}
	return a.Before(b)
}

func (h delayHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *delayHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	e.where = inDelayed
	*h = append(*h, e)
}

func (h *delayHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	e.index = -1
	e.where = inNone
	return e
}

// readyHeap orders by priority descending, then insertion order.
type readyHeap []*entry

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].task.Priority == h[j].task.Priority {
		return h[i].seq < h[j].seq
	}
	return h[i].task.Priority > h[j].task.Priority
}

func (h readyHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *readyHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	e.where = inReady
	*h = append(*h, e)
}

func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	e.index = -1
	e.where = inNone
	return e
}
