package hostsim

import (
	"container/heap"

	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
)

// scheduledInput is one pending input in the queue
type scheduledInput struct {
	input models.InputEvent
	seq   int // insertion order, breaks ties between inputs at the same time
}

// InputQueue is a priority queue of inputs ordered by time, then insertion order.
// It is not safe for concurrent use; Sim serializes access.
type InputQueue struct {
	items []*scheduledInput
	next  int
}

// NewInputQueue creates an empty queue
func NewInputQueue() *InputQueue {
	q := &InputQueue{items: make([]*scheduledInput, 0)}
	heap.Init(q)
	return q
}

// Len returns the number of pending inputs
func (q *InputQueue) Len() int {
	return len(q.items)
}

// Less orders by time, then by insertion order
func (q *InputQueue) Less(i, j int) bool {
	if q.items[i].input.Time != q.items[j].input.Time {
		return q.items[i].input.Time < q.items[j].input.Time
	}
	return q.items[i].seq < q.items[j].seq
}

// Swap swaps two inputs in the queue
func (q *InputQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

// Push implements heap.Interface
func (q *InputQueue) Push(x interface{}) {
	q.items = append(q.items, x.(*scheduledInput))
}

// Pop implements heap.Interface
func (q *InputQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[0 : n-1]
	return item
}

// Schedule adds an input
func (q *InputQueue) Schedule(e models.InputEvent) {
	heap.Push(q, &scheduledInput{input: e, seq: q.next})
	q.next++
}

// Peek returns the earliest input without removing it
func (q *InputQueue) Peek() (models.InputEvent, bool) {
	if q.Len() == 0 {
		return models.InputEvent{}, false
	}
	return q.items[0].input, true
}

// Due removes and returns every input scheduled at or before t, in order
func (q *InputQueue) Due(t int64) []models.InputEvent {
	var due []models.InputEvent
	for q.Len() > 0 && q.items[0].input.Time <= t {
		due = append(due, heap.Pop(q).(*scheduledInput).input)
	}
	return due
}

// Clear removes every pending input
func (q *InputQueue) Clear() {
	q.items = make([]*scheduledInput, 0)
	q.next = 0
	heap.Init(q)
}

// IsEmpty reports whether no input is pending
func (q *InputQueue) IsEmpty() bool {
	return q.Len() == 0
}
