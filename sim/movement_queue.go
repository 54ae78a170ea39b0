package sim

import "container/heap"

// queuedMovement is a movement waiting in the port's pending queue.
// Due differs from the movement's own time once it has been retried.
type queuedMovement struct {
	Movement Movement
	Due      int64
	Attempts int
	seq      uint64
}

// MovementQueue is a priority queue of pending movements.
// Ordering: due time → insertion sequence, so movements due at the same
// minute are dequeued in the order they were pushed.
type MovementQueue struct {
	entries []*queuedMovement
	nextSeq uint64
}

// NewMovementQueue creates an empty queue.
func NewMovementQueue() *MovementQueue {
	q := &MovementQueue{
		entries: make([]*queuedMovement, 0),
	}
	heap.Init(q)
	return q
}

// Len implements heap.Interface
func (q *MovementQueue) Len() int {
	return len(q.entries)
}

// Less implements heap.Interface
func (q *MovementQueue) Less(i, j int) bool {
	ei, ej := q.entries[i], q.entries[j]
	if ei.Due != ej.Due {
		return ei.Due < ej.Due
	}
	return ei.seq < ej.seq
}

// Swap implements heap.Interface
func (q *MovementQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
}

// Push implements heap.Interface
func (q *MovementQueue) Push(x any) {
	q.entries = append(q.entries, x.(*queuedMovement))
}

// Pop implements heap.Interface
func (q *MovementQueue) Pop() any {
	old := q.entries
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.entries = old[0 : n-1]
	return item
}

// Enqueue adds a movement due at its own scheduled time.
func (q *MovementQueue) Enqueue(m Movement) {
	if m == nil {
		panic("Enqueue: movement must not be nil")
	}
	q.push(&queuedMovement{Movement: m, Due: m.Time()})
}

// push assigns a fresh sequence number, placing the entry behind everything
// already queued for the same minute.
func (q *MovementQueue) push(e *queuedMovement) {
	q.nextSeq++
	e.seq = q.nextSeq
	heap.Push(q, e)
}

// PeekDue returns the due time of the next entry. ok is false when empty.
func (q *MovementQueue) PeekDue() (due int64, ok bool) {
	if len(q.entries) == 0 {
		return 0, false
	}
	return q.entries[0].Due, true
}

// popNext removes and returns the next entry, or nil when empty.
func (q *MovementQueue) popNext() *queuedMovement {
	if len(q.entries) == 0 {
		return nil
	}
	return heap.Pop(q).(*queuedMovement)
}
