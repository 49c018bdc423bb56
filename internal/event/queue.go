// Package event implements the discrete-event scheduler: a min-heap of
// (time, sequence)-ordered events driving a deterministic, single-threaded
// event loop (§3, §4.1, §4.2).
package event

import "container/heap"

// Action is invoked when its event fires. Actions run to completion
// without suspending — the only suspension point is returning control to
// the scheduler loop.
type Action func()

// evt is an immutable (time, seq, action) triple. Comparison is
// lexicographic on (time, seq); seq is the tiebreaker guaranteeing
// deterministic FIFO among events with identical timestamps.
type evt struct {
	time   float64
	seq    uint64
	action Action
}

// eventHeap implements heap.Interface ordered by (time, seq), adapted from
// the BFD scheduler's eventHeap in the teacher's liveness package.
type eventHeap []*evt

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time == h[j].time {
		return h[i].seq < h[j].seq
	}
	return h[i].time < h[j].time
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*evt)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// priorityQueue is a min-heap of events keyed by (time, seq). No
// decrease-key is supported — the scheduler never needs to reprioritize an
// already-queued event (§4.1).
type priorityQueue struct {
	h eventHeap
}

func newPriorityQueue() *priorityQueue {
	pq := &priorityQueue{}
	heap.Init(&pq.h)
	return pq
}

func (q *priorityQueue) enqueue(e *evt) { heap.Push(&q.h, e) }

func (q *priorityQueue) dequeue() *evt {
	if q.h.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*evt)
}

func (q *priorityQueue) peek() *evt {
	if q.h.Len() == 0 {
		return nil
	}
	return q.h[0]
}

func (q *priorityQueue) empty() bool { return q.h.Len() == 0 }

func (q *priorityQueue) size() int { return q.h.Len() }
