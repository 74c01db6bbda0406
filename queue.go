package uthread

import (
	"golang.org/x/exp/slices"
)

// queues holds every thread that is neither terminated nor, apart from the
// ready-queue front, running. The three structures are pairwise disjoint.
type queues struct {
	// FIFO, the front is the running thread
	ready []int

	blocked map[int]struct{}

	// identifier to absolute wake-at quantum
	sleeping map[int]int
}

func newQueues(capacity int) *queues {
	return &queues{
		ready:    make([]int, 0, capacity),
		blocked:  make(map[int]struct{}),
		sleeping: make(map[int]int),
	}
}

// front returns the identifier of the running thread.
func (q *queues) front() int {
	return q.ready[0]
}

func (q *queues) readyLen() int {
	return len(q.ready)
}

func (q *queues) pushBack(id int) {
	q.ready = append(q.ready, id)
}

func (q *queues) popFront() int {
	id := q.ready[0]
	q.ready = slices.Delete(q.ready, 0, 1)
	return id
}

// rotate moves the front to the back.
func (q *queues) rotate() {
	if len(q.ready) > 1 {
		q.pushBack(q.popFront())
	}
}

// removeReady removes id from anywhere in the ready queue.
func (q *queues) removeReady(id int) bool {
	i := slices.Index(q.ready, id)
	if i < 0 {
		return false
	}
	q.ready = slices.Delete(q.ready, i, i+1)
	return true
}

func (q *queues) block(id int) {
	q.blocked[id] = struct{}{}
}

func (q *queues) unblock(id int) {
	delete(q.blocked, id)
}

func (q *queues) sleep(id, wakeAt int) {
	q.sleeping[id] = wakeAt
}

func (q *queues) unsleep(id int) {
	delete(q.sleeping, id)
}

// due returns the sleepers whose wake-at quantum has been reached, in
// ascending identifier order.
func (q *queues) due(total int) []int {
	var ids []int
	for id, at := range q.sleeping {
		if at <= total {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
