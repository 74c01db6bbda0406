package uthread

import (
	"golang.org/x/exp/slices"
)

// thread is the record of a single user-level thread.
type thread struct {
	ctx *snapshot

	id       int
	state    ThreadState
	quantums int

	// set once the thread was removed from the scheduler
	retired bool
}

// registry owns every live thread record, keyed by identifier.
//
// Identifiers are allocated from a watermark: the watermark is always either
// free or equal to the capacity. Allocation returns it and advances it to the
// next unused identifier above. Freeing an identifier below the watermark
// lowers the watermark to it.
type registry struct {
	threads   map[int]*thread
	watermark int
	capacity  int
}

func newRegistry(capacity int) *registry {
	return &registry{
		threads:   make(map[int]*thread, capacity),
		watermark: 1, // 0 is reserved for the main thread
		capacity:  capacity,
	}
}

func (r *registry) get(id int) (*thread, bool) {
	t, ok := r.threads[id]
	return t, ok
}

// allocateID reserves the smallest free identifier at or above the
// watermark, failing if the capacity is reached.
func (r *registry) allocateID() (int, bool) {
	if r.watermark >= r.capacity {
		return -1, false
	}
	id := r.watermark
	next := id + 1
	for next < r.capacity {
		if _, ok := r.threads[next]; !ok {
			break
		}
		next++
	}
	r.watermark = next
	return id, true
}

// freeID makes id eligible for reuse.
func (r *registry) freeID(id int) {
	if id < r.watermark {
		r.watermark = id
	}
}

// create registers a READY thread with a seeded snapshot.
func (r *registry) create(id int, ctx *snapshot) *thread {
	t := &thread{
		id:    id,
		state: StateReady,
		ctx:   ctx,
	}
	r.threads[id] = t
	return t
}

func (r *registry) destroy(id int) {
	delete(r.threads, id)
}

// sorted returns the live identifiers in ascending order.
func (r *registry) sorted() []int {
	ids := make([]int, 0, len(r.threads))
	for id := range r.threads {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
