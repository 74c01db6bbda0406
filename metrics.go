package uthread

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slices"
)

// Metrics is a point-in-time copy of scheduler statistics.
//
// Thread Safety:
//   - Scheduler.Metrics may be called from any goroutine, including ones
//     that are not threads of the scheduler.
//   - The returned value is a copy, and is never mutated afterward.
//
// Example:
//
//	s, _ := New(10000, WithMetrics(true))
//	// ...
//	m := s.Metrics()
//	fmt.Printf("dispatches=%d preemptions=%d p99 slice=%v\n",
//		m.Dispatches, m.Preemptions, m.Slice.P99)
type Metrics struct {
	// Slice is the wall-clock duration threads held the permit, per dispatch.
	Slice SliceMetrics

	// Dispatches counts every dispatch, including a preempted thread being
	// redispatched because nothing else was ready.
	Dispatches uint64

	// Preemptions counts delivered quantum expiries.
	Preemptions uint64

	// Suspensions counts voluntary switches, via Block(self) or Sleep.
	Suspensions uint64

	// Wakeups counts sleepers moved out of the sleeping set.
	Wakeups uint64

	Spawned    uint64
	Terminated uint64
}

// SliceMetrics summarizes the most recent slice durations.
type SliceMetrics struct {
	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
	Max  time.Duration
	Mean time.Duration

	// Count is the number of samples the percentiles were computed from.
	Count int
}

// sampleSize is the maximum number of slice samples to retain.
const sampleSize = 1000

// metrics collects statistics. Counters may be read from any goroutine, and
// are only written by the permit holder.
type metrics struct {
	lastDispatch time.Time // permit holder only

	dispatches  atomic.Uint64
	preemptions atomic.Uint64
	suspensions atomic.Uint64
	wakeups     atomic.Uint64
	spawned     atomic.Uint64
	terminated  atomic.Uint64

	samples     [sampleSize]time.Duration
	sampleIdx   int
	sampleCount int
	mu          sync.Mutex
}

// dispatched records the end of the previous slice.
func (m *metrics) dispatched(now time.Time) {
	if m == nil {
		return
	}
	m.dispatches.Add(1)
	if !m.lastDispatch.IsZero() {
		m.record(now.Sub(m.lastDispatch))
	}
	m.lastDispatch = now
}

func (m *metrics) record(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[m.sampleIdx] = d
	m.sampleIdx++
	if m.sampleIdx >= sampleSize {
		m.sampleIdx = 0
	}
	if m.sampleCount < sampleSize {
		m.sampleCount++
	}
}

func (m *metrics) preempted() {
	if m != nil {
		m.preemptions.Add(1)
	}
}

func (m *metrics) suspended() {
	if m != nil {
		m.suspensions.Add(1)
	}
}

func (m *metrics) woke(n int) {
	if m != nil && n > 0 {
		m.wakeups.Add(uint64(n))
	}
}

func (m *metrics) spawn() {
	if m != nil {
		m.spawned.Add(1)
	}
}

func (m *metrics) terminate() {
	if m != nil {
		m.terminated.Add(1)
	}
}

// snapshot computes a Metrics copy.
func (m *metrics) snapshot() *Metrics {
	out := &Metrics{
		Dispatches:  m.dispatches.Load(),
		Preemptions: m.preemptions.Load(),
		Suspensions: m.suspensions.Load(),
		Wakeups:     m.wakeups.Load(),
		Spawned:     m.spawned.Load(),
		Terminated:  m.terminated.Load(),
	}

	m.mu.Lock()
	sorted := slices.Clone(m.samples[:m.sampleCount])
	m.mu.Unlock()

	if len(sorted) == 0 {
		return out
	}
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	out.Slice = SliceMetrics{
		P50:   sorted[percentileIndex(len(sorted), 50)],
		P90:   sorted[percentileIndex(len(sorted), 90)],
		P99:   sorted[percentileIndex(len(sorted), 99)],
		Max:   sorted[len(sorted)-1],
		Mean:  sum / time.Duration(len(sorted)),
		Count: len(sorted),
	}
	return out
}

// percentileIndex returns the index of the p-th percentile in a sorted slice
// of n elements (nearest rank).
func percentileIndex(n, p int) int {
	i := (n*p+99)/100 - 1
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
