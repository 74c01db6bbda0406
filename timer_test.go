package uthread

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualTimer(t *testing.T) {
	x := NewManualTimer()
	assert.False(t, x.Armed())
	assert.False(t, x.Expire())

	var fired int
	require.NoError(t, x.Arm(5*time.Millisecond, func() { fired++ }))
	assert.True(t, x.Armed())
	assert.Equal(t, 5*time.Millisecond, x.Last())
	assert.Equal(t, 1, x.Arms())

	assert.True(t, x.Expire())
	assert.Equal(t, 1, fired)
	assert.False(t, x.Armed(), `one-shot`)
	assert.False(t, x.Expire())
	assert.Equal(t, 1, fired)

	require.NoError(t, x.Arm(time.Millisecond, func() { fired += 10 }))
	require.NoError(t, x.Stop())
	assert.False(t, x.Expire())
	assert.Equal(t, 1, fired)
	assert.Equal(t, 2, x.Arms())
}

func TestManualTimer_RearmReplaces(t *testing.T) {
	x := NewManualTimer()
	var first, second int
	require.NoError(t, x.Arm(time.Millisecond, func() { first++ }))
	require.NoError(t, x.Arm(2*time.Millisecond, func() { second++ }))
	assert.True(t, x.Expire())
	assert.Zero(t, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 2*time.Millisecond, x.Last())
}

func TestRealTimer_Fires(t *testing.T) {
	x := NewRealTimer()
	defer x.Stop()

	fired := make(chan struct{}, 1)
	require.NoError(t, x.Arm(time.Millisecond, func() { fired <- struct{}{} }))
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal(`timer did not fire`)
	}
}

func TestRealTimer_RearmReplaces(t *testing.T) {
	x := NewRealTimer()
	defer x.Stop()

	var stale atomic.Int32
	fired := make(chan struct{}, 1)
	require.NoError(t, x.Arm(time.Hour, func() { stale.Add(1) }))
	require.NoError(t, x.Arm(time.Millisecond, func() { fired <- struct{}{} }))
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal(`timer did not fire`)
	}
	assert.Zero(t, stale.Load())
}

func TestRealTimer_Stop(t *testing.T) {
	x := NewRealTimer()
	var fired atomic.Int32
	require.NoError(t, x.Arm(20*time.Millisecond, func() { fired.Add(1) }))
	require.NoError(t, x.Stop())
	require.NoError(t, x.Stop())
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestScheduler_RealTimerPreempts(t *testing.T) {
	exit := make(chan int, 1)
	var counts [3]atomic.Int64
	go func() {
		s, err := New(1000, WithLogger(nil), WithExit(func(code int) { exit <- code }))
		if !assert.NoError(t, err) {
			exit <- -1
			return
		}
		for i := 1; i < 3; i++ {
			_, err := s.Spawn(func() {
				for {
					counts[s.CurrentID()].Add(1)
					s.Checkpoint()
				}
			})
			assert.NoError(t, err)
		}
		for s.TotalQuantums() < 10 {
			counts[0].Add(1)
			s.Checkpoint()
		}
		_ = s.Terminate(0)
	}()
	select {
	case code := <-exit:
		assert.Equal(t, 0, code)
	case <-time.After(10 * time.Second):
		t.Fatal(`scheduler did not exit`)
	}
	for i := range counts {
		assert.NotZero(t, counts[i].Load(), `thread %d never ran`, i)
	}
}
