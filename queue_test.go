package uthread

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueues_Ready(t *testing.T) {
	q := newQueues(4)
	for _, id := range []int{0, 1, 2, 3} {
		q.pushBack(id)
	}
	assert.Equal(t, 0, q.front())

	q.rotate()
	assert.Equal(t, []int{1, 2, 3, 0}, q.snapshotReady())

	assert.True(t, q.removeReady(2))
	assert.False(t, q.removeReady(2))
	assert.Equal(t, []int{1, 3, 0}, q.snapshotReady())

	assert.Equal(t, 1, q.popFront())
	assert.Equal(t, 2, q.readyLen())
}

func TestQueues_RotateSingle(t *testing.T) {
	q := newQueues(1)
	q.pushBack(0)
	q.rotate()
	assert.Equal(t, []int{0}, q.snapshotReady())
}

func TestQueues_SnapshotIsCopy(t *testing.T) {
	q := newQueues(2)
	q.pushBack(0)
	q.pushBack(1)
	s := q.snapshotReady()
	s[0] = 9
	assert.Equal(t, 0, q.front())
}

func TestQueues_Due(t *testing.T) {
	q := newQueues(8)
	q.sleep(5, 10)
	q.sleep(2, 10)
	q.sleep(7, 8)
	q.sleep(1, 12)
	q.sleep(3, 9)

	assert.Empty(t, q.due(7))
	assert.Equal(t, []int{7}, q.due(8))
	assert.Equal(t, []int{2, 3, 5, 7}, q.due(10))
	assert.Equal(t, []int{1, 2, 3, 5, 7}, q.due(100))

	q.unsleep(3)
	_, ok := q.wakeAt(3)
	assert.False(t, ok)
	at, ok := q.wakeAt(1)
	assert.True(t, ok)
	assert.Equal(t, 12, at)
}

func TestQueues_Blocked(t *testing.T) {
	q := newQueues(2)
	q.block(4)
	q.block(4)
	assert.Len(t, q.blocked, 1)
	q.unblock(4)
	q.unblock(4)
	assert.Empty(t, q.blocked)
}
