//go:build !linux

package uthread

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVirtualTimer_Unavailable(t *testing.T) {
	x, err := NewVirtualTimer()
	assert.Nil(t, x)
	assert.ErrorIs(t, err, ErrSignal)
	var sys *SystemResourceError
	assert.ErrorAs(t, err, &sys)
}
