package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	assert.Zero(t, s.Current())
	assert.Equal(t, uint64(1), s.Next())
	assert.Equal(t, uint64(2), s.Next())
	assert.Equal(t, uint64(2), s.Current())
}

func TestSequencerReset(t *testing.T) {
	s := New(10)
	assert.Equal(t, uint64(11), s.Next())
	s.Reset(41)
	assert.Equal(t, uint64(42), s.Next())
}
