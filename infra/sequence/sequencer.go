package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing sequence numbers. Next is called
// only from the engine goroutine; Current may be read from anywhere.
type Sequencer struct {
	last atomic.Uint64
}

// New starts after start: the first Next returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued number, 0 if none.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset moves the sequencer to v so numbering continues after v; used to
// resume trade numbers from the outbox.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}
