// Package journal records accepted commands in append-only, CRC-framed
// segment files. A journal directory holds one session; Replay feeds the
// records back in order so the session's output can be reproduced.
package journal

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const DefaultSegmentSize = 64 << 20

var ErrClosed = errors.New("journal: closed")

type Config struct {
	Dir         string
	SegmentSize int64
	// SyncEvery fsyncs the active segment after every append.
	SyncEvery bool
}

type Journal struct {
	dir       string
	segSize   int64
	syncEvery bool

	current  *segment
	segIndex int
	lastSeq  uint64
}

// Open creates dir if needed. Writing continues in a new segment after any
// that already exist, so earlier records are never overwritten.
func Open(cfg Config) (*Journal, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = DefaultSegmentSize
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	existing, err := segments(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	index := len(existing)

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	return &Journal{
		dir:       cfg.Dir,
		segSize:   cfg.SegmentSize,
		syncEvery: cfg.SyncEvery,
		current:   seg,
		segIndex:  index,
	}, nil
}

func (j *Journal) Dir() string { return j.dir }

// Append writes r. Sequence numbers must increase; a record stamped with a
// zero Time gets the current time.
func (j *Journal) Append(r *Record) error {
	if j.current == nil {
		return ErrClosed
	}
	if r.Seq <= j.lastSeq {
		return fmt.Errorf("journal: %w: %d after %d", ErrNonMonotonic, r.Seq, j.lastSeq)
	}
	if r.Time == 0 {
		r.Time = time.Now().UnixNano()
	}

	if err := j.current.append(r.frame()); err != nil {
		return fmt.Errorf("journal: append seq %d: %w", r.Seq, err)
	}
	j.lastSeq = r.Seq

	if j.syncEvery {
		if err := j.current.sync(); err != nil {
			return fmt.Errorf("journal: sync: %w", err)
		}
	}
	if j.current.offset >= j.segSize {
		return j.rotate()
	}
	return nil
}

func (j *Journal) rotate() error {
	if err := j.current.close(); err != nil {
		return fmt.Errorf("journal: rotate: %w", err)
	}
	j.segIndex++

	seg, err := openSegment(j.dir, j.segIndex)
	if err != nil {
		j.current = nil
		return fmt.Errorf("journal: rotate: %w", err)
	}
	j.current = seg
	return nil
}

func (j *Journal) Close() error {
	if j.current == nil {
		return nil
	}
	seg := j.current
	j.current = nil
	if err := seg.sync(); err != nil {
		_ = seg.close()
		return err
	}
	return seg.close()
}
