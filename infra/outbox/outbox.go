// Package outbox stores trade events durably until the broadcaster has
// handed them to the broker. Entries are keyed by trade sequence number so
// a scan returns them in the order they were produced.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrNotFound = errors.New("outbox: entry not found")
	ErrBadEntry = errors.New("outbox: malformed entry")
	ErrStaleSeq = errors.New("outbox: sequence already used")
)

type Entry struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Key         []byte
	Payload     []byte
}

// value layout: [state:1][retries:4][lastAttempt:8][keyLen:2][key][payload]
const metaSize = 1 + 4 + 8 + 2

func encodeEntry(e Entry) []byte {
	buf := make([]byte, metaSize+len(e.Key)+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	binary.BigEndian.PutUint16(buf[13:15], uint16(len(e.Key)))
	n := copy(buf[metaSize:], e.Key)
	copy(buf[metaSize+n:], e.Payload)
	return buf
}

// decodeEntry copies out of b; pebble owns the memory behind iterator values.
func decodeEntry(seq uint64, b []byte) (Entry, error) {
	if len(b) < metaSize {
		return Entry{}, fmt.Errorf("%w: seq %d: %d bytes", ErrBadEntry, seq, len(b))
	}
	kl := int(binary.BigEndian.Uint16(b[13:15]))
	if len(b) < metaSize+kl {
		return Entry{}, fmt.Errorf("%w: seq %d: key length %d", ErrBadEntry, seq, kl)
	}
	rest := b[metaSize:]
	return Entry{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Key:         append([]byte(nil), rest[:kl]...),
		Payload:     append([]byte(nil), rest[kl:]...),
	}, nil
}

const (
	keyPrefix = "trade/"
	// lastSeqKey holds the highest sequence ever stored, so numbering can
	// continue after delivered entries have been deleted.
	lastSeqKey = "meta/last-seq"
)

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(k []byte) (uint64, error) {
	if len(k) <= len(keyPrefix) {
		return 0, fmt.Errorf("%w: key %q", ErrBadEntry, k)
	}
	seq, err := strconv.ParseUint(string(k[len(keyPrefix):]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q", ErrBadEntry, k)
	}
	return seq, nil
}

type Outbox struct {
	db    *pebble.DB
	write *pebble.WriteOptions
}

type Options struct {
	// NoSync skips the fsync on every write.
	NoSync bool
}

func Open(dir string, opts Options) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("outbox: open %s: %w", dir, err)
	}
	w := pebble.Sync
	if opts.NoSync {
		w = pebble.NoSync
	}
	return &Outbox{db: db, write: w}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Put stores new entries in one atomic batch. A sequence number at or below
// LastSeq is refused: it could overwrite an entry not yet delivered.
func (o *Outbox) Put(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	last, err := o.LastSeq()
	if err != nil {
		return err
	}

	b := o.db.NewBatch()
	defer b.Close()
	for _, e := range entries {
		if e.Seq <= last {
			return fmt.Errorf("outbox: %w: %d after %d", ErrStaleSeq, e.Seq, last)
		}
		last = e.Seq
		e.State = StateNew
		e.Retries = 0
		e.LastAttempt = 0
		if err := b.Set(keyFor(e.Seq), encodeEntry(e), nil); err != nil {
			return fmt.Errorf("outbox: put %d: %w", e.Seq, err)
		}
	}
	var hw [8]byte
	binary.BigEndian.PutUint64(hw[:], last)
	if err := b.Set([]byte(lastSeqKey), hw[:], nil); err != nil {
		return fmt.Errorf("outbox: put: %w", err)
	}
	return b.Commit(o.write)
}

// LastSeq returns the highest sequence number ever stored, 0 for a new
// outbox.
func (o *Outbox) LastSeq() (uint64, error) {
	val, closer, err := o.db.Get([]byte(lastSeqKey))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("outbox: last seq: %w", err)
	}
	defer closer.Close()
	if len(val) != 8 {
		return 0, fmt.Errorf("%w: last seq: %d bytes", ErrBadEntry, len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func (o *Outbox) Get(seq uint64) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, seq)
	}
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()
	return decodeEntry(seq, val)
}

// Mark moves an entry to state and records the attempt.
func (o *Outbox) Mark(seq uint64, state State, retries uint32) error {
	e, err := o.Get(seq)
	if err != nil {
		return err
	}
	e.State = state
	e.Retries = retries
	e.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(seq), encodeEntry(e), o.write)
}

func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), o.write)
}

// ScanPending calls fn, in sequence order, for up to limit entries that have
// not been acknowledged. SENT entries are included: a crash between send and
// ack means the broker may or may not have them, and delivery is at least once.
// A limit of zero means no limit.
func (o *Outbox) ScanPending(limit int, fn func(Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeEntry(seq, iter.Value())
		if err != nil {
			return err
		}
		if e.State == StateAcked {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return iter.Error()
}
