package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

var (
	ErrCorrupt      = errors.New("journal: corrupt record")
	ErrNonMonotonic = errors.New("journal: non-monotonic sequence")
)

type ReplayHandler func(*Record) error

// Replay reads every segment in dir in order and calls fn for each record.
// It stops at the first corrupt or truncated record, or at the first error
// returned by fn, and reports the last sequence number it delivered.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := segments(dir)
	if err != nil {
		return 0, err
	}

	for _, path := range files {
		lastSeq, err = replaySegment(path, lastSeq, fn)
		if err != nil {
			return lastSeq, err
		}
	}
	return lastSeq, nil
}

func replaySegment(path string, lastSeq uint64, fn ReplayHandler) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return lastSeq, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		rec, err := readRecord(r)
		if errors.Is(err, io.EOF) {
			return lastSeq, nil
		}
		if err != nil {
			return lastSeq, fmt.Errorf("%s: %w", path, err)
		}

		if rec.Seq <= lastSeq {
			return lastSeq, fmt.Errorf("%s: %w: %d after %d", path, ErrNonMonotonic, rec.Seq, lastSeq)
		}
		if err := fn(rec); err != nil {
			return lastSeq, err
		}
		lastSeq = rec.Seq
	}
}

// readRecord returns io.EOF only on a clean record boundary.
func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
		}
		return nil, err
	}

	n := binary.BigEndian.Uint32(header[17:21])
	body := make([]byte, int(n)+crcSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorrupt)
	}

	payload := body[:n]
	h := crc32.NewIEEE()
	h.Write(header)
	h.Write(payload)
	if h.Sum32() != binary.BigEndian.Uint32(body[n:]) {
		return nil, fmt.Errorf("%w: crc mismatch", ErrCorrupt)
	}

	return &Record{
		Type: RecordType(header[0]),
		Seq:  binary.BigEndian.Uint64(header[1:9]),
		Time: int64(binary.BigEndian.Uint64(header[9:17])),
		Data: payload,
	}, nil
}
