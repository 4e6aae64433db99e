package journal

import (
	"encoding/binary"
	"hash/crc32"
)

type RecordType uint8

const (
	RecordPlace RecordType = iota + 1
	RecordCancel
	RecordModify
	RecordPrint
)

// Record is one journaled command. Data is the command's canonical line.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

// Frame: [type:1][seq:8][time:8][len:4][payload][crc:4]
// The CRC covers header and payload.
const (
	headerSize = 1 + 8 + 8 + 4
	crcSize    = 4
)

func (r *Record) frame() []byte {
	n := uint32(len(r.Data))
	buf := make([]byte, headerSize+int(n)+crcSize)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], n)
	copy(buf[headerSize:], r.Data)

	sum := crc32.ChecksumIEEE(buf[:headerSize+int(n)])
	binary.BigEndian.PutUint32(buf[headerSize+int(n):], sum)
	return buf
}
