package entry

import "time"

type RecordType uint8

const (
	RecordPlace RecordType = iota
	RecordCancel
	RecordModify
)

func (t RecordType) String() string {
	switch t {
	case RecordPlace:
		return "place"
	case RecordCancel:
		return "cancel"
	case RecordModify:
		return "modify"
	default:
		return "unknown"
	}
}

// Record is one journaled command. Data is the encoded command.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

// Frame: [type:1][seq:8][time:8][len:4][payload][crc:4], big endian.
// The CRC covers header and payload.
const (
	headerSize = 1 + 8 + 8 + 4
	crcSize    = 4
)
