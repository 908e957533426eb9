package entry

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
)

// maxSeqInSegment scans a segment's headers and returns the highest
// sequence in it. It is used only for snapshot-based truncation.
func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max uint64
	header := make([]byte, headerSize)

	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return max, nil
			}
			return max, err
		}

		seq := binary.BigEndian.Uint64(header[1:9])
		if seq > max {
			max = seq
		}

		payloadLen := binary.BigEndian.Uint32(header[17:21])
		if _, err := f.Seek(int64(payloadLen+crcSize), io.SeekCurrent); err != nil {
			return max, err
		}
	}
}
