package entry

import (
	"encoding/binary"
	"os"
	"sync"
	"time"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

// WAL is the entry journal: every accepted command is appended before
// it is applied to the book. Segments rotate by size and by age.
type WAL struct {
	mu sync.Mutex

	dir     string
	segSize int64
	segAge  time.Duration
	current *segment
}

// Open starts a fresh segment after the highest one already in Dir, so
// a torn tail left by a crash is never appended to.
func Open(cfg Config) (*WAL, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	_, idx, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	next := 0
	if n := len(idx); n > 0 {
		next = idx[n-1] + 1
	}

	seg, err := openSegment(cfg.Dir, next)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:     cfg.Dir,
		segSize: cfg.SegmentSize,
		segAge:  cfg.SegmentDuration,
		current: seg,
	}, nil
}

func (w *WAL) Dir() string { return w.dir }

func (w *WAL) Append(r *Record) error {
	payloadLen := uint32(len(r.Data))
	buf := make([]byte, headerSize+payloadLen+crcSize)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	crc := CRC32(buf[:headerSize+payloadLen])
	binary.BigEndian.PutUint32(buf[headerSize+payloadLen:], crc)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.due() {
		if err := w.rotate(); err != nil {
			return err
		}
	}
	return w.current.append(buf)
}

// due reports whether the current segment is full or too old. An empty
// segment is never rotated.
func (w *WAL) due() bool {
	if w.current.offset == 0 {
		return false
	}
	if w.segSize > 0 && w.current.offset >= w.segSize {
		return true
	}
	return w.segAge > 0 && time.Since(w.current.opened) >= w.segAge
}

func (w *WAL) rotate() error {
	if err := w.current.close(); err != nil {
		return err
	}
	seg, err := openSegment(w.dir, w.current.index+1)
	if err != nil {
		return err
	}
	w.current = seg
	return nil
}

func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.file.Sync()
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.close()
}

// TruncateBefore deletes closed segments whose records all have a
// sequence <= seq. The open segment is kept.
func (w *WAL) TruncateBefore(seq uint64) error {
	paths, idx, err := listSegments(w.dir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	current := w.current.index
	w.mu.Unlock()

	for i, path := range paths {
		if idx[i] >= current {
			continue
		}
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}
	return nil
}
