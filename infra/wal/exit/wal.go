package exit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type ExitState uint8

const (
	StateNew ExitState = iota
	StateSent
	StateAcked
	StateFailed
)

func (s ExitState) String() string {
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

// -------------------- Record --------------------

// ExitRecord is one outbound execution event and its delivery state.
type ExitRecord struct {
	Seq         uint64
	State       ExitState
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

var ErrBadRecord = errors.New("invalid exit record")

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
const recordHeader = 1 + 4 + 8

func encodeRecord(r ExitRecord) []byte {
	buf := make([]byte, recordHeader+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recordHeader:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (ExitRecord, error) {
	if len(b) < recordHeader {
		return ExitRecord{}, fmt.Errorf("%w: %d bytes", ErrBadRecord, len(b))
	}
	payload := make([]byte, len(b)-recordHeader)
	copy(payload, b[recordHeader:])
	return ExitRecord{
		Seq:         seq,
		State:       ExitState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// -------------------- WAL --------------------

// ExitWAL is the execution outbox. The service writes an event per
// command that traded; the broadcaster drains it to Kafka.
type ExitWAL struct {
	db *pebble.DB
}

func Open(dir string) (*ExitWAL, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &ExitWAL{db: db}, nil
}

func (w *ExitWAL) Close() error {
	return w.db.Close()
}

// -------------------- API --------------------

// PutNew stores a NEW event under seq.
func (w *ExitWAL) PutNew(seq uint64, payload []byte) error {
	rec := ExitRecord{State: StateNew, Payload: payload}
	return w.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

func (w *ExitWAL) MarkSent(seq uint64) error {
	return w.update(seq, func(r *ExitRecord) {
		r.State = StateSent
		r.LastAttempt = time.Now().UnixNano()
	})
}

func (w *ExitWAL) MarkAcked(seq uint64) error {
	return w.update(seq, func(r *ExitRecord) {
		r.State = StateAcked
	})
}

// MarkFailed records a failed attempt and bumps the retry count.
func (w *ExitWAL) MarkFailed(seq uint64) error {
	return w.update(seq, func(r *ExitRecord) {
		r.State = StateFailed
		r.Retries++
		r.LastAttempt = time.Now().UnixNano()
	})
}

func (w *ExitWAL) update(seq uint64, fn func(*ExitRecord)) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	fn(&rec)
	return w.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// Get returns the current record for seq; pebble.ErrNotFound if absent.
func (w *ExitWAL) Get(seq uint64) (ExitRecord, error) {
	val, closer, err := w.db.Get(keyFor(seq))
	if err != nil {
		return ExitRecord{}, err
	}
	defer closer.Close()

	return decodeRecord(seq, val)
}

// -------------------- Scan --------------------

// ScanPending visits, in sequence order, every record that still needs
// delivery: NEW, SENT (a publish interrupted by a crash) and FAILED with
// fewer than maxRetries attempts.
func (w *ExitWAL) ScanPending(maxRetries uint32, fn func(ExitRecord) error) error {
	return w.scan(func(rec ExitRecord) error {
		switch rec.State {
		case StateNew, StateSent:
		case StateFailed:
			if rec.Retries >= maxRetries {
				return nil
			}
		default:
			return nil
		}
		return fn(rec)
	})
}

// ScanByState visits every record in the given state.
func (w *ExitWAL) ScanByState(state ExitState, fn func(ExitRecord) error) error {
	return w.scan(func(rec ExitRecord) error {
		if rec.State != state {
			return nil
		}
		return fn(rec)
	})
}

func (w *ExitWAL) scan(fn func(ExitRecord) error) error {
	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// TruncateAckedUpTo deletes ACKED records with seq <= upTo.
func (w *ExitWAL) TruncateAckedUpTo(upTo uint64) (int, error) {
	batch := w.db.NewBatch()
	defer batch.Close()

	n := 0
	err := w.scan(func(rec ExitRecord) error {
		if rec.Seq > upTo || rec.State != StateAcked {
			return nil
		}
		n++
		return batch.Delete(keyFor(rec.Seq), nil)
	})
	if err != nil || n == 0 {
		return 0, err
	}
	return n, batch.Commit(pebble.Sync)
}

// -------------------- Helpers --------------------

const keyPrefix = "event/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf(keyPrefix+"%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(b), keyPrefix+"%d", &seq)
	return seq, err
}
