package service

import (
	"context"
	"time"

	"matchbook/infra/metrics"
	"matchbook/snapshot"
)

// SnapshotNow captures the book under the lock, saves it, then drops
// the journal and the acked outbox entries it covers.
func (s *OrderService) SnapshotNow(w *snapshot.Writer) (uint64, error) {
	s.mu.Lock()
	snap := snapshot.Capture(s.seqGen.Current(), s.book)
	s.mu.Unlock()

	if err := w.Save(snap); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("failed").Inc()
		return 0, err
	}
	metrics.SnapshotsTotal.WithLabelValues("ok").Inc()

	// Truncate ENTRY WAL after snapshot
	if s.entryWAL != nil {
		if err := s.entryWAL.TruncateBefore(snap.Seq); err != nil {
			s.log.Warn().Err(err).Msg("entry WAL truncation failed")
		}
	}

	// GC EXIT WAL (acked only)
	if s.exitWAL != nil {
		if n, err := s.exitWAL.TruncateAckedUpTo(snap.Seq); err != nil {
			s.log.Warn().Err(err).Msg("outbox truncation failed")
		} else if n > 0 {
			s.log.Debug().Int("removed", n).Msg("outbox truncated")
		}
	}

	s.log.Info().Uint64("seq", snap.Seq).Int("orders", len(snap.Orders)).Msg("snapshot written")
	return snap.Seq, nil
}

func (s *OrderService) RunSnapshotJob(ctx context.Context, w *snapshot.Writer, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.SnapshotNow(w); err != nil {
				s.log.Error().Err(err).Msg("snapshot failed")
			}
		}
	}
}
