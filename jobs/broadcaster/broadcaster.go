package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"matchbook/infra/metrics"
	exitwal "matchbook/infra/wal/exit"
)

// Publisher delivers one event to the downstream bus.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

type Config struct {
	Interval   time.Duration
	MaxRetries uint32
}

// Broadcaster drains the execution outbox to a Publisher. Delivery is
// at-least-once: a record is marked SENT before publishing and only
// ACKED once the publisher returns.
type Broadcaster struct {
	exitWAL *exitwal.ExitWAL
	pub     Publisher
	cfg     Config
	log     zerolog.Logger
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(exitWAL *exitwal.ExitWAL, pub Publisher, cfg Config, log zerolog.Logger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	return &Broadcaster{
		exitWAL: exitWAL,
		pub:     pub,
		cfg:     cfg,
		log:     log,
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run polls the outbox until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info().Dur("interval", b.cfg.Interval).Msg("broadcaster started")

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("broadcaster stopped")
			return
		case <-ticker.C:
			b.drain(ctx)
		}
	}
}

// drain makes one pass over pending records. It returns the number
// published.
func (b *Broadcaster) drain(ctx context.Context) int {
	sent := 0
	err := b.exitWAL.ScanPending(b.cfg.MaxRetries, func(rec exitwal.ExitRecord) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := b.exitWAL.MarkSent(rec.Seq); err != nil {
			return err
		}

		key := []byte(strconv.FormatUint(rec.Seq, 10))
		if err := b.pub.Publish(ctx, key, rec.Payload); err != nil {
			metrics.OutboxPublishTotal.WithLabelValues("failed").Inc()
			b.log.Warn().Err(err).Uint64("seq", rec.Seq).Uint32("retries", rec.Retries+1).Msg("publish failed")
			return b.exitWAL.MarkFailed(rec.Seq)
		}

		metrics.OutboxPublishTotal.WithLabelValues("acked").Inc()
		sent++
		return b.exitWAL.MarkAcked(rec.Seq)
	})
	if err != nil && ctx.Err() == nil {
		b.log.Error().Err(err).Msg("outbox scan failed")
	}

	b.reportExhausted()
	return sent
}

func (b *Broadcaster) reportExhausted() {
	_ = b.exitWAL.ScanByState(exitwal.StateFailed, func(rec exitwal.ExitRecord) error {
		if rec.Retries >= b.cfg.MaxRetries {
			b.log.Error().Uint64("seq", rec.Seq).Uint32("retries", rec.Retries).Msg("event exhausted retries")
		}
		return nil
	})
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.pub.Close()
}
