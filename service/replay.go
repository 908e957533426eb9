package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"matchbook/domain/command"
	"matchbook/domain/orderbook"
	"matchbook/infra/sequence"
	entrywal "matchbook/infra/wal/entry"
)

/*
ReplayFromWAL rebuilds in-memory state from the entry WAL.

IMPORTANT:
- This MUST run before accepting traffic
- Records at or below after are already in the loaded snapshot
- The exit WAL is NOT replayed; it keeps its own delivery state
*/
func ReplayFromWAL(
	walDir string,
	book *orderbook.OrderBook,
	seqGen *sequence.Sequencer,
	after uint64,
	log zerolog.Logger,
) (int, error) {
	applied := 0
	lastSeq, err := entrywal.Replay(walDir, func(rec *entrywal.Record) error {
		if rec.Seq <= after {
			return nil
		}

		var cmd command.Command
		if err := cmd.UnmarshalBinary(rec.Data); err != nil {
			return fmt.Errorf("seq %d: %w", rec.Seq, err)
		}

		// Rejections were journaled too and are rejected again here.
		if _, err := cmd.Apply(book); err != nil {
			log.Debug().Err(err).Uint64("seq", rec.Seq).Str("op", cmd.Op.String()).Msg("replayed command rejected")
			return nil
		}
		applied++
		return nil
	})
	if err != nil {
		return applied, err
	}

	// Resume sequencing AFTER replay
	seqGen.Observe(max(lastSeq, after))

	log.Info().Uint64("last_seq", seqGen.Current()).Int("applied", applied).Msg("WAL replay completed")
	return applied, nil
}
