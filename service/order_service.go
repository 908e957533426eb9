package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"matchbook/domain/command"
	"matchbook/domain/orderbook"
	"matchbook/infra/memory"
	"matchbook/infra/metrics"
	"matchbook/infra/sequence"
	entrywal "matchbook/infra/wal/entry"
	exitwal "matchbook/infra/wal/exit"
)

/*
OrderService is the ONLY write entry point into the system.

All coordination between:
- domain (orderbook, command)
- infra (sequence, entry WAL, exit WAL, memory ring)
- market data subscribers
happens here. The book is single-writer; mu serializes every command
and every read.
*/
type OrderService struct {
	mu sync.Mutex

	book     *orderbook.OrderBook
	seqGen   *sequence.Sequencer
	entryWAL *entrywal.WAL
	exitWAL  *exitwal.ExitWAL
	updates  *memory.Ring[marketUpdate]
	log      zerolog.Logger
}

// Receipt is what a caller gets back for an accepted command.
type Receipt struct {
	Seq    uint64
	Result orderbook.Result
}

// Sink receives market data; the WebSocket hub implements it.
type Sink interface {
	Broadcast(msgType string, data any)
}

const updateRingSize = 4096

// NewOrderService wires all dependencies. The WALs may be nil, which
// turns journaling or the outbox off (tests, the offline feeder).
func NewOrderService(
	book *orderbook.OrderBook,
	seqGen *sequence.Sequencer,
	entryWAL *entrywal.WAL,
	exitWAL *exitwal.ExitWAL,
	log zerolog.Logger,
) *OrderService {
	s := &OrderService{
		book:     book,
		seqGen:   seqGen,
		entryWAL: entryWAL,
		exitWAL:  exitWAL,
		updates:  memory.NewRing[marketUpdate](updateRingSize),
		log:      log,
	}
	s.mu.Lock()
	s.observeBook()
	s.mu.Unlock()
	return s
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Execute validates, sequences, journals and applies one command.
// Book-level rejections (unknown id, duplicate id) are returned after
// the command was journaled; replay rejects them the same way.
func (s *OrderService) Execute(ctx context.Context, cmd command.Command) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	op := cmd.Op.String()
	if err := cmd.Validate(); err != nil {
		metrics.RejectionsTotal.WithLabelValues(op, reason(err)).Inc()
		return Receipt{}, err
	}
	payload, err := cmd.MarshalBinary()
	if err != nil {
		return Receipt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1️⃣ Sequence and journal the intent
	seq := s.seqGen.Next()
	if s.entryWAL != nil {
		if err := s.entryWAL.Append(entrywal.NewRecord(recordType(cmd.Op), seq, payload)); err != nil {
			return Receipt{}, fmt.Errorf("journal seq %d: %w", seq, err)
		}
	}

	// 2️⃣ Execute deterministic domain logic
	start := time.Now()
	res, err := cmd.Apply(s.book)
	metrics.CommandLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RejectionsTotal.WithLabelValues(op, reason(err)).Inc()
		s.log.Debug().Err(err).Uint64("seq", seq).Str("op", op).Uint64("id", cmd.ID).Msg("command rejected by book")
		return Receipt{Seq: seq}, err
	}
	metrics.CommandsTotal.WithLabelValues(op).Inc()
	s.observe(res)

	// 3️⃣ Record the execution for the broadcaster
	if len(res.Trades) > 0 && s.exitWAL != nil {
		s.recordExecution(seq, cmd, res)
	}

	// 4️⃣ Hand market data to the dispatcher
	s.enqueueUpdate(seq, res)

	if res.Dropped > 0 {
		s.log.Debug().Uint64("seq", seq).Int64("dropped", res.Dropped).Msg("market quantity found no liquidity")
	}
	return Receipt{Seq: seq, Result: res}, nil
}

func (s *OrderService) recordExecution(seq uint64, cmd command.Command, res orderbook.Result) {
	b, err := json.Marshal(newExecutionEvent(seq, cmd, res))
	if err != nil {
		s.log.Error().Err(err).Uint64("seq", seq).Msg("encode execution event")
		return
	}
	if err := s.exitWAL.PutNew(seq, b); err != nil {
		s.log.Error().Err(err).Uint64("seq", seq).Msg("outbox write failed")
	}
}

func (s *OrderService) enqueueUpdate(seq uint64, res orderbook.Result) {
	u := marketUpdate{top: topOf(seq, s.book)}
	if len(res.Trades) > 0 {
		u.trades = tradeMessages(seq, res.Trades)
	}
	if !s.updates.Push(u) {
		s.log.Warn().Uint64("seq", seq).Msg("market data ring full, update dropped")
	}
}

func (s *OrderService) observe(res orderbook.Result) {
	metrics.TradesTotal.Add(float64(len(res.Trades)))
	metrics.TradedVolume.Add(float64(res.Volume()))
	metrics.ExecutedOrders.WithLabelValues("filled").Add(float64(res.Filled))
	metrics.ExecutedOrders.WithLabelValues("partial").Add(float64(res.Partials))
	metrics.StopTriggersTotal.Add(float64(res.Triggered))
	metrics.RebalancesTotal.Add(float64(res.Rebalances))
	metrics.DroppedQuantity.Add(float64(res.Dropped))
	s.observeBook()
}

func (s *OrderService) observeBook() {
	for _, k := range []orderbook.Kind{orderbook.KindLimit, orderbook.KindStop, orderbook.KindStopLimit} {
		metrics.RestingOrders.WithLabelValues(k.String()).Set(float64(s.book.Count(k)))
	}
	for _, t := range trees {
		metrics.PriceLevels.WithLabelValues(t.String()).Set(float64(s.book.LevelCount(t)))
	}
}

var trees = []orderbook.Tree{orderbook.BuyTree, orderbook.SellTree, orderbook.StopBuyTree, orderbook.StopSellTree}

func recordType(op command.Op) entrywal.RecordType {
	switch {
	case op.IsCancel():
		return entrywal.RecordCancel
	case op.IsModify():
		return entrywal.RecordModify
	default:
		return entrywal.RecordPlace
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, orderbook.ErrNotFound):
		return "not_found"
	case errors.Is(err, orderbook.ErrDuplicateOrder):
		return "duplicate"
	case errors.Is(err, command.ErrUnknownOp):
		return "unknown_op"
	default:
		return "invalid"
	}
}

//
// ──────────────────────────────────────────────────────────
// Market data
// ──────────────────────────────────────────────────────────
//

// RunMarketData drains queued updates to sink until ctx is cancelled.
// Each update becomes one "trade" message per fill and one "top".
func (s *OrderService) RunMarketData(ctx context.Context, sink Sink, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.dispatch(sink)
		}
	}
}

func (s *OrderService) dispatch(sink Sink) int {
	n := 0
	for {
		u, ok := s.updates.Pop()
		if !ok {
			return n
		}
		for _, tr := range u.trades {
			sink.Broadcast("trade", tr)
		}
		sink.Broadcast("top", u.top)
		n++
	}
}
