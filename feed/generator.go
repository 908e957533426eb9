package feed

import (
	"bufio"
	"io"
	"math/rand/v2"

	"matchbook/domain/command"
	"matchbook/domain/orderbook"
)

// Weights sets the relative frequency of each generated action. The
// zero value of a field disables that action.
type Weights struct {
	Market        float64
	Limit         float64
	Cancel        float64
	LimitInMarket float64
	Modify        float64
	Stop          float64
	StopLimit     float64
}

// DefaultWeights is an even mix of market orders, passive limits,
// cancels and aggressive limits.
var DefaultWeights = Weights{Market: 1, Limit: 1, Cancel: 1, LimitInMarket: 1}

const (
	priceCentre = 500
	priceSpread = 50
	maxAttempts = 10
)

// Generator emits random commands and applies each to its own book so
// later choices (non-crossing prices, cancels of live orders) follow
// the state the stream has built.
type Generator struct {
	book    *orderbook.OrderBook
	rng     *rand.Rand
	next    uint64
	actions []func() (command.Command, bool)
	cum     []float64
}

func NewGenerator(book *orderbook.OrderBook, rng *rand.Rand, w Weights) *Generator {
	g := &Generator{book: book, rng: rng, next: 1}
	total := 0.0
	add := func(weight float64, fn func() (command.Command, bool)) {
		if weight <= 0 {
			return
		}
		total += weight
		g.actions = append(g.actions, fn)
		g.cum = append(g.cum, total)
	}
	add(w.Market, g.market)
	add(w.Limit, g.limit)
	add(w.Cancel, g.cancel)
	add(w.LimitInMarket, g.limitInMarket)
	add(w.Modify, g.modify)
	add(w.Stop, g.stop)
	add(w.StopLimit, g.stopLimit)
	return g
}

// Next returns one generated command, already applied to the
// generator's book.
func (g *Generator) Next() command.Command {
	if len(g.actions) == 0 {
		cmd, _ := g.limit()
		return g.apply(cmd)
	}
	x := g.rng.Float64() * g.cum[len(g.cum)-1]
	i := 0
	for i < len(g.cum)-1 && x >= g.cum[i] {
		i++
	}
	cmd, ok := g.actions[i]()
	if !ok {
		cmd, _ = g.limit()
	}
	return g.apply(cmd)
}

// Initial returns a limit order around centre for seeding a book:
// prices below centre are bids, the rest asks.
func (g *Generator) Initial(centre int64) command.Command {
	price := max(g.normal(float64(centre)), 1)
	side := orderbook.Sell
	if price < centre {
		side = orderbook.Buy
	}
	return g.apply(command.Command{Op: command.OpAddLimit, ID: g.id(), Side: side, Qty: g.between(1, 1000), Price: price})
}

// WriteInitial writes n seeding orders to w.
func (g *Generator) WriteInitial(w io.Writer, n int, centre int64) error {
	return g.write(w, n, func() command.Command { return g.Initial(centre) })
}

// WriteRandom writes n generated commands to w.
func (g *Generator) WriteRandom(w io.Writer, n int) error {
	return g.write(w, n, g.Next)
}

func (g *Generator) write(w io.Writer, n int, next func() command.Command) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < n; i++ {
		if _, err := bw.WriteString(Format(next()) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (g *Generator) apply(cmd command.Command) command.Command {
	_, _ = cmd.Apply(g.book)
	return cmd
}

// ---- actions ----

func (g *Generator) market() (command.Command, bool) {
	return command.Command{Op: command.OpMarket, ID: g.id(), Side: g.side(), Qty: g.between(5, 5000)}, true
}

// limit draws a price that does not cross the opposite side.
func (g *Generator) limit() (command.Command, bool) {
	side := g.side()
	price, ok := g.passivePrice(side, priceCentre)
	if !ok {
		return g.market()
	}
	return command.Command{Op: command.OpAddLimit, ID: g.id(), Side: side, Qty: g.between(5, 5000), Price: price}, true
}

func (g *Generator) cancel() (command.Command, bool) {
	o, ok := g.book.RandomOrder(orderbook.KindLimit, g.rng)
	if !ok {
		return command.Command{}, false
	}
	return command.Command{Op: command.OpCancelLimit, ID: o.ID}, true
}

// limitInMarket prices one tick through the opposite best so it trades.
func (g *Generator) limitInMarket() (command.Command, bool) {
	side := g.side()
	var price int64
	if side == orderbook.Buy {
		lvl, ok := g.book.BestSell()
		if !ok {
			return command.Command{}, false
		}
		price = lvl.Price + 1
	} else {
		lvl, ok := g.book.BestBuy()
		if !ok || lvl.Price <= 1 {
			return command.Command{}, false
		}
		price = lvl.Price - 1
	}
	return command.Command{Op: command.OpAddLimitMarket, ID: g.id(), Side: side, Qty: g.between(1, 1000), Price: price}, true
}

// modify moves a sampled limit order to a new passive price.
func (g *Generator) modify() (command.Command, bool) {
	o, ok := g.book.RandomOrder(orderbook.KindLimit, g.rng)
	if !ok {
		return command.Command{}, false
	}
	centre := int64(priceCentre)
	if lvl, ok := g.book.BestBuy(); ok {
		centre = lvl.Price
	}
	price, ok := g.passivePrice(o.Side, centre)
	if !ok {
		return command.Command{}, false
	}
	return command.Command{Op: command.OpModifyLimit, ID: o.ID, Qty: g.between(1, 1000), Price: price}, true
}

func (g *Generator) stop() (command.Command, bool) {
	side := g.side()
	return command.Command{Op: command.OpAddStop, ID: g.id(), Side: side, Qty: g.between(1, 1000), StopPrice: g.stopPrice(side)}, true
}

func (g *Generator) stopLimit() (command.Command, bool) {
	side := g.side()
	stop := g.stopPrice(side)
	limit := stop + g.between(0, 5)
	if side == orderbook.Sell {
		limit = max(stop-g.between(0, 5), 1)
	}
	return command.Command{Op: command.OpAddStopLimit, ID: g.id(), Side: side, Qty: g.between(1, 1000), Price: limit, StopPrice: stop}, true
}

// ---- draws ----

// passivePrice draws around centre until the price rests without
// crossing, falling back to one tick off the opposite best.
func (g *Generator) passivePrice(side orderbook.Side, centre int64) (int64, bool) {
	if side == orderbook.Buy {
		lvl, ok := g.book.BestSell()
		if !ok {
			return max(g.normal(float64(centre)), 1), true
		}
		for i := 0; i < maxAttempts; i++ {
			if p := g.normal(float64(centre)); p >= 1 && p < lvl.Price {
				return p, true
			}
		}
		return lvl.Price - 1, lvl.Price > 1
	}

	lvl, ok := g.book.BestBuy()
	if !ok {
		return max(g.normal(float64(centre)), 1), true
	}
	for i := 0; i < maxAttempts; i++ {
		if p := g.normal(float64(centre)); p > lvl.Price {
			return p, true
		}
	}
	return lvl.Price + 1, true
}

// stopPrice draws a trigger on the far side of the market so the stop
// usually rests.
func (g *Generator) stopPrice(side orderbook.Side) int64 {
	if side == orderbook.Buy {
		if lvl, ok := g.book.BestSell(); ok {
			return lvl.Price + g.between(1, priceSpread)
		}
	} else if lvl, ok := g.book.BestBuy(); ok {
		return max(lvl.Price-g.between(1, priceSpread), 1)
	}
	return max(g.normal(priceCentre), 1)
}

func (g *Generator) normal(mean float64) int64 {
	return int64(g.rng.NormFloat64()*priceSpread + mean)
}

func (g *Generator) between(lo, hi int64) int64 {
	return lo + g.rng.Int64N(hi-lo+1)
}

func (g *Generator) side() orderbook.Side {
	return orderbook.Side(g.rng.IntN(2))
}

func (g *Generator) id() uint64 {
	id := g.next
	g.next++
	return id
}
