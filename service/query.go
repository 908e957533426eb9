package service

import "matchbook/domain/orderbook"

// BookView is the limit side of the book down to a depth.
type BookView struct {
	Seq  uint64
	Bids []orderbook.LevelView
	Asks []orderbook.LevelView
}

type TreeView struct {
	Tree   orderbook.Tree
	Prices []int64
	Height int
}

type Stats struct {
	Seq        uint64
	Orders     int
	Limits     int
	Stops      int
	StopLimits int
	Levels     map[string]int
	Heights    map[string]int
}

func (s *OrderService) Order(id uint64) (orderbook.OrderView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Order(id)
}

// Book returns up to depth levels per side; depth <= 0 means all.
func (s *OrderService) Book(depth int) BookView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BookView{
		Seq:  s.seqGen.Current(),
		Bids: s.book.Depth(orderbook.Buy, depth),
		Asks: s.book.Depth(orderbook.Sell, depth),
	}
}

func (s *OrderService) Tree(tree orderbook.Tree) TreeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TreeView{
		Tree:   tree,
		Prices: s.book.Prices(tree),
		Height: s.book.Height(tree),
	}
}

func (s *OrderService) Top() TopOfBook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return topOf(s.seqGen.Current(), s.book)
}

func (s *OrderService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Seq:        s.seqGen.Current(),
		Orders:     s.book.Len(),
		Limits:     s.book.Count(orderbook.KindLimit),
		Stops:      s.book.Count(orderbook.KindStop),
		StopLimits: s.book.Count(orderbook.KindStopLimit),
		Levels:     make(map[string]int, len(trees)),
		Heights:    make(map[string]int, len(trees)),
	}
	for _, t := range trees {
		st.Levels[t.String()] = s.book.LevelCount(t)
		st.Heights[t.String()] = s.book.Height(t)
	}
	return st
}

// CheckInvariants runs the book's structural check under the lock.
func (s *OrderService) CheckInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.CheckInvariants()
}
