package snapshot

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"matchbook/domain/orderbook"
)

// Load restores the snapshot at path into an empty book and returns its
// sequence. A missing file is not an error: the book starts empty at 0.
func Load(path string, book *orderbook.OrderBook) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}

	for _, e := range s.Orders {
		if err := restore(book, e); err != nil {
			return 0, fmt.Errorf("restore order %d: %w", e.ID, err)
		}
	}
	return s.Seq, nil
}

func restore(book *orderbook.OrderBook, e OrderEntry) error {
	side := orderbook.Side(e.Side)
	var (
		res orderbook.Result
		err error
	)
	switch orderbook.Kind(e.Kind) {
	case orderbook.KindLimit:
		res, err = book.AddLimit(e.ID, side, e.Shares, e.LimitPrice)
	case orderbook.KindStop:
		res, err = book.AddStop(e.ID, side, e.Shares, e.StopPrice)
	case orderbook.KindStopLimit:
		res, err = book.AddStopLimit(e.ID, side, e.Shares, e.LimitPrice, e.StopPrice)
	default:
		return fmt.Errorf("unknown order kind %d", e.Kind)
	}
	if err != nil {
		return err
	}
	if len(res.Trades) > 0 || res.Triggered > 0 {
		return errors.New("snapshot order executed on restore")
	}
	return nil
}
