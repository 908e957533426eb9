package orderbook

import "errors"

var (
	ErrNotFound        = errors.New("order not found")
	ErrDuplicateOrder  = errors.New("order id already resting")
	ErrInvalidSide     = errors.New("invalid side")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
)
