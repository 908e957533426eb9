package grpcserver

// Order types accepted by PlaceOrder.
const (
	TypeMarket    = "market"
	TypeLimit     = "limit"
	TypeStop      = "stop"
	TypeStopLimit = "stop_limit"
)

type PlaceOrderRequest struct {
	Type      string `json:"type"`
	ID        uint64 `json:"id"`
	Side      string `json:"side"`
	Qty       int64  `json:"qty"`
	Price     int64  `json:"price,omitempty"`
	StopPrice int64  `json:"stop_price,omitempty"`
}

type Fill struct {
	Maker  uint64 `json:"maker"`
	Price  int64  `json:"price"`
	Shares int64  `json:"shares"`
}

// ExecutionReply summarizes what one command did to the book.
type ExecutionReply struct {
	Seq       uint64 `json:"seq"`
	Filled    int    `json:"filled"`
	Partials  int    `json:"partials"`
	Triggered int    `json:"triggered"`
	Dropped   int64  `json:"dropped"`
	Fills     []Fill `json:"fills,omitempty"`
}

// CancelOrderRequest names the order kind because cancels are typed;
// an empty Type means a limit order.
type CancelOrderRequest struct {
	ID   uint64 `json:"id"`
	Type string `json:"type,omitempty"`
}

type ModifyOrderRequest struct {
	ID        uint64 `json:"id"`
	Type      string `json:"type,omitempty"`
	Qty       int64  `json:"qty"`
	Price     int64  `json:"price,omitempty"`
	StopPrice int64  `json:"stop_price,omitempty"`
}

type GetOrderRequest struct {
	ID uint64 `json:"id"`
}

type OrderReply struct {
	ID         uint64 `json:"id"`
	Side       string `json:"side"`
	Type       string `json:"type"`
	Shares     int64  `json:"shares"`
	LimitPrice int64  `json:"limit_price,omitempty"`
	StopPrice  int64  `json:"stop_price,omitempty"`
}

type GetBookRequest struct {
	Depth int `json:"depth"`
}

type Level struct {
	Price  int64 `json:"price"`
	Volume int64 `json:"volume"`
	Orders int   `json:"orders"`
}

type BookReply struct {
	Seq  uint64  `json:"seq"`
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}
